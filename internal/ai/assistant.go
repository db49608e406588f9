package ai

import "context"

const (
	FieldCareerRecommendation = "careerRecommendation"
	FieldProfessionIDs        = "professionIds"
)

// Recommendation is the parsed model answer. CareerRecommendation may be empty
// when the model omitted it; ProfessionIDs is never nil.
type Recommendation struct {
	CareerRecommendation string   `mapstructure:"careerRecommendation"`
	ProfessionIDs        []string `mapstructure:"professionIds"`
	Raw                  string   `mapstructure:"-"`
}

// Recommender sends a prompt constrained to the recommendation schema and
// returns the raw response text.
type Recommender interface {
	Recommend(ctx context.Context, prompt string) (string, error)
}
