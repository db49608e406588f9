package quiz

import (
	"errors"
	"time"
)

// Option is a single selectable answer of a question.
type Option struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// Question is a catalog entry. CareerImpact maps profession identifiers to
// the weight an answer to this question carries for that profession.
type Question struct {
	ID           string             `json:"id"`
	QuestionText string             `json:"questionText"`
	Options      []Option           `json:"options"`
	CareerImpact map[string]float64 `json:"careerImpact,omitempty"`
}

// FindOption returns the option with the given id or nil.
func (q *Question) FindOption(id string) *Option {
	if q == nil {
		return nil
	}
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

// SubmittedAnswer is one item of the analyze request body.
type SubmittedAnswer struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
}

// Fragment is a resolved answer. Diagnostic is set when the answer could not
// be joined with the catalog; Question is still filled when only the option
// was unknown.
type Fragment struct {
	Answer     SubmittedAnswer
	Question   *Question
	Option     *Option
	Diagnostic string
}

// Enriched reports whether both the question and the option were resolved.
func (f Fragment) Enriched() bool {
	return f.Diagnostic == "" && f.Question != nil && f.Option != nil
}

type Course struct {
	ID                      string   `json:"id"`
	Title                   string   `json:"title,omitempty"`
	Description             string   `json:"description,omitempty"`
	Provider                string   `json:"provider,omitempty"`
	URL                     string   `json:"url,omitempty"`
	AssociatedProfessionIDs []string `json:"associatedProfessionIds"`
}

// Result is the latest analysis of a user. There is at most one per user.
type Result struct {
	CareerRecommendation string    `json:"careerRecommendation"`
	ProfessionIDs        []string  `json:"professionIds"`
	SuitableCourses      []Course  `json:"suitableCourses"`
	Timestamp            time.Time `json:"timestamp"`
}

// ErrNotFound is returned by catalogs and stores for unknown identifiers.
var ErrNotFound = errors.New("not found")
