package gemini

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/career-quiz/internal/ai"
	"github.com/spigell/career-quiz/internal/utils"
)

const defaultMaxLogLength = 200

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Recommender asks Gemini for a career recommendation constrained to ResponseSchema.
type Recommender struct {
	generator jsonGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Recommender = (*Recommender)(nil)

func NewRecommender(generator jsonGenerator, logger *zap.Logger, maxLogLength int) *Recommender {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Recommender{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// ResponseSchema is the object shape the model must answer with. Property
// order matters: the recommendation comes first, then the identifiers.
func ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			ai.FieldCareerRecommendation: {Type: genai.TypeString},
			ai.FieldProfessionIDs: {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		PropertyOrdering: []string{ai.FieldCareerRecommendation, ai.FieldProfessionIDs},
	}
}

func (r *Recommender) Recommend(ctx context.Context, prompt string) (string, error) {
	r.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateJSON(ctx, prompt, ResponseSchema())
	if err != nil {
		return "", err
	}

	r.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	return raw, nil
}
