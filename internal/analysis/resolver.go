package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/career-quiz/internal/quiz"
)

const defaultLookupConcurrency = 8

// Resolver joins submitted answers with the question catalog.
type Resolver struct {
	questions   QuestionCatalog
	concurrency int
	logger      *zap.Logger
}

func NewResolver(questions QuestionCatalog, concurrency int, logger *zap.Logger) *Resolver {
	if concurrency <= 0 {
		concurrency = defaultLookupConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{questions: questions, concurrency: concurrency, logger: logger}
}

// Resolve returns one fragment per answer in input order. Lookups run in
// parallel; a failed lookup becomes a diagnostic and never aborts the batch.
func (r *Resolver) Resolve(ctx context.Context, answers []quiz.SubmittedAnswer) []quiz.Fragment {
	fragments := make([]quiz.Fragment, len(answers))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, answer := range answers {
		g.Go(func() error {
			fragments[i] = r.resolveOne(ctx, i, answer)
			return nil
		})
	}
	_ = g.Wait()

	return fragments
}

func (r *Resolver) resolveOne(ctx context.Context, index int, answer quiz.SubmittedAnswer) quiz.Fragment {
	fragment := quiz.Fragment{Answer: answer}

	questionID := strings.TrimSpace(answer.QuestionID)
	optionID := strings.TrimSpace(answer.SelectedOptionID)
	if questionID == "" || optionID == "" {
		fragment.Diagnostic = fmt.Sprintf("Answer #%d was skipped: questionId and selectedOptionId are required.", index+1)
		r.logger.Debug("skipping incomplete answer", zap.Int("index", index))
		return fragment
	}

	question, err := r.questions.GetQuestion(ctx, questionID)
	if err != nil || question == nil {
		if err != nil && !errors.Is(err, quiz.ErrNotFound) {
			r.logger.Warn("question lookup failed",
				zap.String("question_id", questionID),
				zap.Error(err),
			)
		}
		fragment.Diagnostic = fmt.Sprintf("Question %q was not found, its answer is ignored.", questionID)
		return fragment
	}
	fragment.Question = question

	option := question.FindOption(optionID)
	if option == nil {
		fragment.Diagnostic = fmt.Sprintf("Selected option %q does not match any option of this question.", optionID)
		return fragment
	}
	fragment.Option = option

	return fragment
}
