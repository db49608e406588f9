package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/career-quiz/internal/ai"
	"github.com/spigell/career-quiz/internal/logger"
	"github.com/spigell/career-quiz/internal/quiz"
)

const (
	StageResolve   = "resolve"
	StagePrompt    = "prompt"
	StageRecommend = "recommend"
	StageParse     = "parse"
	StageCourses   = "courses"
	StageMatch     = "match"
	StagePersist   = "persist"
)

// QuestionCatalog is the read-only question store keyed by question id.
type QuestionCatalog interface {
	GetQuestion(ctx context.Context, id string) (*quiz.Question, error)
}

// CourseCatalog enumerates every course in a stable order.
type CourseCatalog interface {
	ListCourses(ctx context.Context) ([]quiz.Course, error)
}

// ResultStore keeps one result per user. SaveResult overwrites the previous
// result and returns the timestamp assigned by the store.
type ResultStore interface {
	SaveResult(ctx context.Context, userID string, result quiz.Result) (time.Time, error)
}

// Recorder receives pipeline measurements.
type Recorder interface {
	ObserveStage(stage string, elapsed time.Duration)
	ObserveDiagnostics(count int)
	ObserveOutcome(kind Kind)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, time.Duration) {}
func (nopRecorder) ObserveDiagnostics(int)             {}
func (nopRecorder) ObserveOutcome(Kind)                {}

// Config holds the tunables of the pipeline.
type Config struct {
	Professions       []string
	LookupConcurrency int
}

// Deps aggregates the collaborators of the pipeline.
type Deps struct {
	Questions   QuestionCatalog
	Courses     CourseCatalog
	Recommender ai.Recommender
	Results     ResultStore
	Logger      *zap.Logger
	Recorder    Recorder
}

// Analyzer turns a quiz submission into a persisted recommendation.
type Analyzer struct {
	config      Config
	resolver    *Resolver
	courses     CourseCatalog
	recommender ai.Recommender
	results     ResultStore
	logger      *zap.Logger
	recorder    Recorder
}

func New(cfg Config, deps Deps) *Analyzer {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Analyzer{
		config:      cfg,
		resolver:    NewResolver(deps.Questions, cfg.LookupConcurrency, log),
		courses:     deps.Courses,
		recommender: deps.Recommender,
		results:     deps.Results,
		logger:      log,
		recorder:    recorder,
	}
}

type requestIDKey struct{}

// WithRequestID attaches a request id used in pipeline logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Analyze runs resolve, prompt, recommend, parse, match and persist in order.
// Nothing is written unless every earlier stage succeeded.
func (a *Analyzer) Analyze(ctx context.Context, userID string, answers []quiz.SubmittedAnswer) (*quiz.Result, error) {
	result, err := a.analyze(ctx, userID, answers)
	a.recorder.ObserveOutcome(KindOf(err))
	return result, err
}

func (a *Analyzer) analyze(ctx context.Context, userID string, answers []quiz.SubmittedAnswer) (*quiz.Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalidRequest("user identity is required")
	}
	if len(answers) == 0 {
		return nil, invalidRequest("at least one answer is required")
	}

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := logger.WithRequest(a.logger, requestID, userID)
	log.Info("analysis started", zap.Int("answers", len(answers)))

	started := time.Now()
	fragments := a.resolver.Resolve(ctx, answers)
	a.stageDone(log, StageResolve, started)

	diagnostics := 0
	for _, fragment := range fragments {
		if !fragment.Enriched() {
			diagnostics++
		}
	}
	a.recorder.ObserveDiagnostics(diagnostics)
	if diagnostics > 0 {
		log.Warn("some answers could not be resolved",
			zap.Int("diagnostics", diagnostics),
			zap.Int("answers", len(answers)),
		)
	}

	started = time.Now()
	prompt := BuildPrompt(fragments, a.config.Professions)
	a.stageDone(log, StagePrompt, started)

	started = time.Now()
	raw, err := a.recommender.Recommend(ctx, prompt)
	a.stageDone(log, StageRecommend, started)
	if err != nil {
		message := "AI recommendation request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			message = "AI recommendation request timed out"
		}
		log.Error("recommendation request failed", zap.Error(err))
		return nil, newError(KindUpstreamAI, message, err)
	}

	started = time.Now()
	rec, issues, err := parseRecommendation(raw)
	a.stageDone(log, StageParse, started)
	if err != nil {
		log.Error("recommendation response is malformed", zap.Error(err), zap.String("raw_response", raw))
		return nil, err
	}
	if len(issues) > 0 {
		log.Warn("recommendation response does not fully match the schema", zap.Strings("issues", issues))
	}

	started = time.Now()
	catalog, err := a.courses.ListCourses(ctx)
	a.stageDone(log, StageCourses, started)
	if err != nil {
		log.Error("course catalog lookup failed", zap.Error(err))
		return nil, newError(KindCourseLookup, "failed to load the course catalog", err)
	}

	started = time.Now()
	courses := MatchCourses(rec.ProfessionIDs, catalog)
	a.stageDone(log, StageMatch, started)
	log.Info("courses matched",
		zap.Int("catalog", len(catalog)),
		zap.Int("matched", len(courses)),
		zap.Strings("profession_ids", rec.ProfessionIDs),
	)

	result := quiz.Result{
		CareerRecommendation: rec.CareerRecommendation,
		ProfessionIDs:        rec.ProfessionIDs,
		SuitableCourses:      courses,
	}

	started = time.Now()
	timestamp, err := a.results.SaveResult(ctx, userID, result)
	a.stageDone(log, StagePersist, started)
	if err != nil {
		log.Error("saving result failed", zap.Error(err))
		return nil, newError(KindPersistence, "analysis completed but the result was not saved", err)
	}
	result.Timestamp = timestamp

	log.Info("analysis completed", zap.Time("timestamp", timestamp))
	return &result, nil
}

func (a *Analyzer) stageDone(log *zap.Logger, stage string, started time.Time) {
	elapsed := time.Since(started)
	a.recorder.ObserveStage(stage, elapsed)
	log.Debug("stage finished", zap.String("stage", stage), zap.Duration("elapsed", elapsed))
}
