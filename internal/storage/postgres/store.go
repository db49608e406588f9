package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/spigell/career-quiz/internal/quiz"
)

//go:embed schema.sql
var schemaSQL string

// Config describes the connection pool.
type Config struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max-open-conns"`
	MaxIdleConns    int           `mapstructure:"max-idle-conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn-max-lifetime"`
}

// Store keeps the question and course catalogs and the per-user results.
type Store struct {
	db      *sql.DB
	queries *Queries
	logger  *zap.Logger
}

// Open creates the connection pool. It does not contact the server; use Ping.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(lifetime)

	return NewStore(db, logger), nil
}

// NewStore wraps an existing pool.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, queries: NewQueries(db), logger: logger}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate creates the tables when they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.logger.Info("schema applied")
	return nil
}

// GetQuestion returns an error wrapping quiz.ErrNotFound for unknown ids.
func (s *Store) GetQuestion(ctx context.Context, id string) (*quiz.Question, error) {
	row, err := s.queries.GetQuestion(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %q: %w", id, quiz.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get question %q: %w", id, err)
	}
	return row.toQuestion()
}

// ListQuestions returns the whole question catalog ordered by id.
func (s *Store) ListQuestions(ctx context.Context) ([]quiz.Question, error) {
	rows, err := s.queries.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	questions := make([]quiz.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.toQuestion()
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]quiz.Course, error) {
	rows, err := s.queries.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	courses := make([]quiz.Course, 0, len(rows))
	for _, row := range rows {
		ids := row.AssociatedProfessionIDs
		if ids == nil {
			ids = []string{}
		}
		courses = append(courses, quiz.Course{
			ID:                      row.ID,
			Title:                   row.Title,
			Description:             row.Description,
			Provider:                row.Provider,
			URL:                     row.URL,
			AssociatedProfessionIDs: ids,
		})
	}
	return courses, nil
}

// SaveResult replaces the stored result of the user and returns the
// server-assigned timestamp.
func (s *Store) SaveResult(ctx context.Context, userID string, result quiz.Result) (time.Time, error) {
	courses := result.SuitableCourses
	if courses == nil {
		courses = []quiz.Course{}
	}
	encoded, err := json.Marshal(courses)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode suitable courses: %w", err)
	}

	ids := result.ProfessionIDs
	if ids == nil {
		ids = []string{}
	}

	updatedAt, err := s.queries.UpsertResult(ctx, UpsertResultParams{
		UserID:               userID,
		CareerRecommendation: result.CareerRecommendation,
		ProfessionIDs:        ids,
		SuitableCourses:      encoded,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("save result for %q: %w", userID, err)
	}

	s.logger.Debug("result saved", zap.String("user_id", userID), zap.Time("updated_at", updatedAt))
	return updatedAt, nil
}

// GetResult returns the latest result of the user or an error wrapping
// quiz.ErrNotFound.
func (s *Store) GetResult(ctx context.Context, userID string) (*quiz.Result, error) {
	row, err := s.queries.GetResult(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("result of %q: %w", userID, quiz.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get result of %q: %w", userID, err)
	}

	result := &quiz.Result{
		CareerRecommendation: row.CareerRecommendation,
		ProfessionIDs:        row.ProfessionIDs,
		SuitableCourses:      []quiz.Course{},
		Timestamp:            row.UpdatedAt,
	}
	if result.ProfessionIDs == nil {
		result.ProfessionIDs = []string{}
	}
	if len(row.SuitableCourses) > 0 {
		if err := json.Unmarshal(row.SuitableCourses, &result.SuitableCourses); err != nil {
			return nil, fmt.Errorf("decode suitable courses of %q: %w", userID, err)
		}
	}
	return result, nil
}

func (r questionRow) toQuestion() (*quiz.Question, error) {
	q := &quiz.Question{ID: r.ID, QuestionText: r.QuestionText}
	if len(r.Options) > 0 {
		if err := json.Unmarshal(r.Options, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %q: %w", r.ID, err)
		}
	}
	if len(r.CareerImpact) > 0 {
		if err := json.Unmarshal(r.CareerImpact, &q.CareerImpact); err != nil {
			return nil, fmt.Errorf("decode career impact of question %q: %w", r.ID, err)
		}
	}
	return q, nil
}
