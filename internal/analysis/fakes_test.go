package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spigell/career-quiz/internal/quiz"
)

type fakeQuestions struct {
	questions map[string]*quiz.Question
	errs      map[string]error
	calls     atomic.Int64
}

func (f *fakeQuestions) GetQuestion(_ context.Context, id string) (*quiz.Question, error) {
	f.calls.Add(1)
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	q, ok := f.questions[id]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	return q, nil
}

type fakeCourses struct {
	courses []quiz.Course
	err     error
	calls   int
}

func (f *fakeCourses) ListCourses(context.Context) ([]quiz.Course, error) {
	f.calls++
	return f.courses, f.err
}

type fakeRecommender struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeRecommender) Recommend(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.response, f.err
}

type fakeResults struct {
	mu      sync.Mutex
	results map[string]quiz.Result
	err     error
	calls   int
	now     time.Time
}

func (f *fakeResults) SaveResult(_ context.Context, userID string, result quiz.Result) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return time.Time{}, f.err
	}
	if f.results == nil {
		f.results = make(map[string]quiz.Result)
	}
	if f.now.IsZero() {
		f.now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	result.Timestamp = f.now
	f.results[userID] = result
	return f.now, nil
}

type fakeRecorder struct {
	stages      []string
	diagnostics int
	outcomes    []Kind
}

func (f *fakeRecorder) ObserveStage(stage string, _ time.Duration) { f.stages = append(f.stages, stage) }
func (f *fakeRecorder) ObserveDiagnostics(count int)               { f.diagnostics += count }
func (f *fakeRecorder) ObserveOutcome(kind Kind)                   { f.outcomes = append(f.outcomes, kind) }

func sampleQuestions() map[string]*quiz.Question {
	return map[string]*quiz.Question{
		"q1": {
			ID:           "q1",
			QuestionText: "Do you enjoy solving logic puzzles?",
			Options: []quiz.Option{
				{ID: "a", Text: "Very much", Value: 5},
				{ID: "b", Text: "Not at all", Value: 1},
			},
			CareerImpact: map[string]float64{"software_engineer": 0.9, "data_scientist": 0.7},
		},
		"q2": {
			ID:           "q2",
			QuestionText: "Do you like working with animals?",
			Options: []quiz.Option{
				{ID: "yes", Text: "Yes", Value: 4.5},
				{ID: "no", Text: "No", Value: 0},
			},
		},
	}
}

func sampleCourses() []quiz.Course {
	return []quiz.Course{
		{ID: "c1", Title: "Go for beginners", AssociatedProfessionIDs: []string{"software_engineer", "data_scientist"}},
		{ID: "c2", Title: "Watercolor basics", AssociatedProfessionIDs: []string{"artist"}},
		{ID: "c3", Title: "Animal care", AssociatedProfessionIDs: []string{"veterinarian"}},
		{ID: "c4", Title: "Untagged"},
	}
}
