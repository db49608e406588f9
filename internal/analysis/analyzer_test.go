package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/career-quiz/internal/quiz"
)

const vetResponse = `{"careerRecommendation":"Work with animals as a veterinarian.","professionIds":["veterinarian"]}`

type testPipeline struct {
	questions   *fakeQuestions
	courses     *fakeCourses
	recommender *fakeRecommender
	results     *fakeResults
	recorder    *fakeRecorder
	analyzer    *Analyzer
}

func newTestPipeline(response string) *testPipeline {
	p := &testPipeline{
		questions:   &fakeQuestions{questions: sampleQuestions()},
		courses:     &fakeCourses{courses: sampleCourses()},
		recommender: &fakeRecommender{response: response},
		results:     &fakeResults{},
		recorder:    &fakeRecorder{},
	}
	p.build(zap.NewNop())
	return p
}

func (p *testPipeline) build(log *zap.Logger) {
	p.analyzer = New(Config{LookupConcurrency: 2}, Deps{
		Questions:   p.questions,
		Courses:     p.courses,
		Recommender: p.recommender,
		Results:     p.results,
		Logger:      log,
		Recorder:    p.recorder,
	})
}

func validAnswers() []quiz.SubmittedAnswer {
	return []quiz.SubmittedAnswer{
		{QuestionID: "q1", SelectedOptionID: "b"},
		{QuestionID: "q2", SelectedOptionID: "yes"},
	}
}

func TestAnalyze(t *testing.T) {
	p := newTestPipeline(vetResponse)

	result, err := p.analyzer.Analyze(context.Background(), "user-1", validAnswers())
	require.NoError(t, err)

	assert.Equal(t, "Work with animals as a veterinarian.", result.CareerRecommendation)
	assert.Equal(t, []string{"veterinarian"}, result.ProfessionIDs)
	require.Len(t, result.SuitableCourses, 1)
	assert.Equal(t, "c3", result.SuitableCourses[0].ID)
	assert.Equal(t, p.results.now, result.Timestamp)

	saved, ok := p.results.results["user-1"]
	require.True(t, ok)
	assert.Equal(t, result.CareerRecommendation, saved.CareerRecommendation)
	assert.Equal(t, result.SuitableCourses, saved.SuitableCourses)

	assert.Contains(t, p.recommender.lastPrompt, "Do you like working with animals?")
	assert.Equal(t, []string{StageResolve, StagePrompt, StageRecommend, StageParse, StageCourses, StageMatch, StagePersist}, p.recorder.stages)
	assert.Equal(t, []Kind{""}, p.recorder.outcomes)
}

func TestAnalyzeOverwritesPreviousResult(t *testing.T) {
	p := newTestPipeline(vetResponse)

	_, err := p.analyzer.Analyze(context.Background(), "user-1", validAnswers())
	require.NoError(t, err)

	p.recommender.response = `{"careerRecommendation":"Write code.","professionIds":["software_engineer"]}`
	_, err = p.analyzer.Analyze(context.Background(), "user-1", validAnswers())
	require.NoError(t, err)

	require.Len(t, p.results.results, 1)
	assert.Equal(t, "Write code.", p.results.results["user-1"].CareerRecommendation)
	assert.Equal(t, 2, p.results.calls)
}

func TestAnalyzeUnresolvedAnswersStillProducePrompt(t *testing.T) {
	p := newTestPipeline(vetResponse)

	result, err := p.analyzer.Analyze(context.Background(), "user-1", []quiz.SubmittedAnswer{
		{QuestionID: "ghost", SelectedOptionID: "a"},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 1, p.recommender.calls)
	assert.Contains(t, p.recommender.lastPrompt, `Question "ghost" was not found`)
	assert.Equal(t, 1, p.recorder.diagnostics)
}

func TestAnalyzeInvalidRequest(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		answers []quiz.SubmittedAnswer
	}{
		{name: "no answers", userID: "user-1"},
		{name: "empty answers", userID: "user-1", answers: []quiz.SubmittedAnswer{}},
		{name: "no user", userID: "  ", answers: validAnswers()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(vetResponse)

			result, err := p.analyzer.Analyze(context.Background(), tt.userID, tt.answers)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, KindInvalidRequest, KindOf(err))

			assert.Zero(t, p.questions.calls.Load())
			assert.Zero(t, p.recommender.calls)
			assert.Zero(t, p.courses.calls)
			assert.Zero(t, p.results.calls)
		})
	}
}

func TestAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(p *testPipeline)
		kind        Kind
		message     string
		courseCalls int
	}{
		{
			name:    "upstream failure",
			setup:   func(p *testPipeline) { p.recommender.err = errors.New("503 unavailable") },
			kind:    KindUpstreamAI,
			message: "AI recommendation request failed",
		},
		{
			name: "upstream timeout",
			setup: func(p *testPipeline) {
				p.recommender.err = fmt.Errorf("generate content: %w", context.DeadlineExceeded)
			},
			kind:    KindUpstreamAI,
			message: "AI recommendation request timed out",
		},
		{
			name:    "malformed output",
			setup:   func(p *testPipeline) { p.recommender.response = "not json" },
			kind:    KindMalformedAIOutput,
			message: "AI response is not valid JSON",
		},
		{
			name:        "course lookup failure",
			setup:       func(p *testPipeline) { p.courses.err = errors.New("connection refused") },
			kind:        KindCourseLookup,
			message:     "failed to load the course catalog",
			courseCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(vetResponse)
			tt.setup(p)

			result, err := p.analyzer.Analyze(context.Background(), "user-1", validAnswers())
			require.Error(t, err)
			assert.Nil(t, result)

			var pipelineErr *Error
			require.ErrorAs(t, err, &pipelineErr)
			assert.Equal(t, tt.kind, pipelineErr.Kind)
			assert.Equal(t, tt.message, pipelineErr.Message)

			assert.Equal(t, tt.courseCalls, p.courses.calls)
			assert.Zero(t, p.results.calls, "nothing is saved after a failed stage")
			assert.Empty(t, p.results.results)
			assert.Equal(t, []Kind{tt.kind}, p.recorder.outcomes)
		})
	}
}

func TestAnalyzeMalformedKeepsRawResponse(t *testing.T) {
	p := newTestPipeline("Sorry, I cannot help with that.")

	_, err := p.analyzer.Analyze(context.Background(), "user-1", validAnswers())

	var pipelineErr *Error
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, "Sorry, I cannot help with that.", pipelineErr.Raw)
}

func TestAnalyzePersistenceFailure(t *testing.T) {
	p := newTestPipeline(vetResponse)
	p.results.err = errors.New("disk full")

	result, err := p.analyzer.Analyze(context.Background(), "user-1", validAnswers())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, p.results.calls)
}

func TestAnalyzeLogsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := newTestPipeline(vetResponse)
	p.build(zap.New(core))

	ctx := WithRequestID(context.Background(), "req-42")
	_, err := p.analyzer.Analyze(ctx, "user-1", validAnswers())
	require.NoError(t, err)

	entries := logs.FilterMessage("analysis completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "user-1", fields["user_id"])
}

func TestAnalyzeSchemaIssuesAreNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := newTestPipeline(`{"careerRecommendation":"Keep exploring."}`)
	p.build(zap.New(core))

	result, err := p.analyzer.Analyze(context.Background(), "user-1", validAnswers())
	require.NoError(t, err)

	assert.Empty(t, result.ProfessionIDs)
	assert.Empty(t, result.SuitableCourses)
	assert.NotNil(t, result.SuitableCourses)
	assert.Equal(t, 1, logs.FilterMessage("recommendation response does not fully match the schema").Len())
}
