package gemini

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	lastSchema *genai.Schema
}

func (s *stubGenerator) GenerateJSON(_ context.Context, prompt string, schema *genai.Schema) (string, error) {
	s.lastPrompt = prompt
	s.lastSchema = schema
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestRecommenderReturnsRawResponse(t *testing.T) {
	stub := &stubGenerator{response: `{"careerRecommendation":"Be a vet","professionIds":["veterinarian"]}`}
	core, observed := observer.New(zapcore.DebugLevel)
	r := NewRecommender(stub, zap.New(core), 10)

	raw, err := r.Recommend(context.Background(), "Answer the quiz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw != stub.response {
		t.Fatalf("unexpected raw response: %q", raw)
	}

	if stub.lastPrompt != "Answer the quiz" {
		t.Fatalf("unexpected prompt: %q", stub.lastPrompt)
	}

	if stub.lastSchema == nil || len(stub.lastSchema.Properties) != 2 {
		t.Fatalf("expected response schema with two properties, got %+v", stub.lastSchema)
	}

	entries := observed.FilterMessage("gemini generate content request").All()
	if len(entries) != 1 {
		t.Fatalf("expected request log entry, got %d", len(entries))
	}
	if preview := entries[0].ContextMap()["prompt_preview"]; preview != "Answer the..." {
		t.Fatalf("expected truncated preview, got %q", preview)
	}
}

func TestRecommenderPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	r := NewRecommender(&stubGenerator{err: wantErr}, nil, 0)

	_, err := r.Recommend(context.Background(), "prompt")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}
