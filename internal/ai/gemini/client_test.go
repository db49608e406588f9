package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []modelsCallRecord
	resp  *genai.GenerateContentResponse
	err   error
	block bool
}

type modelsCallRecord struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, modelsCallRecord{model: model, contents: contents, config: config})
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.resp, f.err
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGeneratorSendsSchemaConstraint(t *testing.T) {
	models := &fakeModels{resp: textResponse(`{"careerRecommendation":"Be a vet","professionIds":["veterinarian"]}`)}
	g := newGenerator(models, "gemini-pro", time.Second, zap.NewNop())

	output, err := g.GenerateJSON(context.Background(), "  prompt  ", ResponseSchema())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != `{"careerRecommendation":"Be a vet","professionIds":["veterinarian"]}` {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}

	call := models.calls[0]
	if call.model != "gemini-pro" {
		t.Fatalf("unexpected model: %q", call.model)
	}
	if call.config == nil || call.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %+v", call.config)
	}

	schema := call.config.ResponseSchema
	if schema == nil || schema.Type != genai.TypeObject {
		t.Fatalf("expected object schema, got %+v", schema)
	}
	if len(schema.PropertyOrdering) != 2 || schema.PropertyOrdering[0] != "careerRecommendation" || schema.PropertyOrdering[1] != "professionIds" {
		t.Fatalf("unexpected property ordering: %v", schema.PropertyOrdering)
	}
	if schema.Properties["professionIds"].Items.Type != genai.TypeString {
		t.Fatalf("expected string items for professionIds")
	}

	if got := call.contents[0].Parts[0].Text; got != "prompt" {
		t.Fatalf("unexpected prompt sent: %q", got)
	}
}

func TestGeneratorDoesNotRetryOnError(t *testing.T) {
	models := &fakeModels{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}}
	g := newGenerator(models, "gemini-pro", time.Second, zap.NewNop())

	_, err := g.GenerateJSON(context.Background(), "prompt", ResponseSchema())
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected wrapped api error, got %v", err)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorTimeout(t *testing.T) {
	models := &fakeModels{block: true}
	g := newGenerator(models, "gemini-pro", 20*time.Millisecond, zap.NewNop())

	_, err := g.GenerateJSON(context.Background(), "prompt", ResponseSchema())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{resp: textResponse("   ")}
	g := newGenerator(models, "", 0, nil)

	if g.Model() != defaultModel {
		t.Fatalf("expected default model, got %q", g.Model())
	}

	if _, err := g.GenerateJSON(context.Background(), "prompt", ResponseSchema()); err == nil {
		t.Fatal("expected error on empty response")
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	models := &fakeModels{resp: textResponse("{}")}
	g := newGenerator(models, "gemini-pro", time.Second, zap.NewNop())

	if _, err := g.GenerateJSON(context.Background(), " \n ", ResponseSchema()); err == nil {
		t.Fatal("expected error on empty prompt")
	}
	if len(models.calls) != 0 {
		t.Fatalf("expected no calls, got %d", len(models.calls))
	}
}
