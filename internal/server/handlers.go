package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/career-quiz/internal/analysis"
	"github.com/spigell/career-quiz/internal/auth"
	"github.com/spigell/career-quiz/internal/logger"
	"github.com/spigell/career-quiz/internal/quiz"
)

const headerRequestID = "X-Request-ID"

type analyzeResponse struct {
	CareerRecommendation string        `json:"careerRecommendation"`
	ProfessionIDs        []string      `json:"professionIds"`
	SuitableCourses      []quiz.Course `json:"suitableCourses"`
}

type errorResponse struct {
	Message     string `json:"message"`
	Error       string `json:"error,omitempty"`
	RawResponse string `json:"rawResponse,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request body", Error: err.Error()})
		return
	}

	answers, err := analysis.DecodeAnswers(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), auth.UserIDFromContext(r.Context()), answers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		CareerRecommendation: result.CareerRecommendation,
		ProfessionIDs:        result.ProfessionIDs,
		SuitableCourses:      result.SuitableCourses,
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.results.GetResult(r.Context(), auth.UserIDFromContext(r.Context()))
	if errors.Is(err, quiz.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "No quiz result found"})
		return
	}
	if err != nil {
		s.logger.Error("reading result failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Failed to read the quiz result", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		s.logger.Warn("health check failed", zap.Any("checks", failed))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var pipelineErr *analysis.Error
	if !errors.As(err, &pipelineErr) {
		s.logger.Error("unexpected error", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error", Error: err.Error()})
		return
	}

	resp := errorResponse{Message: pipelineErr.Message, Error: detail(pipelineErr)}
	status := http.StatusInternalServerError

	switch pipelineErr.Kind {
	case analysis.KindInvalidRequest:
		status = http.StatusBadRequest
		resp.Message = "Invalid request body"
		resp.Error = pipelineErr.Message
	case analysis.KindMalformedAIOutput:
		resp.RawResponse = pipelineErr.Raw
	}

	writeJSON(w, status, resp)
}

func detail(err *analysis.Error) string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(analysis.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if s.observer != nil {
			s.observer.ObserveRequest(route, strconv.Itoa(rec.status))
		}
		s.logger.Info("request served",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(started)),
			zap.String(logger.FieldRequestID, analysis.RequestIDFromContext(r.Context())),
		)
	})
}
