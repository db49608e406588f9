// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/career-quiz/internal/auth"
	"github.com/spigell/career-quiz/internal/quiz"
)

const (
	RouteAnalyze = "/api/quiz/analyze"
	RouteResult  = "/api/quiz/result"
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	defaultAddr         = ":8080"
	defaultMaxBodyBytes = 1 << 20
)

type Analyzer interface {
	Analyze(ctx context.Context, userID string, answers []quiz.SubmittedAnswer) (*quiz.Result, error)
}

type ResultReader interface {
	GetResult(ctx context.Context, userID string) (*quiz.Result, error)
}

// Pinger is a dependency checked by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RequestObserver interface {
	ObserveRequest(route, code string)
}

type Config struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	MaxBodyBytes    int64         `mapstructure:"max-body-bytes"`
}

type Deps struct {
	Analyzer Analyzer
	Results  ResultReader
	Verifier auth.Verifier
	Checks   map[string]Pinger
	Observer RequestObserver
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type Server struct {
	cfg      Config
	analyzer Analyzer
	results  ResultReader
	checks   map[string]Pinger
	observer RequestObserver
	logger   *zap.Logger
	handler  http.Handler
}

func New(cfg Config, deps Deps) *Server {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		analyzer: deps.Analyzer,
		results:  deps.Results,
		checks:   deps.Checks,
		observer: deps.Observer,
		logger:   log,
	}

	authenticated := auth.Middleware(deps.Verifier, log)

	mux := http.NewServeMux()
	mux.Handle("POST "+RouteAnalyze, s.instrument(RouteAnalyze, authenticated(http.HandlerFunc(s.handleAnalyze))))
	mux.Handle("GET "+RouteResult, s.instrument(RouteResult, authenticated(http.HandlerFunc(s.handleResult))))
	mux.Handle("GET "+RouteHealth, s.instrument(RouteHealth, http.HandlerFunc(s.handleHealth)))
	if deps.Gatherer != nil {
		mux.Handle("GET "+RouteMetrics, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	s.handler = withRequestID(mux)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
