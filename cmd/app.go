package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/career-quiz/internal/ai"
	"github.com/spigell/career-quiz/internal/ai/gemini"
	"github.com/spigell/career-quiz/internal/analysis"
	"github.com/spigell/career-quiz/internal/logger"
	"github.com/spigell/career-quiz/internal/metrics"
	"github.com/spigell/career-quiz/internal/secrets"
	"github.com/spigell/career-quiz/internal/storage/cache"
	"github.com/spigell/career-quiz/internal/storage/postgres"
)

// application holds the wired pipeline shared by the serve and quiz commands.
type application struct {
	config   *Config
	logger   *zap.Logger
	store    *postgres.Store
	redis    *redis.Client
	registry *prometheus.Registry
	metrics  *metrics.Pipeline
	analyzer *analysis.Analyzer
}

func openStore(cfg *DatabaseConfig, log *zap.Logger) (*postgres.Store, error) {
	dsn, err := secrets.Load(secrets.Source{
		Name:  "database dsn",
		Value: cfg.DSN,
		File:  cfg.DSNFile,
		Env:   "DATABASE_URL",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set database.dsn, database.dsn-file or DATABASE_URL)", err)
	}

	pgCfg := cfg.Config
	pgCfg.DSN = dsn
	return postgres.Open(pgCfg, log.Named("postgres"))
}

func newApplication(ctx context.Context, config *Config, log *zap.Logger) (*application, error) {
	store, err := openStore(config.Database, log)
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	a := &application{
		config:   config,
		logger:   log,
		store:    store,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.NewPipeline(a.registry)

	var questions analysis.QuestionCatalog = store
	var courses analysis.CourseCatalog = store

	if config.Redis.Addr != "" {
		rdb, err := cache.NewClient(ctx, config.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = rdb

		catalog := cache.NewCatalog(rdb, store, store, config.Redis, log.Named("cache"))
		questions = catalog
		courses = catalog
		log.Info("catalog cache enabled", zap.String("addr", config.Redis.Addr), zap.Duration("ttl", config.Redis.TTL))
	}

	recommender, err := newRecommender(ctx, config.AI, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.analyzer = analysis.New(analysis.Config{
		Professions:       config.Analysis.Professions,
		LookupConcurrency: config.Analysis.LookupConcurrency,
	}, analysis.Deps{
		Questions:   questions,
		Courses:     courses,
		Recommender: recommender,
		Results:     store,
		Logger:      log.Named("analysis"),
		Recorder:    a.metrics,
	})

	return a, nil
}

func (a *application) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing postgres", zap.Error(err))
	}
}

func newRecommender(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Recommender, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	aiLogger := logger.WithCommonFields(log, "gemini", cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.Timeout, aiLogger.With(zap.Duration("ai_timeout", cfg.Gemini.Timeout)))
	if err != nil {
		return nil, err
	}

	log.Info("ai recommender ready", zap.String("provider", "gemini"), zap.String("model", generator.Model()))
	return gemini.NewRecommender(generator, aiLogger, cfg.Gemini.MaxLogLength), nil
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
