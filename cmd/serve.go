package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/career-quiz/internal/auth"
	"github.com/spigell/career-quiz/internal/logger"
	"github.com/spigell/career-quiz/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quiz analysis HTTP API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "listen address (default is :8080)")
	serveCmd.Flags().Bool("migrate", false, "apply the database schema before serving")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if len(config.Auth.Tokens) == 0 {
		logger.Warn("no auth tokens configured, every API request will be rejected",
			zap.String("hint", "set auth.tokens in the config file"),
		)
	}

	application, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing the application", zap.Error(err))
	}
	defer application.Close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := application.store.Migrate(ctx); err != nil {
			logger.Fatal("applying the schema", zap.Error(err))
		}
	}

	checks := map[string]server.Pinger{"postgres": application.store}
	if application.redis != nil {
		checks["redis"] = redisPinger{application.redis}
	}

	srv := server.New(config.Server, server.Deps{
		Analyzer: application.analyzer,
		Results:  application.store,
		Verifier: auth.NewStaticVerifier(config.Auth.TokenMap()),
		Checks:   checks,
		Observer: application.metrics,
		Gatherer: application.registry,
		Logger:   logger.Named("http"),
	})

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
	logger.Info("stopped")
}
