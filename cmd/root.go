package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/career-quiz/internal/storage/cache"
	"github.com/spigell/career-quiz/internal/storage/postgres"
	"github.com/spigell/career-quiz/internal/server"
)

const (
	app       = "career-quiz"
	envPrefix = "CAREER_QUIZ"
)

type Config struct {
	AI       *AIConfig       `mapstructure:"ai"`
	Database *DatabaseConfig `mapstructure:"database"`
	Redis    cache.Config    `mapstructure:"redis"`
	Server   server.Config   `mapstructure:"server"`
	Auth     *AuthConfig     `mapstructure:"auth"`
	Analysis *AnalysisConfig `mapstructure:"analysis"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

type DatabaseConfig struct {
	postgres.Config `mapstructure:",squash"`
	DSNFile         string `mapstructure:"dsn-file"`
}

type AuthConfig struct {
	Tokens []TokenBinding `mapstructure:"tokens"`
}

// TokenBinding authenticates one bearer token as one user. A list is used
// because viper lowercases map keys.
type TokenBinding struct {
	Token  string `mapstructure:"token"`
	UserID string `mapstructure:"user-id"`
}

func (c *AuthConfig) TokenMap() map[string]string {
	tokens := make(map[string]string, len(c.Tokens))
	for _, binding := range c.Tokens {
		tokens[binding.Token] = binding.UserID
	}
	return tokens
}

type AnalysisConfig struct {
	Professions       []string `mapstructure:"professions"`
	LookupConcurrency int      `mapstructure:"lookup-concurrency"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-quiz analyzes career quiz answers with Gemini and suggests matching courses",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-quiz.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every key so environment variables can override
// values absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.timeout", 20*time.Second)
	v.SetDefault("ai.gemini.max-log-length", 200)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.dsn-file", "")
	v.SetDefault("database.max-open-conns", 10)
	v.SetDefault("database.max-idle-conns", 5)
	v.SetDefault("database.conn-max-lifetime", 5*time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", cache.DefaultTTL)
	v.SetDefault("redis.prefix", cache.DefaultPrefix)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read-timeout", 10*time.Second)
	v.SetDefault("server.write-timeout", 60*time.Second)
	v.SetDefault("server.shutdown-timeout", 15*time.Second)
	v.SetDefault("server.max-body-bytes", 1<<20)

	v.SetDefault("analysis.lookup-concurrency", 8)
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// An explicit config file must be readable; the default one is optional.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Database == nil {
		config.Database = &DatabaseConfig{}
	}
	if config.Auth == nil {
		config.Auth = &AuthConfig{}
	}
	if config.Analysis == nil {
		config.Analysis = &AnalysisConfig{}
	}

	return config, nil
}
