// Package config loads pipeline configuration from file, environment, and .env.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Feeds     Feeds     `mapstructure:"feeds"`
	Scoring   Scoring   `mapstructure:"scoring"`
	Cluster   Cluster   `mapstructure:"cluster"`
	FullText  FullText  `mapstructure:"fulltext"`
	Publish   Publish   `mapstructure:"publish"`
	Cycle     Cycle     `mapstructure:"cycle"`
	LLM       LLM       `mapstructure:"llm"`
	Database  Database  `mapstructure:"database"`
	Server    Server    `mapstructure:"server"`
}

// Feeds holds feed fetcher configuration.
type Feeds struct {
	Workers      int           `mapstructure:"workers"`       // FEED_WORKERS
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"` // FETCH_TIMEOUT_S
	MaxPerFeed   int           `mapstructure:"max_per_feed"`  // Newest entries taken per feed
	UserAgent    string        `mapstructure:"user_agent"`
}

// Scoring holds admission scorer configuration.
type Scoring struct {
	Contract  string `mapstructure:"contract"`   // ADMISSION_CONTRACT: "A" (0-100) or "B" (0-1000)
	Threshold int    `mapstructure:"threshold"`  // SCORE_THRESHOLD
	BatchSize int    `mapstructure:"batch_size"` // SCORE_BATCH_SIZE
}

// Cluster holds clustering engine configuration.
type Cluster struct {
	THigh     float64       `mapstructure:"t_high"`     // CLUSTER_T_HIGH
	TMid      float64       `mapstructure:"t_mid"`      // CLUSTER_T_MID
	Jaccard   float64       `mapstructure:"jaccard"`    // CLUSTER_JACCARD
	IdleHours time.Duration `mapstructure:"idle_hours"` // CLUSTER_IDLE_HOURS
	MaxHours  time.Duration `mapstructure:"max_hours"`  // CLUSTER_MAX_HOURS
}

// FullText holds full-text fetcher configuration.
type FullText struct {
	Workers      int    `mapstructure:"workers"`
	ProxyURL     string `mapstructure:"proxy_url"`      // PROXY_URL, optional unlocker endpoint
	ReaderAPIURL string `mapstructure:"reader_api_url"` // READER_API_URL, fallback cleaner
	ReaderAPIKey string `mapstructure:"reader_api_key"`
}

// Publish holds publisher and revision configuration.
type Publish struct {
	MinSources  int           `mapstructure:"min_sources"`
	HighScore   int           `mapstructure:"high_score"`   // UPDATE_HIGH_SCORE
	SourceDelta int           `mapstructure:"source_delta"` // UPDATE_SOURCE_DELTA
	Cooldown    time.Duration `mapstructure:"cooldown"`     // UPDATE_COOLDOWN_MIN
}

// Cycle holds orchestration-level configuration.
type Cycle struct {
	Deadline    time.Duration `mapstructure:"deadline"`     // CYCLE_DEADLINE_MIN
	LockTimeout time.Duration `mapstructure:"lock_timeout"` // RUN_LOCK_TIMEOUT_MIN
}

// LLM holds Gemini configuration for generation and embeddings.
type LLM struct {
	APIKey         string  `mapstructure:"api_key"` // GEMINI_API_KEY
	Model          string  `mapstructure:"model"`
	GroundedModel  string  `mapstructure:"grounded_model"` // Search-capable model for enrichment
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Temperature    float32 `mapstructure:"temperature"`
	MaxRetries     int     `mapstructure:"max_retries"`
	RequestsPerMin int     `mapstructure:"requests_per_min"`
	MaxConcurrent  int     `mapstructure:"max_concurrent"`
}

// Database holds store configuration.
type Database struct {
	URL string `mapstructure:"url"` // DATABASE_URL
}

// Server holds HTTP trigger server configuration.
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newsmesh")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the cached configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

func setDefaults() {
	viper.SetDefault("feeds.workers", 30)
	viper.SetDefault("feeds.fetch_timeout", 10*time.Second)
	viper.SetDefault("feeds.max_per_feed", 10)
	viper.SetDefault("feeds.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")

	viper.SetDefault("scoring.contract", "A")
	viper.SetDefault("scoring.threshold", 0) // Resolved per contract when unset
	viper.SetDefault("scoring.batch_size", 30)

	viper.SetDefault("cluster.t_high", 0.87)
	viper.SetDefault("cluster.t_mid", 0.78)
	viper.SetDefault("cluster.jaccard", 0.35)
	viper.SetDefault("cluster.idle_hours", 24*time.Hour)
	viper.SetDefault("cluster.max_hours", 48*time.Hour)

	viper.SetDefault("fulltext.workers", 8)

	viper.SetDefault("publish.min_sources", 1)
	viper.SetDefault("publish.high_score", 0) // Resolved per contract when unset
	viper.SetDefault("publish.source_delta", 4)
	viper.SetDefault("publish.cooldown", 30*time.Minute)

	viper.SetDefault("cycle.deadline", 30*time.Minute)
	viper.SetDefault("cycle.lock_timeout", 30*time.Minute)

	viper.SetDefault("llm.model", "gemini-flash-lite-latest")
	viper.SetDefault("llm.grounded_model", "gemini-flash-latest")
	viper.SetDefault("llm.embedding_model", "gemini-embedding-001")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("llm.requests_per_min", 60)
	viper.SetDefault("llm.max_concurrent", 8)

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdown_timeout", 15*time.Second)
}

// bindEnvironmentVariables maps the deployment environment surface onto config keys.
func bindEnvironmentVariables() {
	envBindings := map[string]string{
		"feeds.workers":        "FEED_WORKERS",
		"feeds.fetch_timeout":  "FETCH_TIMEOUT_S",
		"scoring.batch_size":   "SCORE_BATCH_SIZE",
		"scoring.threshold":    "SCORE_THRESHOLD",
		"scoring.contract":     "ADMISSION_CONTRACT",
		"cluster.t_high":       "CLUSTER_T_HIGH",
		"cluster.t_mid":        "CLUSTER_T_MID",
		"cluster.jaccard":      "CLUSTER_JACCARD",
		"cluster.idle_hours":   "CLUSTER_IDLE_HOURS",
		"cluster.max_hours":    "CLUSTER_MAX_HOURS",
		"publish.high_score":   "UPDATE_HIGH_SCORE",
		"publish.source_delta": "UPDATE_SOURCE_DELTA",
		"publish.cooldown":     "UPDATE_COOLDOWN_MIN",
		"cycle.lock_timeout":   "RUN_LOCK_TIMEOUT_MIN",
		"cycle.deadline":       "CYCLE_DEADLINE_MIN",
		"database.url":            "DATABASE_URL",
		"llm.api_key":             "GEMINI_API_KEY",
		"fulltext.proxy_url":      "PROXY_URL",
		"fulltext.reader_api_url": "READER_API_URL",
		"fulltext.reader_api_key": "READER_API_KEY",
	}
	for key, env := range envBindings {
		_ = viper.BindEnv(key, env)
	}

	// Duration-style env values arrive as bare numbers in deployment units.
	if v := os.Getenv("FETCH_TIMEOUT_S"); v != "" && !strings.ContainsAny(v, "smh") {
		viper.Set("feeds.fetch_timeout", v+"s")
	}
	for _, b := range []struct{ key, env, unit string }{
		{"cluster.idle_hours", "CLUSTER_IDLE_HOURS", "h"},
		{"cluster.max_hours", "CLUSTER_MAX_HOURS", "h"},
		{"publish.cooldown", "UPDATE_COOLDOWN_MIN", "m"},
		{"cycle.lock_timeout", "RUN_LOCK_TIMEOUT_MIN", "m"},
		{"cycle.deadline", "CYCLE_DEADLINE_MIN", "m"},
	} {
		if v := os.Getenv(b.env); v != "" && !strings.ContainsAny(v, "smh") {
			viper.Set(b.key, v+b.unit)
		}
	}
}

func validateConfig(config *Config) error {
	switch strings.ToUpper(config.Scoring.Contract) {
	case "A":
		config.Scoring.Contract = "A"
		if config.Scoring.Threshold == 0 {
			config.Scoring.Threshold = 70
		}
		if config.Scoring.Threshold < 0 || config.Scoring.Threshold > 100 {
			return fmt.Errorf("scoring threshold %d out of range for contract A (0-100)", config.Scoring.Threshold)
		}
		if config.Publish.HighScore == 0 {
			config.Publish.HighScore = 85
		}
	case "B":
		config.Scoring.Contract = "B"
		if config.Scoring.Threshold == 0 {
			config.Scoring.Threshold = 700
		}
		if config.Scoring.Threshold < 0 || config.Scoring.Threshold > 1000 {
			return fmt.Errorf("scoring threshold %d out of range for contract B (0-1000)", config.Scoring.Threshold)
		}
		if config.Publish.HighScore == 0 {
			config.Publish.HighScore = 850
		}
	default:
		return fmt.Errorf("unknown admission contract %q (expected A or B)", config.Scoring.Contract)
	}

	if config.Cluster.TMid > config.Cluster.THigh {
		return fmt.Errorf("cluster.t_mid (%.2f) must not exceed cluster.t_high (%.2f)", config.Cluster.TMid, config.Cluster.THigh)
	}
	if config.Feeds.Workers < 1 {
		return fmt.Errorf("feeds.workers must be at least 1")
	}
	return nil
}
