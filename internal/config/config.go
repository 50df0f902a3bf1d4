package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	RulesBackendJSON     = "json"
	RulesBackendSQLite   = "sqlite"
	RulesBackendPostgres = "postgres"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Port        string `env:"PORT" envDefault:"8080"`

	LLMGatewayURL         string        `env:"LLM_GATEWAY_URL" envDefault:"https://api.deepseek.com/chat/completions"`
	LLMAPIKey             string        `env:"LLM_API_KEY"`
	LLMModel              string        `env:"LLM_MODEL" envDefault:"deepseek-chat"`
	LLMTimeout            time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	LLMMaxAttempts        int           `env:"LLM_MAX_ATTEMPTS" envDefault:"3"`
	LLMBackoffInitial     time.Duration `env:"LLM_BACKOFF_INITIAL" envDefault:"500ms"`
	LLMMaxTranscriptChars int           `env:"LLM_MAX_TRANSCRIPT_CHARS" envDefault:"100000"`
	LLMTemperature        float64       `env:"LLM_TEMPERATURE" envDefault:"0.1"`
	UseMockLLM            bool          `env:"USE_MOCK_LLM" envDefault:"false"`

	RuleWeight        float64 `env:"RULE_WEIGHT" envDefault:"0.4"`
	RemoteWeight      float64 `env:"REMOTE_WEIGHT" envDefault:"0.6"`
	ScorerProfilePath string  `env:"SCORER_PROFILE_PATH"`

	RulesBackend    string `env:"RULES_BACKEND" envDefault:"json"`
	RulesPath       string `env:"RULES_PATH" envDefault:"data/terminology_dictionary.json"`
	RulesSQLitePath string `env:"RULES_SQLITE_PATH" envDefault:"data/terminology.db"`
	DatabaseURL     string `env:"DATABASE_URL"`
	RulesWatch      bool   `env:"RULES_WATCH" envDefault:"false"`

	ResultCacheSize  int    `env:"RESULT_CACHE_SIZE" envDefault:"500"`
	BatchConcurrency int    `env:"BATCH_CONCURRENCY" envDefault:"4"`
	DefaultSubject   string `env:"DEFAULT_SUBJECT" envDefault:"客户"`

	TranscribeURL     string        `env:"TRANSCRIBE_URL"`
	TranscribeTimeout time.Duration `env:"TRANSCRIBE_TIMEOUT" envDefault:"12s"`
	UseMockTranscribe bool          `env:"USE_MOCK_TRANSCRIBE" envDefault:"false"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !c.UseMockLLM && c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required unless USE_MOCK_LLM=true")
	}
	if c.LLMMaxAttempts < 1 {
		return fmt.Errorf("LLM_MAX_ATTEMPTS must be at least 1, got %d", c.LLMMaxAttempts)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLMTimeout)
	}
	if c.RuleWeight < 0 || c.RemoteWeight < 0 {
		return fmt.Errorf("RULE_WEIGHT and REMOTE_WEIGHT must be non-negative")
	}
	switch c.RulesBackend {
	case RulesBackendJSON, RulesBackendSQLite:
	case RulesBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when RULES_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("RULES_BACKEND must be one of json, sqlite, postgres, got %q", c.RulesBackend)
	}
	if c.TranscribeTimeout < 0 {
		return fmt.Errorf("TRANSCRIBE_TIMEOUT must not be negative, got %s", c.TranscribeTimeout)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1, got %d", c.BatchConcurrency)
	}
	return nil
}

func (c *Config) IsLocal() bool {
	return c.Environment == "" || c.Environment == "local"
}
