// Package app builds the dependency graph shared by the api and intentctl
// binaries.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/do/v2"
	"sales-intent-go/internal/cache"
	"sales-intent-go/internal/config"
	"sales-intent-go/internal/extractor"
	"sales-intent-go/internal/logger"
	"sales-intent-go/internal/pipeline"
	"sales-intent-go/internal/processor"
	"sales-intent-go/internal/scoring"
	"sales-intent-go/internal/terminology"
	"sales-intent-go/internal/transcription"
)

const storeInitTimeout = 15 * time.Second

// New registers every provider. Services are built lazily on first Invoke.
func New(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	registerTerminology(injector)
	registerScoring(injector)
	registerProcessing(injector)

	return injector
}

func registerTerminology(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (terminology.Persister, error) {
		cfg := do.MustInvoke[*config.Config](i)
		switch cfg.RulesBackend {
		case config.RulesBackendSQLite:
			if err := os.MkdirAll(filepath.Dir(cfg.RulesSQLitePath), 0o755); err != nil {
				return nil, err
			}
			return terminology.OpenSQLitePersister(cfg.RulesSQLitePath)
		case config.RulesBackendPostgres:
			return terminology.OpenPostgresPersister(cfg.DatabaseURL)
		default:
			return terminology.NewFilePersister(cfg.RulesPath), nil
		}
	})

	do.Provide(injector, func(i do.Injector) (*terminology.Store, error) {
		p := do.MustInvoke[terminology.Persister](i)
		ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
		defer cancel()
		return terminology.Open(ctx, p)
	})
}

func registerScoring(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*scoring.RuleScorer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		profile, err := scoring.LoadProfile(cfg.ScorerProfilePath)
		if err != nil {
			return nil, err
		}
		return scoring.NewRuleScorer(profile)
	})

	do.Provide(injector, func(i do.Injector) (extractor.Completer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.UseMockLLM {
			log := logger.Component("app").WithField("environment", cfg.Environment)
			if cfg.IsLocal() {
				log.Info("USE_MOCK_LLM=true, remote scores are canned")
			} else {
				log.Warn("USE_MOCK_LLM=true outside a local environment, remote scores are canned")
			}
			return extractor.MockCompleter{}, nil
		}
		return extractor.NewChatClient(cfg.LLMGatewayURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature), nil
	})

	do.Provide(injector, func(i do.Injector) (*extractor.Scorer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		llm := do.MustInvoke[extractor.Completer](i)
		return extractor.NewScorer(llm, extractor.Options{
			Timeout:            cfg.LLMTimeout,
			MaxAttempts:        cfg.LLMMaxAttempts,
			BackoffInitial:     cfg.LLMBackoffInitial,
			MaxTranscriptChars: cfg.LLMMaxTranscriptChars,
			Concurrency:        cfg.BatchConcurrency,
		}), nil
	})
}

func registerProcessing(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*transcription.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return transcription.NewClient(cfg.TranscribeURL, cfg.UseMockTranscribe,
			transcription.WithHTTPClient(&http.Client{Timeout: cfg.TranscribeTimeout})), nil
	})

	do.Provide(injector, func(i do.Injector) (*pipeline.Pipeline, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store, err := do.Invoke[*terminology.Store](i)
		if err != nil {
			return nil, fmt.Errorf("terminology store: %w", err)
		}
		rules, err := do.Invoke[*scoring.RuleScorer](i)
		if err != nil {
			return nil, fmt.Errorf("rule scorer: %w", err)
		}
		remote := do.MustInvoke[*extractor.Scorer](i)
		return pipeline.New(store, rules, remote, pipeline.Options{
			Weights:        scoring.Weights{Rule: cfg.RuleWeight, Remote: cfg.RemoteWeight},
			DefaultSubject: cfg.DefaultSubject,
			Concurrency:    cfg.BatchConcurrency,
		}), nil
	})

	do.Provide(injector, func(i do.Injector) (*processor.Processor, error) {
		cfg := do.MustInvoke[*config.Config](i)
		pipe, err := do.Invoke[*pipeline.Pipeline](i)
		if err != nil {
			return nil, err
		}
		fetch := do.MustInvoke[*transcription.Client](i)
		return processor.New(pipe, fetch, cache.NewLRU[string, processor.Analysis](cfg.ResultCacheSize)), nil
	})
}

// Close releases the rule database connection if one was opened.
func Close(injector do.Injector) {
	p, err := do.Invoke[terminology.Persister](injector)
	if err != nil {
		return
	}
	switch c := p.(type) {
	case *terminology.SQLitePersister:
		if err := c.Close(); err != nil {
			logger.Component("app").WithError(err).Warn("close sqlite")
		}
	case *terminology.PostgresPersister:
		c.Close()
	}
}
