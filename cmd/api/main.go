package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/do/v2"
	"sales-intent-go/internal/app"
	"sales-intent-go/internal/config"
	"sales-intent-go/internal/logger"
	"sales-intent-go/internal/processor"
	"sales-intent-go/internal/terminology"
)

func main() {
	_ = godotenv.Load() // loads .env

	cfg, err := config.Load()
	if err != nil {
		logger.New().WithError(err).Fatal("config validation failed")
	}
	logger.Configure(cfg.Environment, cfg.LogLevel)
	log := logger.New()
	log.WithField("service", "sales-intent-go").WithField("rules_backend", cfg.RulesBackend).Info("starting service")

	injector := app.New(cfg)
	defer app.Close(injector)

	proc, err := do.Invoke[*processor.Processor](injector)
	if err != nil {
		log.WithError(err).Fatal("failed to build processor")
	}
	store := do.MustInvoke[*terminology.Store](injector)
	log.WithField("rules", store.Snapshot().Len()).Info("terminology loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RulesWatch {
		fp, ok := do.MustInvoke[terminology.Persister](injector).(*terminology.FilePersister)
		if !ok {
			log.Warn("RULES_WATCH only applies to the json backend, ignoring")
		} else if err := terminology.Watch(ctx, store, fp); err != nil {
			log.WithError(err).Fatal("failed to watch dictionary")
		}
	}

	s := &server{proc: proc, store: store}
	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
	<-drained
}
