package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mvbarbosa/docpipe/internal/analyze"
	"github.com/mvbarbosa/docpipe/internal/api"
	"github.com/mvbarbosa/docpipe/internal/config"
	"github.com/mvbarbosa/docpipe/internal/deliver"
	"github.com/mvbarbosa/docpipe/internal/engine"
	"github.com/mvbarbosa/docpipe/internal/extract"
	"github.com/mvbarbosa/docpipe/internal/logger"
	"github.com/mvbarbosa/docpipe/internal/payload"
	"github.com/mvbarbosa/docpipe/internal/provider"
	"github.com/mvbarbosa/docpipe/internal/retry"
	"github.com/mvbarbosa/docpipe/internal/store"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	providerCfgs, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	st, err := store.New(db, log, retry.Policy{MaxRetries: cfg.MaxRetries})
	if err != nil {
		return err
	}

	log.Info("configuration loaded",
		"db_driver", cfg.DatabaseDriver,
		"max_retries", cfg.MaxRetries,
		"providers_file", cfg.ProvidersFile,
		"webhook_url", cfg.WebhookURL)

	httpClient := provider.DefaultHTTPClient()
	tasks := make([]analyze.Task, 0, len(providerCfgs))
	for _, pc := range providerCfgs {
		p, err := provider.New(pc, httpClient)
		if err != nil {
			return err
		}
		tasks = append(tasks, analyze.Task{Provider: p, PromptFile: pc.PromptFile})
		log.Info("provider configured", "name", pc.Name, "kind", pc.Kind, "model", pc.Model)
	}

	orch, err := analyze.NewOrchestrator(log, extract.NewAuto(), tasks, cfg.MaxTextChars)
	if err != nil {
		return err
	}

	vault := payload.NewVault()
	webhook := deliver.NewWebhook(cfg.WebhookURL, nil, log)

	eng := engine.New(log, st, vault, orch, webhook, engine.Config{
		PollInterval:        cfg.PollInterval,
		IdlePollInterval:    cfg.IdlePollInterval,
		IdleThreshold:       cfg.IdleThreshold,
		JobTimeout:          cfg.JobTimeout,
		DispatchInterval:    cfg.DispatchInterval,
		DispatchMaxInterval: cfg.DispatchMaxInterval,
		ReapSchedule:        cfg.ReapSchedule,
		RetentionAge:        cfg.RetentionAge,
		MaxResultChars:      cfg.MaxResultChars,
	})
	if err := eng.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewRouter(api.NewHandler(eng)),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		log.Error("http server failed", "error", err)
	}

	// Stop accepting new documents first, then let in-flight jobs settle.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	eng.Stop()

	log.Info("shutdown complete")
	return nil
}
