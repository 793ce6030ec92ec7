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

	"github.com/dgallion1/articlepipe/internal/api"
	"github.com/dgallion1/articlepipe/internal/config"
	"github.com/dgallion1/articlepipe/internal/metrics"
	"github.com/dgallion1/articlepipe/internal/pipeline"
	"github.com/dgallion1/articlepipe/internal/store"
	"github.com/dgallion1/articlepipe/internal/supabase"
	"github.com/dgallion1/articlepipe/internal/watch"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	st, err := openStore(cfg)
	if err != nil {
		log.Error("open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, st, log)
	orch.Start(ctx)

	// Watch the content directory when configured.
	watchCtx, stopWatch := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	if cfg.ContentDir != "" {
		w := watch.New(watch.Options{
			Dir:      cfg.ContentDir,
			Debounce: cfg.WatchDebounce,
			MaxBytes: cfg.MaxUploadBytes,
			Busy:     queueFull,
		}, func(name string, data []byte) error {
			_, err := orch.SubmitFile(name, "watch", data, pipeline.JobOptions{})
			return err
		}, log)
		go func() {
			defer close(watchDone)
			if err := w.Run(watchCtx); err != nil {
				log.Error("content watcher stopped", "error", err)
			}
		}()
	} else {
		close(watchDone)
	}

	// Initialize HTTP server.
	stats := metrics.NewRenderStats(time.Hour)
	srv, err := api.NewServer(orch, stats, log, cfg)
	if err != nil {
		log.Error("init server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// The watcher submits jobs, so it stops before the queue closes.
		stopWatch()
		<-watchDone

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		st.Close()
	}()

	log.Info("starting articlepipe", "port", cfg.Port, "store", cfg.StoreBackend, "content_dir", cfg.ContentDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.StoreBackend == config.BackendSupabase {
		return supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseTable), nil
	}
	return store.OpenBolt(cfg.BoltPath)
}

func queueFull(err error) bool {
	return errors.Is(err, pipeline.ErrQueueFull)
}
