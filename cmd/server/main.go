package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/richtext/internal/api"
	"github.com/dgallion1/richtext/internal/config"
	"github.com/dgallion1/richtext/internal/highlight"
	"github.com/dgallion1/richtext/internal/images"
	"github.com/dgallion1/richtext/internal/mathtex"
	"github.com/dgallion1/richtext/internal/measure"
	"github.com/dgallion1/richtext/internal/stats"
	"github.com/dgallion1/richtext/internal/style"
	"github.com/dgallion1/richtext/internal/uithread"
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

	theme, err := style.ThemeByName(cfg.Theme)
	if err != nil {
		log.Error("invalid theme", "error", err)
		os.Exit(1)
	}
	m, err := measure.ByName(cfg.Measurer)
	if err != nil {
		log.Error("invalid measurer", "error", err)
		os.Exit(1)
	}

	// The UI loop serializes typesetting and redraw callbacks.
	loop := uithread.New(256, log.With("component", "uithread"))

	tracker := stats.NewTracker(cfg.StatsWindow)
	typesetter := mathtex.New(mathtex.UnicodeTypesetter{}, loop, cfg.MathRenderTimeout, log.With("component", "mathtex"))
	typesetter.SetCacheSize(cfg.MathCacheSize)

	loader := images.NewLoader(images.Config{
		Workers:   cfg.ImageWorkerCount,
		QueueSize: cfg.ImageQueueSize,
		TTL:       cfg.ImageStateTTL,
		Redraw: func() {
			log.Debug("image ready, redraw requested")
		},
	}, images.DefaultFetcher(cfg.ImageFetchTimeout, cfg.ImageMaxBytes), loop, tracker, log.With("component", "images"))
	loader.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Store:       measure.NewStore(m, measure.PaintFor(theme), log.With("component", "measure")),
		Images:      loader,
		Math:        typesetter,
		Highlighter: highlight.NewChroma(theme.CodeBlock.Theme),
		Stats:       tracker,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		loader.Stop()
		loop.Stop()
	}()

	log.Info("starting richtext", "port", cfg.Port, "theme", theme.Name, "measurer", cfg.Measurer)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
