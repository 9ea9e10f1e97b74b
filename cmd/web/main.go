package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"oferta-studio/internal/app"
	"oferta-studio/internal/config"
	"oferta-studio/internal/logging"
	"oferta-studio/internal/transport"
)

//go:embed static/*
var staticFS embed.FS

var version = "dev"

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	studio, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}

	handler := transport.NewHandler(transport.Options{
		Studio:         studio.Orchestrator,
		Palette:        studio.Palette,
		Quota:          studio.Quota,
		Publisher:      studio.Publisher,
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
		Version:        version,
		Static:         staticSub,
	})

	srv := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web started", zap.String("addr", cfg.WebAddr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
