package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"oferta-studio/internal/app"
	"oferta-studio/internal/config"
	"oferta-studio/internal/handlers"
	"oferta-studio/internal/logging"
	"oferta-studio/internal/mediagroup"
	"oferta-studio/internal/session"
	"oferta-studio/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.RequireTelegram(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	studio, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("studio init failed", zap.Error(err))
	}

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: studio.HTTPClient,
		Logger:     logger,
		Debug:      cfg.Debug,
	})
	if err != nil {
		logger.Fatal("telegram init failed", zap.Error(err))
	}

	handler := handlers.New(handlers.Options{
		Telegram:  tg,
		Studio:    studio.Orchestrator,
		Palette:   studio.Palette,
		Sessions:  session.NewStore(session.Options{}),
		Quota:     studio.Quota,
		Publisher: studio.Publisher,
		Logger:    logger,
	})

	sem := make(chan struct{}, cfg.MaxConcurrent)
	onAlbum := func(group mediagroup.Group) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-sem }()

			reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()

			handler.HandleAlbum(reqCtx, group)
		}()
	}

	aggregator := mediagroup.New(mediagroup.Options{OnFlush: onAlbum})
	defer aggregator.Stop()
	handler.SetMediaGroupAggregator(aggregator)

	logger.Info("bot started", zap.String("username", tg.Username()))

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("updates channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			go func(update telegram.Update) {
				defer func() { <-sem }()

				reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()

				if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update failed", zap.Error(err))
				}
			}(update)
		}
	}
}
