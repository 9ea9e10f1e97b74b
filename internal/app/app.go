// Package app wires the studio components from configuration. The web
// server, the bot and the CLI all start from New.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"oferta-studio/internal/assets"
	"oferta-studio/internal/campaign"
	"oferta-studio/internal/config"
	"oferta-studio/internal/fallback"
	"oferta-studio/internal/gemini"
	"oferta-studio/internal/httpclient"
	"oferta-studio/internal/logging"
	"oferta-studio/internal/palette"
	"oferta-studio/internal/quota"
)

const assetPrefix = "campaigns"

type Studio struct {
	Orchestrator *campaign.Orchestrator
	Palette      *palette.Extractor
	Quota        *quota.Limiter
	// Publisher is nil when blob storage is not configured.
	Publisher  *assets.Publisher
	HTTPClient *http.Client
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Studio, error) {
	logger = logging.OrNop(logger)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	gem, err := gemini.New(ctx, gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		TextModel:  cfg.TextModel,
		ImageModel: cfg.ImageModel,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	orchestrator := campaign.NewOrchestrator(campaign.Options{
		Text:           gem,
		Image:          gem,
		Fallback:       fallback.New(cfg.FallbackBaseURL),
		Variants:       cfg.VariantCount,
		VariantTimeout: cfg.VariantTimeout,
		Logger:         logger,
	})

	var publisher *assets.Publisher
	if cfg.AzureEnabled() {
		store, err := assets.NewAzureStore(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer)
		if err != nil {
			return nil, fmt.Errorf("asset storage: %w", err)
		}
		publisher = assets.NewPublisher(store, assetPrefix, logger)
		logger.Info("publishing images to azure blob storage",
			zap.String("account", cfg.AzureAccount),
			zap.String("container", cfg.AzureContainer),
		)
	}

	return &Studio{
		Orchestrator: orchestrator,
		Palette:      palette.New(cfg.Palette, logger),
		Quota:        quota.New(quota.Options{FreeDailyLimit: cfg.FreeDailyLimit}),
		Publisher:    publisher,
		HTTPClient:   httpClient,
	}, nil
}
