// Package app wires the feed client from environment configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"apod-feed/internal/config"
	"apod-feed/internal/infra/cache"
	"apod-feed/internal/infra/fetcher"
	"apod-feed/internal/infra/scraper"
	"apod-feed/internal/infra/settings"
	pkgconfig "apod-feed/internal/pkg/config"
	"apod-feed/internal/resilience/circuitbreaker"
	"apod-feed/internal/usecase/feed"

	"github.com/prometheus/client_golang/prometheus"
)

// App holds the wired components.
type App struct {
	Client       *feed.Client
	Service      *feed.Service
	Settings     *settings.Store
	PageFetcher  *fetcher.HTTPFetcher
	ImageFetcher *fetcher.HTTPFetcher
	Thumbnails   *cache.Store
	Images       *cache.Store
	Config       *config.FeedConfig
}

// New loads configuration, settings and builds the client.
// reg receives the configuration metrics; nil skips them.
//
// A settings file that exists but cannot be parsed is returned as an error matching
// settings.ErrConfigFormat.
func New(ctx context.Context, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	feedConfig, err := config.LoadFeedConfig()
	if err != nil {
		return nil, fmt.Errorf("load feed configuration: %w", err)
	}

	var pageMetrics, imageMetrics *pkgconfig.ConfigMetrics
	if reg != nil {
		pageMetrics = pkgconfig.NewConfigMetricsWith(reg, "page_fetcher")
		imageMetrics = pkgconfig.NewConfigMetricsWith(reg, "image_fetcher")
	}
	pageConfig := fetcher.LoadConfigFromEnv(logger, pageMetrics)
	imageConfig := fetcher.LoadImageConfigFromEnv(logger, imageMetrics)

	pageFetcher := fetcher.NewHTTPFetcher(pageConfig)
	imageFetcher := fetcher.NewHTTPFetcher(imageConfig)

	thumbnails, err := cache.NewStore(feedConfig.CacheDir, pageFetcher)
	if err != nil {
		return nil, fmt.Errorf("open thumbnail cache: %w", err)
	}
	images, err := cache.NewStore(feedConfig.CacheDir, imageFetcher, cache.WithValidator(cache.NonEmptyValidator))
	if err != nil {
		return nil, fmt.Errorf("open image cache: %w", err)
	}

	store := settings.NewStore(feedConfig.SettingsPath, logger)
	if _, err := store.Load(ctx); err != nil {
		return nil, err
	}

	service, err := feed.NewService(pageFetcher, scraper.NewAPODParser(), thumbnails, feedConfig.Options(pageConfig.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("create feed service: %w", err)
	}

	logger.Debug("feed client wired",
		slog.String("base_url", pageConfig.BaseURL),
		slog.String("cache_dir", feedConfig.CacheDir),
		slog.String("settings_path", feedConfig.SettingsPath),
		slog.Int("parallelism", feedConfig.Parallelism))

	return &App{
		Client:       feed.NewClient(service, store, images),
		Service:      service,
		Settings:     store,
		PageFetcher:  pageFetcher,
		ImageFetcher: imageFetcher,
		Thumbnails:   thumbnails,
		Images:       images,
		Config:       feedConfig,
	}, nil
}

// Breakers returns the circuit breakers of both fetchers.
func (a *App) Breakers() []*circuitbreaker.CircuitBreaker {
	return []*circuitbreaker.CircuitBreaker{a.PageFetcher.Breaker(), a.ImageFetcher.Breaker()}
}
