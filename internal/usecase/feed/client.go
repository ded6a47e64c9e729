package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"apod-feed/internal/domain/entity"
	"apod-feed/internal/observability/logging"
	"apod-feed/internal/repository"
)

// Result is what the presentation layer renders: the entries plus the thumbnail
// edge length from the current settings.
type Result struct {
	Entries       []entity.Entry
	ThumbnailSize int
}

// Client is the facade used by presentation collaborators (the CLI and the worker).
type Client struct {
	service  *Service
	settings repository.SettingsRepository
	images   CacheStore
}

// NewClient creates a Client.
//
// Parameters:
//   - service: assembles entries
//   - settings: persisted user settings
//   - images: cache for full-size images, separate from the thumbnail cache so that
//     image downloads can use their own size limit
func NewClient(service *Service, settings repository.SettingsRepository, images CacheStore) *Client {
	return &Client{service: service, settings: settings, images: images}
}

// GetEntries assembles count entries ending today in the publisher's time zone.
// On ErrExhaustedHistory the partial entries are returned alongside the error.
func (c *Client) GetEntries(ctx context.Context, count int) (Result, error) {
	return c.GetEntriesFrom(ctx, count, c.service.Today())
}

// GetEntriesFrom assembles count entries walking back from startDate.
func (c *Client) GetEntriesFrom(ctx context.Context, count int, startDate time.Time) (Result, error) {
	entries, err := c.service.Assemble(ctx, count, startDate)
	return Result{
		Entries:       entries,
		ThumbnailSize: c.settings.Current().ThumbnailSize,
	}, err
}

// UpdateSettings validates and persists new settings. Subscribers are notified by
// the repository once the value is saved.
func (c *Client) UpdateSettings(ctx context.Context, entryCount, thumbnailSize int) error {
	s := entity.Settings{EntryCount: entryCount, ThumbnailSize: thumbnailSize}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if err := c.settings.Save(ctx, s); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// EnsureImageCached downloads the full-size image of entry unless it is already cached.
// A confirmed absent image returns an *ImageNotFoundError pointing at the entry's page.
func (c *Client) EnsureImageCached(ctx context.Context, entry entity.Entry) (string, error) {
	path, err := c.images.EnsureCached(ctx, entry.ImageURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", &ImageNotFoundError{Date: entry.Date, PageURL: entry.PageURL}
		}
		return "", fmt.Errorf("cache image for %s: %w", entity.DateCode(entry.Date), err)
	}
	return path, nil
}

// Settings returns the current settings.
func (c *Client) Settings() entity.Settings {
	return c.settings.Current()
}

// Subscribe registers fn to be called after every settings change.
func (c *Client) Subscribe(fn func(entity.Settings)) (unsubscribe func()) {
	return c.settings.Subscribe(fn)
}

// RefreshStats contains statistics about a refresh run.
type RefreshStats struct {
	Entries        int
	ImagesCached   int
	ImagesMissing  int
	ImageFailures  int
	Duration       time.Duration
	HistoryReached bool
}

// Refresh assembles the configured number of entries from today and, when
// withImages is true, pre-warms the full-size image cache for each of them.
// Image failures are logged and counted; they never fail the refresh.
func (c *Client) Refresh(ctx context.Context, withImages bool) (*RefreshStats, error) {
	start := time.Now()
	logger := logging.WithRunID(ctx, logging.FromContext(ctx))
	stats := &RefreshStats{}

	result, err := c.GetEntries(ctx, c.settings.Current().EntryCount)
	if err != nil {
		if !errors.Is(err, ErrExhaustedHistory) {
			return nil, fmt.Errorf("refresh: %w", err)
		}
		stats.HistoryReached = true
	}
	stats.Entries = len(result.Entries)

	if withImages {
		for _, entry := range result.Entries {
			if ctx.Err() != nil {
				return stats, fmt.Errorf("refresh: %w", ctx.Err())
			}
			_, err := c.EnsureImageCached(ctx, entry)
			switch {
			case err == nil:
				stats.ImagesCached++
			case errors.Is(err, ErrNotFound):
				stats.ImagesMissing++
				logger.Info("image missing", slog.String("date", entry.DisplayDate()), slog.String("page_url", entry.PageURL))
			default:
				stats.ImageFailures++
				logger.Warn("image download failed", slog.String("url", entry.ImageURL), slog.Any("error", err))
			}
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}
