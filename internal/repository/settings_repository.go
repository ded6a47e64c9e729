package repository

import (
	"context"

	"apod-feed/internal/domain/entity"
)

// SettingsRepository persists the user-editable settings record.
// Load creates the backing store with defaults when it does not exist yet.
// Save notifies every subscriber after the new value is durable.
type SettingsRepository interface {
	Load(ctx context.Context) (entity.Settings, error)
	Save(ctx context.Context, s entity.Settings) error
	Current() entity.Settings
	Subscribe(fn func(entity.Settings)) (unsubscribe func())
}
