package entity

import "fmt"

const (
	// DefaultEntryCount is the number of entries listed on first run.
	DefaultEntryCount = 7

	// DefaultThumbnailSize is the thumbnail edge length in pixels on first run.
	DefaultThumbnailSize = 50
)

// Settings is the user-editable configuration record.
// EntryCount is how many entries to list; ThumbnailSize is the pixel edge length used
// by the presentation layer when rendering thumbnails.
type Settings struct {
	EntryCount    int
	ThumbnailSize int
}

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{
		EntryCount:    DefaultEntryCount,
		ThumbnailSize: DefaultThumbnailSize,
	}
}

// Validate checks that both values are at least 1.
func (s Settings) Validate() error {
	if s.EntryCount < 1 {
		return &ValidationError{
			Field:   "entry_count",
			Message: fmt.Sprintf("must be at least 1, got %d", s.EntryCount),
		}
	}
	if s.ThumbnailSize < 1 {
		return &ValidationError{
			Field:   "thumbnail_size",
			Message: fmt.Sprintf("must be at least 1, got %d", s.ThumbnailSize),
		}
	}
	return nil
}
