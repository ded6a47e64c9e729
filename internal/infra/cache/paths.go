package cache

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// EnvCacheDir overrides the default cache directory.
const EnvCacheDir = "APOD_CACHE_DIR"

// DefaultRoot returns $APOD_CACHE_DIR, or $XDG_CACHE_HOME/apod.
func DefaultRoot() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.CacheHome, "apod")
}
