// Command apod browses the Astronomy Picture of the Day archive from the terminal.
//
// It lists recent entries with their cached thumbnails, prints one day's caption,
// downloads full-size images into the local cache and edits the persisted settings.
//
// Environment variables are the same as the worker's feed configuration
// (APOD_BASE_URL, APOD_CACHE_DIR, APOD_SETTINGS_PATH, APOD_TIMEZONE, ...).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		newPrinter(root.OutOrStdout(), root.ErrOrStderr(), useColors(false)).Error("%v", err)
		return exitCode(err)
	}
	return 0
}
