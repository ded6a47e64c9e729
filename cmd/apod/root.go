package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"apod-feed/internal/app"
	"apod-feed/internal/infra/settings"
	"apod-feed/internal/observability/logging"
	"apod-feed/internal/usecase/feed"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK = iota
	exitFailure
	exitUsage
	exitConfig
)

// cli holds state shared by every subcommand of one invocation.
type cli struct {
	noColor bool
	verbose bool

	logger *slog.Logger
	app    *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "apod",
		Short: "Astronomy Picture of the Day feed",
		Long: `apod walks the Astronomy Picture of the Day archive backward from today,
caching thumbnails and images locally.

Example usage:
  apod list                     # Entries for the configured number of days
  apod list --count 3 --date 2013-12-28
  apod show 2013-12-24          # Title, links and caption of one day
  apod image 2013-12-24         # Download the full-size image
  apod settings set --days 10   # Persist a new default entry count`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			switch {
			case c.verbose:
				c.logger = logging.NewTextLoggerWithLevel(cmd.ErrOrStderr(), slog.LevelDebug)
			case os.Getenv("LOG_LEVEL") != "":
				c.logger = logging.NewTextLoggerTo(cmd.ErrOrStderr())
			default:
				c.logger = logging.NewTextLoggerWithLevel(cmd.ErrOrStderr(), slog.LevelWarn)
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), c.logger))
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log fetch and cache activity to stderr")

	root.AddCommand(
		newListCmd(c),
		newShowCmd(c),
		newImageCmd(c),
		newSettingsCmd(c),
		newVersionCmd(),
	)
	return root
}

// client wires the application on first use so that commands such as version
// never touch the settings file or the cache.
func (c *cli) client(cmd *cobra.Command) (*feed.Client, error) {
	if c.app == nil {
		a, err := app.New(cmd.Context(), c.logger, nil)
		if err != nil {
			return nil, err
		}
		c.app = a
	}
	return c.app.Client, nil
}

func (c *cli) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), useColors(c.noColor))
}

// usageError marks errors caused by bad arguments.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// usageArgs marks positional argument errors as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var usage *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage):
		return exitUsage
	case errors.Is(err, settings.ErrConfigFormat):
		return exitConfig
	default:
		return exitFailure
	}
}
