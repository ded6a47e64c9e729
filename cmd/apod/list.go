package main

import (
	"errors"
	"time"

	"apod-feed/internal/domain/entity"
	"apod-feed/internal/usecase/feed"

	"github.com/spf13/cobra"
)

func newListCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent entries",
		Long: `List entries walking back from today, or from --date.

Dates without a page, or whose thumbnail is missing, are skipped. The number of
entries defaults to the "days" setting.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: c.runList,
	}

	cmd.Flags().IntP("count", "n", 0, "number of entries (default: days setting)")
	cmd.Flags().String("date", "", "start date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringP("output", "o", formatTable, "output format: table, json, or yaml")
	return cmd
}

func (c *cli) runList(cmd *cobra.Command, _ []string) error {
	count, _ := cmd.Flags().GetInt("count")
	dateFlag, _ := cmd.Flags().GetString("date")
	format, _ := cmd.Flags().GetString("output")

	if err := validateFormat(format); err != nil {
		return err
	}
	if cmd.Flags().Changed("count") && count < 1 {
		return usagef("--count must be at least 1, got %d", count)
	}

	var start time.Time
	if dateFlag != "" {
		d, err := entity.ParseDate(dateFlag)
		if err != nil {
			return &usageError{err: err}
		}
		start = d
	}

	client, err := c.client(cmd)
	if err != nil {
		return err
	}
	if count == 0 {
		count = client.Settings().EntryCount
	}

	var result feed.Result
	if start.IsZero() {
		result, err = client.GetEntries(cmd.Context(), count)
	} else {
		result, err = client.GetEntriesFrom(cmd.Context(), count, start)
	}

	var exhausted *feed.ExhaustedHistoryError
	if err != nil && !errors.As(err, &exhausted) {
		return err
	}

	if renderErr := renderEntries(cmd.OutOrStdout(), format, newListView(result.Entries, result.ThumbnailSize)); renderErr != nil {
		return renderErr
	}
	if exhausted != nil {
		c.printer(cmd).Warning("reached the first published day (%s): showing %d of %d entries",
			entity.DisplayDate(exhausted.Oldest), exhausted.Collected, exhausted.Requested)
	}
	return nil
}
