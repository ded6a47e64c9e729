package main

import (
	"errors"
	"fmt"

	"apod-feed/internal/domain/entity"
	"apod-feed/internal/infra/scraper"
	"apod-feed/internal/usecase/feed"

	"github.com/spf13/cobra"
)

func newShowCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <YYYY-MM-DD>",
		Short: "Show the title, links and caption of one day",
		Long: `Show one day's entry. When that day has no page, the closest earlier
day that has one is shown instead.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: c.runShow,
	}
	cmd.Flags().StringP("output", "o", formatTable, "output format: table, json, or yaml")
	return cmd
}

// showView is the serialized form of one day.
type showView struct {
	entryView `yaml:",inline"`
	Caption   string `json:"caption" yaml:"caption"`
}

func (c *cli) runShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	if err := validateFormat(format); err != nil {
		return err
	}

	entry, err := c.entryOn(cmd, args[0])
	if err != nil {
		return err
	}

	view := showView{
		entryView: newListView([]entity.Entry{entry}, 0).Entries[0],
		Caption:   scraper.PlainCaption(entry.CaptionMarkup),
	}

	switch format {
	case formatJSON:
		return writeJSON(cmd.OutOrStdout(), view)
	case formatYAML:
		return writeYAML(cmd.OutOrStdout(), view)
	}

	p := c.printer(cmd)
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s  %s\n\n", p.Bold(entry.DisplayDate()), p.Bold(entry.Title))
	_, _ = fmt.Fprintf(w, "%s\n\n", view.Caption)
	_, _ = fmt.Fprintf(w, "Page:      %s\n", entry.PageURL)
	_, _ = fmt.Fprintf(w, "Image:     %s\n", entry.ImageURL)
	_, _ = fmt.Fprintf(w, "Thumbnail: %s\n", entry.ThumbnailLocalPath)
	return nil
}

// entryOn resolves the argument to the entry published on that date or the closest
// earlier one.
func (c *cli) entryOn(cmd *cobra.Command, arg string) (entity.Entry, error) {
	date, err := entity.ParseDate(arg)
	if err != nil {
		return entity.Entry{}, &usageError{err: err}
	}

	client, err := c.client(cmd)
	if err != nil {
		return entity.Entry{}, err
	}

	result, err := client.GetEntriesFrom(cmd.Context(), 1, date)
	if err != nil {
		if errors.Is(err, feed.ErrExhaustedHistory) {
			return entity.Entry{}, fmt.Errorf("no entry published on or before %s: %w", entity.DisplayDate(date), err)
		}
		return entity.Entry{}, err
	}

	entry := result.Entries[0]
	if !entry.Date.Equal(date) {
		c.printer(cmd).Warning("no entry for %s; showing %s", entity.DisplayDate(date), entry.DisplayDate())
	}
	return entry, nil
}
