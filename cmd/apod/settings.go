package main

import (
	"github.com/spf13/cobra"
)

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Print the persisted settings",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  c.runSettings,
	}
	cmd.Flags().StringP("output", "o", formatTable, "output format: table, json, or yaml")

	set := &cobra.Command{
		Use:   "set",
		Short: "Change the persisted settings",
		Long: `Change the default number of entries (--days) and the thumbnail edge
length in pixels (--size). Flags not given keep their current value.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: c.runSettingsSet,
	}
	set.Flags().Int("days", 0, "default number of entries")
	set.Flags().Int("size", 0, "thumbnail edge length in pixels")

	cmd.AddCommand(set)
	return cmd
}

type settingsView struct {
	Days int    `json:"days" yaml:"days"`
	Size int    `json:"size" yaml:"size"`
	Path string `json:"path" yaml:"path"`
}

func (c *cli) runSettings(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("output")
	if err := validateFormat(format); err != nil {
		return err
	}

	client, err := c.client(cmd)
	if err != nil {
		return err
	}
	s := client.Settings()
	view := settingsView{Days: s.EntryCount, Size: s.ThumbnailSize, Path: c.app.Settings.Path()}

	switch format {
	case formatJSON:
		return writeJSON(cmd.OutOrStdout(), view)
	case formatYAML:
		return writeYAML(cmd.OutOrStdout(), view)
	}
	renderTable(cmd.OutOrStdout(), []string{"KEY", "VALUE"}, [][]string{
		{"days", itoa(view.Days)},
		{"size", itoa(view.Size)},
		{"path", view.Path},
	})
	return nil
}

func (c *cli) runSettingsSet(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("days") && !cmd.Flags().Changed("size") {
		return usagef("nothing to change: pass --days and/or --size")
	}

	client, err := c.client(cmd)
	if err != nil {
		return err
	}

	s := client.Settings()
	if cmd.Flags().Changed("days") {
		s.EntryCount, _ = cmd.Flags().GetInt("days")
	}
	if cmd.Flags().Changed("size") {
		s.ThumbnailSize, _ = cmd.Flags().GetInt("size")
	}
	if err := s.Validate(); err != nil {
		return &usageError{err: err}
	}

	if err := client.UpdateSettings(cmd.Context(), s.EntryCount, s.ThumbnailSize); err != nil {
		return err
	}
	c.printer(cmd).Success("saved days=%d size=%d to %s", s.EntryCount, s.ThumbnailSize, c.app.Settings.Path())
	return nil
}
