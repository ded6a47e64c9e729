package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			short, _ := cmd.Flags().GetBool("short")
			jsonOutput, _ := cmd.Flags().GetBool("json")

			if short {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"version":   version,
					"commit":    commit,
					"built":     buildTime,
					"goVersion": runtime.Version(),
				})
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "apod %s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", commit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", buildTime)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  go:      %s\n", runtime.Version())
			return nil
		},
	}
	cmd.Flags().Bool("short", false, "print only the version")
	cmd.Flags().Bool("json", false, "print as JSON")
	return cmd
}
