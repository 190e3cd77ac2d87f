package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vgrid/internal/api"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "inspect <manifest>",
		Short: "Summarize the tracks a manifest compiles to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newCLILogger("cli-inspect")
			if err != nil {
				return err
			}

			summary, err := api.InspectManifest(cmd.Context(), api.InspectRequest{
				Config:       cfg,
				ManifestPath: args[0],
				Strict:       strict,
				Logger:       logger,
			})
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, summary)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sources: %d\n\n", len(summary.Sources))
			rows := make([][]string, 0, len(summary.Tracks))
			for _, tr := range summary.Tracks {
				rows = append(rows, []string{
					tr.Title,
					tr.Name,
					strconv.Itoa(tr.Sources),
					strconv.Itoa(tr.Intervals),
					formatSpatial(tr.Spatial),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Track", "Name", "Sources", "Intervals", "Spatial"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))

			for _, w := range summary.Warnings {
				fmt.Fprintf(out, "warning: track %q has %d intervals for unknown source %s\n", w.Track, w.Intervals, w.Key)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when a track names a source the manifest does not declare")
	return cmd
}

func formatSpatial(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
