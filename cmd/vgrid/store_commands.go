package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vgrid/internal/api"
)

func newStoreCommand(ctx *commandContext) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Manage tracks in the annotation store",
		Long: `Manage tracks in the annotation store.

Stored tracks can be referenced from any manifest with "store: <name>".

Commands:
  import   - Resolve a manifest and save its tracks
  list     - List stored tracks
  delete   - Remove a stored track`,
	}

	storeCmd.AddCommand(newStoreImportCommand(ctx))
	storeCmd.AddCommand(newStoreListCommand(ctx))
	storeCmd.AddCommand(newStoreDeleteCommand(ctx))

	return storeCmd
}

func newStoreImportCommand(ctx *commandContext) *cobra.Command {
	var tracks []string

	cmd := &cobra.Command{
		Use:   "import <manifest>",
		Short: "Save the tracks of a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newCLILogger("cli-store")
			if err != nil {
				return err
			}

			result, err := api.ImportTracks(cmd.Context(), api.ImportTracksRequest{
				Config:       cfg,
				ManifestPath: args[0],
				Tracks:       tracks,
				Logger:       logger,
			})
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				imported := result.Imported
				if imported == nil {
					imported = []api.StoredTrack{}
				}
				return writeJSON(cmd, imported)
			}
			out := cmd.OutOrStdout()
			for _, tr := range result.Imported {
				fmt.Fprintf(out, "Imported %s (%d intervals across %d sources)\n", tr.Name, tr.Intervals, tr.Sources)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tracks, "track", "t", nil, "Import only the named track (repeatable)")
	return cmd
}

func newStoreListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newCLILogger("cli-store")
			if err != nil {
				return err
			}
			store, err := api.OpenStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			infos, err := store.Tracks(cmd.Context())
			if err != nil {
				return err
			}
			tracks := api.FromTrackInfos(infos)
			if ctx.JSONMode() {
				return writeJSON(cmd, tracks)
			}

			out := cmd.OutOrStdout()
			if len(tracks) == 0 {
				fmt.Fprintln(out, "Annotation store: empty")
				return nil
			}
			rows := make([][]string, 0, len(tracks))
			for _, tr := range tracks {
				rows = append(rows, []string{tr.Name, strconv.Itoa(tr.Sources), strconv.Itoa(tr.Intervals), tr.UpdatedAt})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Name", "Sources", "Intervals", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft}))
			return nil
		},
	}
}

func newStoreDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newCLILogger("cli-store")
			if err != nil {
				return err
			}
			store, err := api.OpenStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.DeleteTrack(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"name": args[0], "removed": removed})
			}
			if !removed {
				return fmt.Errorf("track %q not found in the annotation store", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed track %s\n", args[0])
			return nil
		},
	}
}
