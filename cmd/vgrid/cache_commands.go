package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vgrid/internal/api"
	"vgrid/internal/payloadcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the payload cache",
		Long: `Inspect and manage the payload cache.

The payload cache keeps encoded payloads keyed by manifest content and
encoding settings so unchanged manifests skip the encoder.

Commands:
  list     - List cached payloads, newest first
  clear    - Remove all cached payloads`,
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached payloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, warn, err := payloadCache(ctx)
			if warn != "" && !ctx.JSONMode() {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || cache == nil {
				return err
			}

			entries, err := cache.List()
			if err != nil {
				return err
			}
			converted := api.FromCacheEntries(entries)
			if ctx.JSONMode() {
				return writeJSON(cmd, converted)
			}

			out := cmd.OutOrStdout()
			if len(converted) == 0 {
				fmt.Fprintln(out, "Payload cache: empty")
				return nil
			}
			fmt.Fprintf(out, "Payload cache: %d entries in %s\n\n", len(converted), cache.Dir())

			rows := make([][]string, 0, len(converted))
			for i, e := range converted {
				key := e.Key
				if len(key) > 12 {
					key = key[:12]
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), e.Manifest, e.Codec, strconv.FormatInt(e.Size, 10), key, e.CachedAt})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"#", "Manifest", "Codec", "Bytes", "Key", "Cached"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached payloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, warn, err := payloadCache(ctx)
			if warn != "" && !ctx.JSONMode() {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || cache == nil {
				return err
			}

			removed, err := cache.Clear()
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": removed})
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Payload cache is already empty")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached payloads\n", removed)
			return nil
		},
	}
}

// payloadCache opens the cache, turning a disabled cache into a notice
// rather than an error.
func payloadCache(ctx *commandContext) (*payloadcache.Cache, string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	logger, err := ctx.newCLILogger("cli-cache")
	if err != nil {
		return nil, "", err
	}
	cache, err := api.OpenPayloadCache(cfg, logger)
	if errors.Is(err, api.ErrPayloadCacheDisabled) {
		return nil, "Payload cache is disabled (set cache.enabled = true)", nil
	}
	return cache, "", err
}
