package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"vgrid/internal/api"
	"vgrid/internal/encoding"
	"vgrid/internal/fileutil"
	"vgrid/internal/logging"
)

func newCompileCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var compression string
	var precision int
	var strict bool
	var noCache bool

	cmd := &cobra.Command{
		Use:   "compile <manifest>",
		Short: "Compile a manifest into an encoded payload",
		Long: `Compile a manifest (JSON, YAML or TOML) into the compact payload consumed
by the grid visualization widget.

The payload is written to stdout unless --output is given. Payloads for
manifests that only contain literal tracks are cached; use --no-cache to
force a fresh encode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newCLILogger("cli-compile")
			if err != nil {
				return err
			}

			req := api.CompileRequest{
				Config:       cfg,
				ManifestPath: args[0],
				Compression:  compression,
				Strict:       strict,
				UseCache:     !noCache,
				Logger:       logger,
			}
			if cmd.Flags().Changed("precision") {
				req.Precision = &precision
			}

			result, err := api.CompileManifest(cmd.Context(), req)
			if err != nil {
				logCompileFailure(logger, args[0], err)
				return err
			}

			target := strings.TrimSpace(outputPath)
			if target == "" || target == "-" {
				if len(result.Payload) > 0 && isTerminal(cmd.OutOrStdout()) && result.Codec != encoding.CodecNone {
					return fmt.Errorf("refusing to write %s payload to a terminal; use --output", result.Codec)
				}
				_, err := cmd.OutOrStdout().Write(result.Payload)
				return err
			}

			if err := fileutil.WriteFileAtomic(target, result.Payload, 0o644); err != nil {
				return fmt.Errorf("write payload: %w", err)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"output":    target,
					"bytes":     len(result.Payload),
					"codec":     string(result.Codec),
					"precision": result.Precision,
					"cacheHit":  result.CacheHit,
				})
			}
			source := "encoded"
			if result.CacheHit {
				source = "cached"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes (%s, %s) to %s\n", len(result.Payload), result.Codec, source, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the payload to this file instead of stdout")
	cmd.Flags().StringVar(&compression, "compression", "", "Override encoding.compression (none, gzip, zstd)")
	cmd.Flags().IntVar(&precision, "precision", 0, "Override encoding.precision (decimal digits kept for bounds)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when a track names a source the manifest does not declare")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the payload cache")
	return cmd
}

func logCompileFailure(logger *slog.Logger, manifestPath string, err error) {
	hint := "check the store and cache paths with 'vgrid config check'"
	if exitCode(err) == exitValidation {
		hint = "fix the manifest and compile again"
	}
	logging.ErrorWithContext(logger, "compile failed", "compile_failed",
		logging.String("manifest", manifestPath),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "no payload written"))
}
