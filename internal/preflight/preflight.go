package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"vgrid/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Store directory (always checked)
	results = append(results, CheckDirectoryAccess("Store directory", filepath.Dir(cfg.Paths.StorePath)))

	if cfg.Cache.Enabled {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckStore(ctx, cfg.Paths.StorePath))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
