package api

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"vgrid/internal/config"
	"vgrid/internal/intervalset"
	"vgrid/internal/intervalstore"
	"vgrid/internal/logging"
	"vgrid/internal/mapping"
	"vgrid/internal/payloadcache"
)

var (
	ErrPayloadCacheDisabled      = errors.New("payload cache is disabled")
	ErrPayloadCacheNotConfigured = errors.New("payload cache dir is not configured")
	errConfigRequired            = errors.New("configuration is required")
)

// OpenPayloadCache validates config and initializes the payload cache.
func OpenPayloadCache(cfg *config.Config, logger *slog.Logger) (*payloadcache.Cache, error) {
	if cfg == nil || !cfg.Cache.Enabled {
		return nil, ErrPayloadCacheDisabled
	}
	if strings.TrimSpace(cfg.Paths.CacheDir) == "" {
		return nil, ErrPayloadCacheNotConfigured
	}
	if err := os.MkdirAll(cfg.Paths.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}
	return payloadcache.New(cfg, logger), nil
}

// OpenStore opens the annotation store named by cfg.
func OpenStore(cfg *config.Config, logger *slog.Logger) (*intervalstore.Store, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}
	store, err := intervalstore.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open annotation store: %w", err)
	}
	return store, nil
}

// MappingOptions translates the [algebra] section into mapping options.
func MappingOptions(cfg *config.Config, logger *slog.Logger) []mapping.Option {
	opts := []mapping.Option{mapping.WithLogger(logger)}
	if cfg == nil {
		return opts
	}
	opts = append(opts, mapping.WithWorkers(cfg.Algebra.Workers))
	if cfg.Algebra.JoinWindow > 0 {
		opts = append(opts, mapping.WithJoinOptions(intervalset.WithWindow(cfg.Algebra.JoinWindow)))
	}
	if cfg.Algebra.CoalesceAdjacency > 0 {
		opts = append(opts, mapping.WithCoalesceOptions(intervalset.WithAdjacency(cfg.Algebra.CoalesceAdjacency)))
	}
	return opts
}

// algebraSettings lists the [algebra] values that change compiled output.
// Workers only affect scheduling and are left out.
func algebraSettings(cfg *config.Config) []string {
	if cfg == nil {
		return nil
	}
	return []string{
		"join_window=" + strconv.FormatFloat(cfg.Algebra.JoinWindow, 'g', -1, 64),
		"coalesce_adjacency=" + strconv.FormatFloat(cfg.Algebra.CoalesceAdjacency, 'g', -1, 64),
	}
}

func loggerOrNop(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return logging.NewNop()
	}
	return logger
}
