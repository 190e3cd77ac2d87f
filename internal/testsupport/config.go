package testsupport

import (
	"path/filepath"
	"testing"

	"vgrid/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.StorePath = filepath.Join(base, "data", "intervals.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithEncoding overrides the bound precision and compression codec.
func WithEncoding(precision int, compression string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoding.Precision = precision
		b.cfg.Encoding.Compression = compression
	}
}

// WithCache toggles the payload cache and bounds its size.
func WithCache(enabled bool, maxEntries int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = enabled
		b.cfg.Cache.MaxEntries = maxEntries
	}
}

// WithoutLogDir disables the JSON log file.
func WithoutLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LogDir = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}
