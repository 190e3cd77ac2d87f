package config

const (
	defaultConfigPath        = "~/.config/vgrid/config.toml"
	defaultStorePath         = "~/.local/share/vgrid/intervals.db"
	defaultLogDir            = "~/.local/share/vgrid/logs"
	defaultPrecision         = 4
	defaultCompression       = CompressionNone
	defaultCacheMaxEntries   = 256
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultCoalesceAdjacency = 0
)

// Compression codec names accepted in [encoding].
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// MaxPrecision bounds [encoding].precision so quantized values stay exact in
// an int64.
const MaxPrecision = 9

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:  defaultCacheDir(),
			StorePath: defaultStorePath,
			LogDir:    defaultLogDir,
		},
		Encoding: Encoding{
			Precision:   defaultPrecision,
			Compression: defaultCompression,
		},
		Algebra: Algebra{
			CoalesceAdjacency:  defaultCoalesceAdjacency,
			DropUnknownSources: true,
		},
		Cache: Cache{
			Enabled:    true,
			MaxEntries: defaultCacheMaxEntries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
