package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateAlgebra(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEncoding() error {
	if c.Encoding.Precision < 0 || c.Encoding.Precision > MaxPrecision {
		return fmt.Errorf("encoding.precision must be between 0 and %d", MaxPrecision)
	}
	switch c.Encoding.Compression {
	case CompressionNone, CompressionGzip, CompressionZstd:
		return nil
	default:
		return fmt.Errorf("encoding.compression: unsupported value %q", c.Encoding.Compression)
	}
}

func (c *Config) validateAlgebra() error {
	if c.Algebra.Workers < 0 {
		return errors.New("algebra.workers must be zero (auto) or positive")
	}
	if c.Algebra.JoinWindow < 0 || math.IsNaN(c.Algebra.JoinWindow) {
		return errors.New("algebra.join_window must be non-negative")
	}
	if c.Algebra.CoalesceAdjacency < 0 || math.IsNaN(c.Algebra.CoalesceAdjacency) {
		return errors.New("algebra.coalesce_adjacency must be non-negative")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Enabled && c.Cache.MaxEntries < 0 {
		return errors.New("cache.max_entries must be zero (unbounded) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
