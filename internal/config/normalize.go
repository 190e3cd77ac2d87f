package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncoding()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("VGRID_CACHE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CacheDir = value
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if strings.TrimSpace(c.Paths.StorePath) == "" {
		c.Paths.StorePath = defaultStorePath
	}

	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.StorePath, err = expandPath(c.Paths.StorePath); err != nil {
		return fmt.Errorf("paths.store_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEncoding() {
	c.Encoding.Compression = strings.ToLower(strings.TrimSpace(c.Encoding.Compression))
	if c.Encoding.Compression == "" {
		c.Encoding.Compression = defaultCompression
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("VGRID_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
