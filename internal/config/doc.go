// Package config loads, normalizes, and validates vgrid configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VGRID_LOG_LEVEL and VGRID_CACHE_DIR. The Config type centralizes the knobs
// the CLI needs: where payloads are cached, where the annotation store lives,
// how intervals are quantized, and how the algebra fans out.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
