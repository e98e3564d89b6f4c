// Package config loads, normalizes, and validates alsrescue configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ALSRESCUE_LOG_FORMAT. The Config type centralizes every knob the CLI and
// scan pipeline need, so output/log/manifest locations and scan tuning are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
