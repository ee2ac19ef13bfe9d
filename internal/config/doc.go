// Package config loads, defaults, and validates purlmatch configuration.
//
// Configuration lives in a TOML file (default ~/.config/purlmatch/config.toml,
// with ./purlmatch.toml as a project-local fallback). Load applies defaults
// first, overlays the file when present, expands ~ in path fields, and
// validates the result, so callers always receive a usable Config.
package config
