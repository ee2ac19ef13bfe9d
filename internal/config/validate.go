package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePurlDB(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePurlDB() error {
	if strings.TrimSpace(c.PurlDB.BaseURL) == "" {
		return fmt.Errorf("purldb.base_url is required (create a config with 'purlmatch config init')")
	}
	parsed, err := url.Parse(c.PurlDB.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("purldb.base_url must be an absolute URL, got %q", c.PurlDB.BaseURL)
	}
	if c.PurlDB.ChunkSize < 1 {
		return fmt.Errorf("purldb.chunk_size must be positive, got %d", c.PurlDB.ChunkSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
