// Package config loads CLI configuration from a TOML file layered with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/forgekit/forge-go/derivative"
	"github.com/forgekit/forge-go/oauth"
)

// Config is the effective CLI configuration. Precedence, lowest to
// highest: defaults, TOML config file, environment variables.
type Config struct {
	// App credentials (2-legged mode). Mutually exclusive with AccessToken.
	ClientID     string `toml:"client_id"     env:"FORGE_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"FORGE_CLIENT_SECRET"`

	// Pre-issued bearer token (static mode). No refresh is possible.
	AccessToken string `toml:"access_token" env:"FORGE_ACCESS_TOKEN"`

	// Region is "US" (default) or "EMEA".
	Region string `toml:"region" env:"FORGE_REGION"`

	// BaseURL overrides the API root. Empty means production.
	BaseURL string `toml:"base_url" env:"FORGE_BASE_URL"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" env:"FORGE_LOG_LEVEL"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Region:   string(derivative.RegionUS),
		LogLevel: "info",
	}
}

// Load reads the TOML config file at path (if it exists), applies
// environment variable overrides, and validates the result. A missing file
// is not an error: env-only configuration is the zero-config path.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, decodeErr := toml.DecodeFile(path, cfg); decodeErr != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, decodeErr)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that exactly one credential mode is configured and the
// region is known.
func Validate(cfg *Config) error {
	hasApp := cfg.ClientID != "" || cfg.ClientSecret != ""
	hasToken := cfg.AccessToken != ""

	switch {
	case hasApp && hasToken:
		return errors.New("config: client credentials and access token are mutually exclusive")
	case hasApp && (cfg.ClientID == "" || cfg.ClientSecret == ""):
		return errors.New("config: both client_id and client_secret are required")
	case !hasApp && !hasToken:
		return errors.New("config: set client_id/client_secret or access_token")
	}

	switch derivative.Region(cfg.Region) {
	case derivative.RegionUS, derivative.RegionEMEA:
	default:
		return fmt.Errorf("config: unknown region %q (want US or EMEA)", cfg.Region)
	}

	return nil
}

// Credentials returns the configured credential mode for the oauth client.
func (c *Config) Credentials() oauth.Credentials {
	if c.AccessToken != "" {
		return oauth.StaticToken(c.AccessToken)
	}

	return oauth.ClientCredentials{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	}
}

// DerivativeRegion returns the configured region as the derivative enum.
func (c *Config) DerivativeRegion() derivative.Region {
	return derivative.Region(c.Region)
}
