package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable for running the pipeline.
func (c *Config) Validate() error {
	if err := c.validateSpotify(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSpotify() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return errors.New("spotify client_id and client_secret are required (SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET)")
	}
	if c.Spotify.BaseURL == "" || c.Spotify.TokenURL == "" {
		return errors.New("spotify base_url and token_url must be set")
	}
	if c.Spotify.RequestsPerSecond < 0 {
		return fmt.Errorf("spotify requests_per_second must be >= 0, got %v", c.Spotify.RequestsPerSecond)
	}
	if c.Spotify.PageSize < 1 || c.Spotify.PageSize > 50 {
		return fmt.Errorf("spotify page_size must be between 1 and 50, got %d", c.Spotify.PageSize)
	}
	if c.Spotify.Timeout.Duration <= 0 {
		return errors.New("spotify timeout must be positive")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	p := c.Pipeline
	if p.BatchSize <= 0 {
		return fmt.Errorf("pipeline batch_size must be positive, got %d", p.BatchSize)
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("pipeline max_retries must be >= 0, got %d", p.MaxRetries)
	}
	if p.MinTracks <= 0 {
		return fmt.Errorf("pipeline min_tracks must be positive, got %d", p.MinTracks)
	}
	if p.CredentialRefreshEvery < 0 || p.MaxAuthFailures < 0 {
		return errors.New("pipeline credential_refresh_every and max_auth_failures must be >= 0")
	}
	durations := map[string]Duration{
		"base_pacing_delay":   p.BasePacingDelay,
		"batch_cooldown":      p.BatchCooldown,
		"cycle_cooldown":      p.CycleCooldown,
		"initial_backoff":     p.InitialBackoff,
		"rate_limit_wait_cap": p.RateLimitWaitCap,
	}
	for name, d := range durations {
		if d.Duration < 0 {
			return fmt.Errorf("pipeline %s must not be negative", name)
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch strings.ToLower(c.Storage.Driver) {
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage dsn is required for the postgres driver (DB_DSN)")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage sqlite_path is required for the sqlite driver (SQLITE_PATH)")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage driver %q is not supported (use postgres, sqlite or memory)", c.Storage.Driver)
	}
	return nil
}
