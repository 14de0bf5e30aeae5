// Package config holds runtime configuration for the conquest engine.
package config

import "time"

// Config contains process configuration for all subcommands.
type Config struct {
	// DataDir is the root of the flat-JSON artifact tree served to the map.
	DataDir string `koanf:"data_dir"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// CFBDBaseURL and CFBDAPIKey configure the CollegeFootballData client.
	CFBDBaseURL string `koanf:"cfbd_base_url"`
	CFBDAPIKey  string `koanf:"cfbd_api_key"`

	// HTTPTimeoutSec bounds a single CFBD request; HTTPMaxRetries bounds
	// retries on 429/5xx responses.
	HTTPTimeoutSec int `koanf:"http_timeout_sec"`
	HTTPMaxRetries int `koanf:"http_max_retries"`

	// LockBackend selects the run-lock implementation: file, redis, postgres.
	LockBackend string `koanf:"lock_backend"`

	// LockTTLSec is the lease duration; a lease older than this is abandoned
	// and may be reclaimed by another run.
	LockTTLSec int `koanf:"lock_ttl_sec"`

	// RedisURL and PostgresURL are only consulted for their lock backends.
	RedisURL    string `koanf:"redis_url"`
	PostgresURL string `koanf:"postgres_url"`

	// LeaderboardTopN truncates each ranked board; 0 means include all.
	LeaderboardTopN int `koanf:"leaderboard_top_n"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DataDir:         "public/data",
		LogLevel:        "info",
		CFBDBaseURL:     "https://api.collegefootballdata.com",
		HTTPTimeoutSec:  20,
		HTTPMaxRetries:  4,
		LockBackend:     "file",
		LockTTLSec:      900,
		LeaderboardTopN: 0,
	}
}

// HTTPTimeout returns the request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// LockTTL returns the lease duration.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSec) * time.Second
}
