package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if IMPERIAL_CONFIG is set
//  3. env (prefix IMPERIAL_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("IMPERIAL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: IMPERIAL_DATA_DIR, IMPERIAL_LOCK_BACKEND, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("IMPERIAL_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "imperial_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.DataDir == "" {
		return nil, errors.New("data_dir must not be empty")
	}
	switch cfg.LockBackend {
	case "file", "redis", "postgres":
	default:
		return nil, errors.New("lock_backend must be one of file, redis, postgres")
	}
	if cfg.LockBackend == "redis" && cfg.RedisURL == "" {
		return nil, errors.New("redis_url is required for the redis lock backend")
	}
	if cfg.LockBackend == "postgres" && cfg.PostgresURL == "" {
		return nil, errors.New("postgres_url is required for the postgres lock backend")
	}
	return &cfg, nil
}
