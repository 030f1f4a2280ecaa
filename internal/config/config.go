// Package config loads server configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MARGINALIA_"

type Config struct {
	Port string `koanf:"port"`

	DB struct {
		Path string `koanf:"path"`
	} `koanf:"db"`

	Log struct {
		Level string `koanf:"level" validate:"oneof=debug info warn error"`
	} `koanf:"log"`

	API struct {
		// Key guards the mutating endpoints. Empty disables the check.
		Key string `koanf:"key"`
	} `koanf:"api"`

	Notion struct {
		Token    string `koanf:"token" validate:"required"`
		Database string `koanf:"database" validate:"required"`
	} `koanf:"notion"`

	VAPID struct {
		Public     string `koanf:"public"`
		Private    string `koanf:"private"`
		Subscriber string `koanf:"subscriber"`
	} `koanf:"vapid"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	Fetch struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"fetch"`
}

// PushConfigured reports whether both VAPID keys are present. Without them
// the push scheduler and the push routes stay off.
func (c *Config) PushConfigured() bool {
	return c.VAPID.Public != "" && c.VAPID.Private != ""
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides (MARGINALIA_NOTION_TOKEN maps to notion.token and so on).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	cfg.Port = "8080"
	cfg.DB.Path = "marginalia.db"
	cfg.Log.Level = "info"
	cfg.Cache.TTL = 5 * time.Minute
	cfg.Fetch.Timeout = 8 * time.Second

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
