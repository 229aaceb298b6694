package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Gateway struct {
		// RemoteURL points at a hosted flashcard backend. PostgresURL
		// selects the built-in local gateway instead. With neither set
		// the server runs on the in-memory gateway with sample data.
		RemoteURL   string `yaml:"remote_url" validate:"omitempty,url"`
		PostgresURL string `yaml:"postgres_url"`
	} `yaml:"gateway"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Deck struct {
		TTL string `yaml:"ttl"`
	} `yaml:"deck"`
	Identity struct {
		UserID      string `yaml:"user_id" validate:"required"`
		DisplayName string `yaml:"display_name"`
		Secret      string `yaml:"secret" validate:"required"`
	} `yaml:"identity"`
}

// Load reads YAML config from path and validates it.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
