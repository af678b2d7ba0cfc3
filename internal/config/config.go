// Package config loads the process configuration from the environment and
// optional YAML settings defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/StakePool-Labs/staking_layer/internal/app/domain/settings"
)

// Config is the process configuration.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Admin   AdminConfig

	DataFile        string
	DatabaseURL     string
	RedisURL        string
	EthRPCURLs      []string
	AccrualSchedule string
	AllowedOrigins  []string

	RateLimitPerSecond int
	RateLimitBurst     int
}

type ServerConfig struct {
	Host string
	Port int
}

type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

type AdminConfig struct {
	Username  string
	Password  string
	JWTSecret string
}

// Load reads configuration from the environment, applying development
// defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: envOr("SERVER_HOST", "0.0.0.0"),
			Port: 3001,
		},
		Logging: LoggingConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
			Output: envOr("LOG_OUTPUT", "stdout"),
		},
		Admin: AdminConfig{
			Username:  envOr("ADMIN_USERNAME", "admin"),
			Password:  envOr("ADMIN_PASSWORD", "admin123"),
			JWTSecret: envOr("JWT_SECRET", "dev-secret-change-me"),
		},
		DataFile:           envOr("DATA_FILE", "data.json"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AccrualSchedule:    strings.TrimSpace(os.Getenv("ACCRUAL_SCHEDULE")),
		RateLimitPerSecond: 50,
		RateLimitBurst:     100,
	}

	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", raw, err)
		}
		cfg.Server.Port = port
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_PER_SECOND")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_SECOND %q: %w", raw, err)
		}
		cfg.RateLimitPerSecond = limit
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_BURST %q: %w", raw, err)
		}
		cfg.RateLimitBurst = burst
	}

	cfg.EthRPCURLs = splitList(os.Getenv("ETH_RPC_URLS"))
	cfg.AllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	return cfg, nil
}

// LoadSettingsDefaults reads initial platform settings from a YAML file. A
// missing file yields the built-in defaults.
func LoadSettingsDefaults(path string) (settings.Platform, error) {
	if strings.TrimSpace(path) == "" {
		return settings.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings.Default(), nil
		}
		return settings.Platform{}, fmt.Errorf("read settings file: %w", err)
	}

	cfg := settings.Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return settings.Platform{}, fmt.Errorf("parse settings file: %w", err)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
