package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ADMIN_USERNAME", "ADMIN_PASSWORD", "DATA_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 3001 {
		t.Fatalf("default port: %d", cfg.Server.Port)
	}
	if cfg.Admin.Username != "admin" || cfg.Admin.Password != "admin123" {
		t.Fatalf("default admin credentials: %+v", cfg.Admin)
	}
	if cfg.DataFile != "data.json" {
		t.Fatalf("default data file: %s", cfg.DataFile)
	}
	if cfg.RateLimitPerSecond != 50 || cfg.RateLimitBurst != 100 {
		t.Fatalf("default rate limits: %d/%d", cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ADMIN_USERNAME", "operator")
	t.Setenv("ETH_RPC_URLS", "https://one.example, https://two.example ,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port override: %d", cfg.Server.Port)
	}
	if cfg.Admin.Username != "operator" {
		t.Fatalf("username override: %s", cfg.Admin.Username)
	}
	if len(cfg.EthRPCURLs) != 2 || cfg.EthRPCURLs[1] != "https://two.example" {
		t.Fatalf("rpc urls: %v", cfg.EthRPCURLs)
	}
	if len(cfg.AllowedOrigins) != 1 {
		t.Fatalf("origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatalf("invalid port should error")
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	cfg, err := LoadSettingsDefaults("")
	if err != nil {
		t.Fatalf("empty path: %v", err)
	}
	if cfg.BaseAPY != 12.5 {
		t.Fatalf("built-in defaults: %+v", cfg)
	}

	cfg, err = LoadSettingsDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.MinStake != 100 {
		t.Fatalf("built-in defaults: %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("baseAPY: 20\nminStake: 250\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err = LoadSettingsDefaults(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.BaseAPY != 20 || cfg.MinStake != 250 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	// Unlisted fields keep their defaults.
	if cfg.MaxStake != 1000000 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}
