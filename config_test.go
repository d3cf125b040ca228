package main

import (
	"testing"
)

func testConfig(t *testing.T, policy Policy) *Config {
	t.Helper()
	cfg := &Config{
		TZName:      "Europe/Amsterdam",
		Policy:      policy,
		StartDate:   "2024-12-26",
		CaptionMode: CaptionSeparate,
		DBPath:      "unused.db",
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return cfg
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env here
	t.Setenv("TELEGRAM_TOKEN", "token")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Policy != PolicyCyclic || cfg.CaptionMode != CaptionSeparate || !cfg.DayMarker {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Location().String() != "Europe/Amsterdam" {
		t.Errorf("zone = %s", cfg.Location())
	}
	if got := formatDate(cfg.start); got != "2024-12-26" {
		t.Errorf("start = %s", got)
	}
	if cfg.Port != 10000 || cfg.WebhookPath != "/webhook" {
		t.Errorf("transport defaults: port=%d path=%q", cfg.Port, cfg.WebhookPath)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADVENT_POLICY", "window")
	t.Setenv("ADVENT_START", "2025-12-01")
	t.Setenv("ADVENT_END", "2025-12-24")
	t.Setenv("WINDOW_MARK_ON_MISS", "true")
	t.Setenv("TZ_NAME", "Asia/Tokyo")
	t.Setenv("ADMIN_USER", "42")
	t.Setenv("WEBHOOK_PATH", "hook")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Policy != PolicyWindow || !cfg.WindowMarkOnMiss || cfg.AdminUserID != 42 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if formatDate(cfg.end) != "2025-12-24" {
		t.Errorf("end = %s", formatDate(cfg.end))
	}
	if cfg.WebhookPath != "/hook" {
		t.Errorf("webhook path = %q", cfg.WebhookPath)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"bad zone", func(c *Config) { c.TZName = "Mars/Olympus" }},
		{"bad start", func(c *Config) { c.StartDate = "26.12.2024" }},
		{"bad end", func(c *Config) { c.EndDate = "soon" }},
		{"end before start", func(c *Config) { c.EndDate = "2024-12-01" }},
		{"bad policy", func(c *Config) { c.Policy = "random" }},
		{"bad caption mode", func(c *Config) { c.CaptionMode = "inline" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				TZName:      "UTC",
				Policy:      PolicyCyclic,
				StartDate:   "2024-12-26",
				CaptionMode: CaptionSeparate,
			}
			tt.edit(cfg)
			if err := cfg.validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
