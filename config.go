package main

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Policy string

const (
	PolicyCyclic     Policy = "cyclic"
	PolicyWindow     Policy = "window"
	PolicySequential Policy = "sequential"
)

type CaptionMode string

const (
	CaptionSeparate   CaptionMode = "separate"
	CaptionFirstMedia CaptionMode = "first-media"
)

type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN"`
	AdminUserID   int64  `env:"ADMIN_USER"`

	// Transport
	WebhookURL    string `env:"WEBHOOK_URL"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	WebhookPath   string `env:"WEBHOOK_PATH" envDefault:"/webhook"`
	Port          int    `env:"PORT" envDefault:"10000"`

	// Calendar
	TZName           string `env:"TZ_NAME" envDefault:"Europe/Amsterdam"`
	Policy           Policy `env:"ADVENT_POLICY" envDefault:"cyclic"`
	StartDate        string `env:"ADVENT_START" envDefault:"2024-12-26"`
	EndDate          string `env:"ADVENT_END"`
	WindowMarkOnMiss bool   `env:"WINDOW_MARK_ON_MISS" envDefault:"false"`

	// Presentation
	CaptionMode CaptionMode `env:"CAPTION_MODE" envDefault:"separate"`
	DayMarker   bool        `env:"DAY_MARKER" envDefault:"true"`

	// Storage
	ContentPath string `env:"CONTENT_PATH"`
	DBPath      string `env:"DB_PATH" envDefault:"data/advent.db"`

	// Empty disables the nudge.
	NudgeSchedule string `env:"NUDGE_SCHEDULE"`

	loc   *time.Location
	start time.Time
	end   time.Time // zero when ADVENT_END is unset
}

// loadConfig reads .env (if present) and the process environment.
func loadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("loadConfig: .env not loaded: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	loc, err := time.LoadLocation(cfg.TZName)
	if err != nil {
		return fmt.Errorf("TZ_NAME %q: %w", cfg.TZName, err)
	}
	cfg.loc = loc

	start, err := parseDate(cfg.StartDate)
	if err != nil {
		return fmt.Errorf("ADVENT_START %q: %w", cfg.StartDate, err)
	}
	cfg.start = start

	cfg.end = time.Time{}
	if cfg.EndDate != "" {
		end, err := parseDate(cfg.EndDate)
		if err != nil {
			return fmt.Errorf("ADVENT_END %q: %w", cfg.EndDate, err)
		}
		if end.Before(start) {
			return fmt.Errorf("ADVENT_END %s is before ADVENT_START %s", cfg.EndDate, cfg.StartDate)
		}
		cfg.end = end
	}

	switch cfg.Policy {
	case PolicyCyclic, PolicyWindow, PolicySequential:
	default:
		return fmt.Errorf("unknown ADVENT_POLICY %q", cfg.Policy)
	}

	switch cfg.CaptionMode {
	case CaptionSeparate, CaptionFirstMedia:
	default:
		return fmt.Errorf("unknown CAPTION_MODE %q", cfg.CaptionMode)
	}

	switch {
	case cfg.WebhookPath == "" || cfg.WebhookPath == "/":
		cfg.WebhookPath = "/webhook"
	case cfg.WebhookPath[0] != '/':
		cfg.WebhookPath = "/" + cfg.WebhookPath
	}
	return nil
}

func (cfg *Config) Location() *time.Location {
	if cfg.loc == nil {
		return time.UTC
	}
	return cfg.loc
}
