/*
Package config loads punch settings from the environment.

VARIABLES:
  PUNCH_DATABASE_URL   SQLite path (punch.db)
  PUNCH_BIND           HTTP listen address (127.0.0.1:8080)
  PUNCH_TIMEZONE       reporting zone for new projects (Local)
  PUNCH_WEEK_START     first day of a reporting week (monday)
  PUNCH_OVERHEAD       overhead of new projects (15m)
  PUNCH_DAY_WINDOW     days listed in a report (14)
  PUNCH_WEEK_WINDOW    weeks listed in a report (8)
  PUNCH_RECENT_EVENTS  events listed under a report (10)
  PUNCH_CORS_ORIGINS   comma separated allowed origins (*)
  PUNCH_OTEL_ENDPOINT  OTLP/HTTP endpoint; tracing is off when empty

Command line flags override the environment.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/simmons/punch/engine"
	"github.com/simmons/punch/tracker"
)

type Config struct {
	DatabaseURL  string        `env:"PUNCH_DATABASE_URL" envDefault:"punch.db"`
	Bind         string        `env:"PUNCH_BIND" envDefault:"127.0.0.1:8080"`
	TimeZone     string        `env:"PUNCH_TIMEZONE" envDefault:"Local"`
	WeekStart    string        `env:"PUNCH_WEEK_START" envDefault:"monday"`
	Overhead     time.Duration `env:"PUNCH_OVERHEAD" envDefault:"15m"`
	DayWindow    int           `env:"PUNCH_DAY_WINDOW" envDefault:"14"`
	WeekWindow   int           `env:"PUNCH_WEEK_WINDOW" envDefault:"8"`
	RecentEvents int           `env:"PUNCH_RECENT_EVENTS" envDefault:"10"`
	CORSOrigins  []string      `env:"PUNCH_CORS_ORIGINS" envDefault:"*" envSeparator:","`
	OTelEndpoint string        `env:"PUNCH_OTEL_ENDPOINT"`
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails fast on settings no report could be built with.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return &engine.ConfigurationError{Field: "database_url", Value: c.DatabaseURL, Reason: "is required"}
	}
	if _, err := engine.LoadZone(c.TimeZone); err != nil {
		return err
	}
	if _, err := engine.ParseWeekday(c.WeekStart); err != nil {
		return err
	}
	if c.Overhead < 0 || c.Overhead%time.Minute != 0 {
		return &engine.ConfigurationError{Field: "overhead", Value: c.Overhead, Reason: "must be whole non-negative minutes"}
	}
	if c.DayWindow <= 0 {
		return &engine.ConfigurationError{Field: "day_window", Value: c.DayWindow, Reason: "must be positive"}
	}
	if c.WeekWindow <= 0 {
		return &engine.ConfigurationError{Field: "week_window", Value: c.WeekWindow, Reason: "must be positive"}
	}
	if c.RecentEvents <= 0 {
		return &engine.ConfigurationError{Field: "recent_events", Value: c.RecentEvents, Reason: "must be positive"}
	}
	return nil
}

// TrackerOptions converts the settings for tracker.NewService. Call it on
// a validated Config.
func (c Config) TrackerOptions() tracker.Options {
	weekStart, _ := engine.ParseWeekday(c.WeekStart)
	return tracker.Options{
		WeekStart:    weekStart,
		DayWindow:    c.DayWindow,
		WeekWindow:   c.WeekWindow,
		RecentEvents: c.RecentEvents,
		DefaultZone:  c.TimeZone,
	}
}
