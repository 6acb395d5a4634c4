// Package config loads towerstats settings from built-in defaults, an optional
// YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvFeedURL = "TOWERSTATS_FEED_URL"
	EnvConfig  = "TOWERSTATS_CONFIG"
)

// DefaultFeedURL is the published CSV export of the session log.
const DefaultFeedURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vQE3KfSAHXOp3hNFuR5oq_lgtEdEUzJ6YiRcov5gDSdgVSvuJDuy6sFslSC76qIa3CPjYSl9sTwQUrO/pub?output=csv"

// Config holds the application configuration
type Config struct {
	Feed      FeedConfig      `yaml:"feed"`
	Players   PlayersConfig   `yaml:"players"`
	Stitching StitchingConfig `yaml:"stitching"`
	Elo       EloConfig       `yaml:"elo"`
	Server    ServerConfig    `yaml:"server"`
}

// FeedConfig locates the raw session log
type FeedConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Seat maps a legacy seat color to a player and display color.
// An empty Player means the seat was never assigned to anyone.
type Seat struct {
	Player string `yaml:"player"`
	Hex    string `yaml:"hex"`
}

// PlayersConfig holds the legacy color table
type PlayersConfig struct {
	Colors map[string]Seat `yaml:"colors"`
}

// StitchingConfig tunes the cross-midnight filter
type StitchingConfig struct {
	MaxContinuationHour int      `yaml:"max_continuation_hour"`
	LegacyDatesToIgnore []string `yaml:"legacy_dates_to_ignore"`
}

// EloConfig holds rating parameters
type EloConfig struct {
	Initial float64 `yaml:"initial"`
	KFactor float64 `yaml:"k_factor"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Feed: FeedConfig{
			URL:     DefaultFeedURL,
			Timeout: 30 * time.Second,
		},
		Players: PlayersConfig{Colors: DefaultColors()},
		Stitching: StitchingConfig{
			MaxContinuationHour: 5,
			LegacyDatesToIgnore: []string{
				"2025-06-02",
				"2025-06-04",
				"2025-09-11",
				"2025-09-16",
				"2025-10-01",
				"2025-10-15",
			},
		},
		Elo:    EloConfig{Initial: 1500, KFactor: 32},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// DefaultColors returns the seat table used by the v1 payloads.
func DefaultColors() map[string]Seat {
	return map[string]Seat{
		"pink":   {Player: "MEHDI", Hex: "#FFC0CB"},
		"green":  {Player: "JULIEN", Hex: "#90EE90"},
		"orange": {Player: "LOUIS", Hex: "#FFA500"},
		"yellow": {Player: "ALEX", Hex: "#FFFF00"},
		"purple": {Player: "ERIC", Hex: "#9370DB"},
		"blue2":  {Player: "BENOIT", Hex: "#4169E1"},
		"white":  {Player: "DAVID", Hex: "#FFFFFF"},
		"blue":   {},
		"red":    {},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides. A .env file in the working
// directory is honoured when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if u := os.Getenv(EnvFeedURL); u != "" {
		cfg.Feed.URL = u
	}

	// Keys absent from the file keep their defaults. Explicit zero values that
	// make no sense fall back too; max_continuation_hour 0 is a valid window.
	def := Default()
	if cfg.Feed.URL == "" {
		cfg.Feed.URL = def.Feed.URL
	}
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = def.Feed.Timeout
	}
	if len(cfg.Players.Colors) == 0 {
		cfg.Players.Colors = def.Players.Colors
	}
	if cfg.Elo.Initial == 0 {
		cfg.Elo.Initial = def.Elo.Initial
	}
	if cfg.Elo.KFactor == 0 {
		cfg.Elo.KFactor = def.Elo.KFactor
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}

	if cfg.Stitching.MaxContinuationHour < 0 || cfg.Stitching.MaxContinuationHour > 23 {
		return nil, fmt.Errorf("stitching.max_continuation_hour must be in [0, 23], got %d", cfg.Stitching.MaxContinuationHour)
	}
	return cfg, nil
}

// ColorTable returns the seat color -> player mapping.
func (c *Config) ColorTable() map[string]string {
	out := make(map[string]string, len(c.Players.Colors))
	for color, seat := range c.Players.Colors {
		out[color] = seat.Player
	}
	return out
}

// PlayerColors returns player -> display color, for presentation.
func (c *Config) PlayerColors() map[string]string {
	out := make(map[string]string, len(c.Players.Colors))
	for _, seat := range c.Players.Colors {
		if seat.Player != "" {
			out[seat.Player] = seat.Hex
		}
	}
	return out
}
