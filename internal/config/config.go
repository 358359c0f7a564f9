// Package config loads campcheck settings from a json5 file, an optional
// <name>.local.<ext> override and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

type Config struct {
	Addr        string `json:"addr"`
	DBPath      string `json:"db_path"`
	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"`
	FrontendURL string `json:"frontend_url"`

	CacheTTL  Duration `json:"cache_ttl"`
	CacheSize int      `json:"cache_size"`

	// RequestsPerSecond and Burst bound outgoing requests per venue host.
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	// FanOut limits concurrent venue checks for a trip plan.
	FanOut int `json:"fan_out"`

	WatchSchedule string `json:"watch_schedule"`

	Discord Discord `json:"discord"`
}

type Discord struct {
	Token     string `json:"token"`
	ChannelID string `json:"channel_id"`
	// Commands enables the slash-command bot. GuildID scopes its commands to
	// one server; empty registers them globally.
	Commands bool   `json:"commands"`
	GuildID  string `json:"guild_id"`
}

// Duration reads "30m" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// Default is the configuration used when no file is present.
func Default() Config {
	return Config{
		Addr:              ":8069",
		DBPath:            "./campcheck.duckdb",
		LogLevel:          "info",
		LogFormat:         "text",
		FrontendURL:       "*",
		CacheTTL:          Duration{30 * time.Minute},
		CacheSize:         4096,
		RequestsPerSecond: 2,
		Burst:             2,
		FanOut:            4,
		WatchSchedule:     "*/30 * * * *",
	}
}

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	return strings.TrimSuffix(f, ext), strings.TrimPrefix(ext, ".")
}

// Load merges defaults, the file at path, its .local sibling and the
// environment. Missing files are not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		fromFiles, err := readFiles(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Debug("no config file found, using defaults", slog.String("path", path))
		case err != nil:
			return cfg, err
		default:
			if err := mergo.Merge(&cfg, fromFiles, mergo.WithOverride); err != nil {
				return cfg, fmt.Errorf("merge config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func readFiles(name string) (Config, error) {
	var out Config
	found := false

	base, ext := splitExt(name)
	for _, p := range []string{name, fmt.Sprintf("%s.local.%s", base, ext)} {
		b, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return out, err
		}
		if len(b) == 0 {
			continue
		}
		var layer Config
		if err := json5.Unmarshal(b, &layer); err != nil {
			return out, fmt.Errorf("parse %s: %w", p, err)
		}
		if err := mergo.Merge(&out, layer, mergo.WithOverride); err != nil {
			return out, err
		}
		if found {
			slog.Info("merging config with local overrides", slog.String("local", p))
		}
		found = true
	}
	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func applyEnv(cfg *Config) {
	cfg.Addr = getEnv("CAMPCHECK_ADDR", cfg.Addr)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)
	cfg.Discord.Token = getEnv("DISCORD_TOKEN", cfg.Discord.Token)
	cfg.Discord.ChannelID = getEnv("DISCORD_CHANNEL_ID", cfg.Discord.ChannelID)
	cfg.Discord.GuildID = getEnv("DISCORD_GUILD_ID", cfg.Discord.GuildID)
	if v := os.Getenv("DISCORD_COMMANDS"); v != "" {
		cfg.Discord.Commands = v == "1" || strings.EqualFold(v, "true")
	}
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "addr is empty")
	}
	if c.FanOut < 1 {
		problems = append(problems, "fan_out must be at least 1")
	}
	if c.RequestsPerSecond <= 0 {
		problems = append(problems, "requests_per_second must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("log_format %q must be text or json", c.LogFormat))
	}
	if c.Discord.Commands && c.Discord.Token == "" {
		problems = append(problems, "discord.commands needs discord.token")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// Logger builds the process logger described by the config.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
