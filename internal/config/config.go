package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Log      LogConfig      `yaml:"log" toml:"log" envPrefix:"LOG_"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis" envPrefix:"REDIS_"`
	Postgres PostgresConfig `yaml:"postgres" toml:"postgres" envPrefix:"POSTGRES_"`
	Upstream UpstreamConfig `yaml:"upstream" toml:"upstream" envPrefix:"UPSTREAM_"`
	Quiz     QuizConfig     `yaml:"quiz" toml:"quiz" envPrefix:"QUIZ_"`
	Client   ClientConfig   `yaml:"client" toml:"client" envPrefix:"CLIENT_"`
}

type ServerConfig struct {
	Port string `yaml:"port" toml:"port" env:"PORT"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" env:"LEVEL"`
	Format string `yaml:"format" toml:"format" env:"FORMAT"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr" env:"ADDR"`
	Password string `yaml:"password" toml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" toml:"db" env:"DB"`
	TTL      string `yaml:"ttl" toml:"ttl" env:"TTL"`
}

type PostgresConfig struct {
	URL string `yaml:"url" toml:"url" env:"URL"`
}

// UpstreamConfig points at the web app that owns the question sheet and mails results.
type UpstreamConfig struct {
	URL string `yaml:"url" toml:"url" env:"URL"`
}

type QuizConfig struct {
	TTL           string `yaml:"ttl" toml:"ttl" env:"TTL"`
	BankID        string `yaml:"bank_id" toml:"bank_id" env:"BANK_ID"`
	DedupWindow   string `yaml:"dedup_window" toml:"dedup_window" env:"DEDUP_WINDOW"`
	Tick          string `yaml:"tick" toml:"tick" env:"TICK"`
	FeedbackDelay string `yaml:"feedback_delay" toml:"feedback_delay" env:"FEEDBACK_DELAY"`
	PersistEvery  int    `yaml:"persist_every" toml:"persist_every" env:"PERSIST_EVERY"`
}

// ClientConfig configures the terminal player.
type ClientConfig struct {
	BaseURL   string `yaml:"base_url" toml:"base_url" env:"BASE_URL"`
	SessionDB string `yaml:"session_db" toml:"session_db" env:"SESSION_DB"`
	Slot      string `yaml:"slot" toml:"slot" env:"SLOT"`
	ExitLink  string `yaml:"exit_link" toml:"exit_link" env:"EXIT_LINK"`
	LogFile   string `yaml:"log_file" toml:"log_file" env:"LOG_FILE"`
	// Timeout bounds each backend call. Empty means no client-side limit.
	Timeout string `yaml:"timeout" toml:"timeout" env:"TIMEOUT"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Redis.TTL = "24h"
	cfg.Quiz.TTL = "10m"
	cfg.Quiz.BankID = "default"
	cfg.Quiz.DedupWindow = "1m"
	cfg.Quiz.Tick = "1s"
	cfg.Quiz.FeedbackDelay = "1s"
	cfg.Quiz.PersistEvery = 5
	cfg.Client.BaseURL = "http://127.0.0.1:8080"
	cfg.Client.SessionDB = DefaultSessionDBPath()
	cfg.Client.Slot = "parent_online_session"
	return cfg
}

// Load reads a YAML or TOML file (by extension) over the defaults, then applies
// environment variables. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode toml config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode yaml config: %w", err)
		}
	}
	return nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

// DefaultSessionDBPath is the player's session database under the XDG data home.
func DefaultSessionDBPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return "vocab-quiz.db"
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "vocab-quiz", "session.db")
}
