// Package config loads analog's optional config.yaml from the data directory.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Filename is the config file name inside the data directory.
const Filename = "config.yaml"

// Storage backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds the full configuration for analog.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Board   BoardConfig   `yaml:"board"`
}

// StorageConfig selects where the board snapshot lives.
type StorageConfig struct {
	Backend string      `yaml:"backend"`
	File    string      `yaml:"file"` // relative to the data directory unless absolute
	Redis   RedisConfig `yaml:"redis"`
}

const redactedSecret = "********"

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db"`
	Key      string        `yaml:"key"`
	Timeout  time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, logfmt
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// BoardConfig holds defaults for board commands.
type BoardConfig struct {
	CarryIncomplete bool `yaml:"carryIncomplete"`
	SeedSample      bool `yaml:"seedSample"`
}

// Default returns the configuration used when no config.yaml exists.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			File:    "analog-board.json",
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Key:     "analog:board",
				Timeout: 2 * time.Second,
			},
		},
		Log:    LogConfig{Level: "warn", Format: "text"},
		Server: ServerConfig{Addr: "127.0.0.1:7823"},
		Board:  BoardConfig{CarryIncomplete: true, SeedSample: true},
	}
}

// Path returns the config file path for a data directory.
func Path(dir string) string {
	return filepath.Join(dir, Filename)
}

// Load reads dir/config.yaml over the defaults and then applies ANALOG_*
// environment overrides. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(dir))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", Filename, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", Filename, err)
		}
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from the environment.
func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("ANALOG_STORAGE"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := getenv("ANALOG_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := getenv("ANALOG_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := getenv("ANALOG_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ANALOG_REDIS_DB: %w", err)
		}
		cfg.Storage.Redis.DB = db
	}
	if v := getenv("ANALOG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("ANALOG_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Storage.File) == "" {
			errs = append(errs, errors.New("storage.file: must not be empty"))
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr: must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q (want %s or %s)", c.Storage.Backend, BackendFile, BackendRedis))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// SnapshotPath resolves storage.file against the data directory.
func (c *Config) SnapshotPath(dir string) string {
	if filepath.IsAbs(c.Storage.File) {
		return c.Storage.File
	}
	return filepath.Join(dir, c.Storage.File)
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Storage.Redis.Password != "" {
		cp.Storage.Redis.Password = redactedSecret
	}
	return &cp
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteDefault writes the default config to dir unless one already exists.
// It reports whether a file was written.
func WriteDefault(dir string) (bool, error) {
	path := Path(dir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := Default().Marshal()
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", Filename, err)
	}
	return true, nil
}

// ParseFormatter maps a format name to a log formatter. Unknown names fall
// back to text.
func ParseFormatter(format string) log.Formatter {
	switch format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// NewLogger builds the process logger from cfg. An unparseable level falls
// back to warn.
func NewLogger(cfg LogConfig, w io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.WarnLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       ParseFormatter(cfg.Format),
		ReportTimestamp: level == log.DebugLevel,
		Prefix:          "analog",
	})
}
