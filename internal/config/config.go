package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/constants"
	"github.com/edgarcoime/cthulhu-cli/internal/cthulhu/upload"
	"github.com/edgarcoime/cthulhu-cli/internal/store"
	"gopkg.in/yaml.v3"
)

const EnvBaseURL = "CTHULHU_BASE_URL"

// Config holds runtime settings. Sources apply in order: defaults, YAML file,
// environment, command-line flags.
type Config struct {
	BaseURL           string        `yaml:"base_url"`
	ShareBase         string        `yaml:"share_base"`
	Timeout           time.Duration `yaml:"timeout"`
	SuccessResetDelay time.Duration `yaml:"success_reset_delay"`
	ErrorResetDelay   time.Duration `yaml:"error_reset_delay"`
	Fingerprint       string        `yaml:"fingerprint"`
	HistoryFile       string        `yaml:"history_file"`
	HistoryLimit      int           `yaml:"history_limit"`
	LogLevel          string        `yaml:"log_level"`
	Web               WebConfig     `yaml:"web"`
}

type WebConfig struct {
	Addr        string        `yaml:"addr"`
	HTTPS       bool          `yaml:"https"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	BodyLimit   int           `yaml:"body_limit"`
	// AllowOrigins enables CORS on the JSON routes when non-empty.
	AllowOrigins string `yaml:"allow_origins"`
	AccessLog    bool   `yaml:"access_log"`
	Metrics      bool   `yaml:"metrics"`
}

func (c *Config) LoadDefaults() {
	c.BaseURL = constants.DefaultBaseURL
	c.Timeout = 30 * time.Second
	c.SuccessResetDelay = upload.DefaultSuccessResetDelay
	c.ErrorResetDelay = upload.DefaultErrorResetDelay
	c.HistoryLimit = store.DefaultHistoryLimit
	c.LogLevel = "info"
	c.Web = WebConfig{
		Addr:        ":3000",
		IdleTimeout: 30 * time.Minute,
		BodyLimit:   100 << 20,
		AccessLog:   true,
		Metrics:     true,
	}
	if p, err := store.DefaultHistoryPath(); err == nil {
		c.HistoryFile = p
	}
}

// Load returns defaults overlaid with the YAML file at path (if any) and the
// environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute http(s) url", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.SuccessResetDelay < 0 || c.ErrorResetDelay < 0 {
		return errors.New("reset delays must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger builds the text logger used by every command.
func (c *Config) NewLogger() *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
