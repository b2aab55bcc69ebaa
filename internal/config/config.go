package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"mailfetch/internal/models"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	DefaultServer   = "imap.mail.me.com"
	DefaultBackend  = "sdk"
	DefaultMailBox  = "INBOX"
	DefaultPageURL  = "http://www.python.org"
	defaultLogLevel = "info"
	defaultFormat   = "json"
)

// Default returns a Config populated with the built-in defaults
func Default() *models.Config {
	cfg := &models.Config{}
	applyDefaults(cfg)
	cfg.Browser.Headless = true
	return cfg
}

// Load reads the configuration from the specified YAML file and returns a Config struct.
// Missing fields fall back to the defaults.
func Load(filepath string) (*models.Config, error) {
	configFile, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(configFile, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath, err)
	}
	applyDefaults(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the values that have a closed set of options
func Validate(cfg *models.Config) error {
	switch cfg.IMAP.Backend {
	case "sdk", "protocol":
	default:
		return fmt.Errorf("unknown imap backend %q (want sdk or protocol)", cfg.IMAP.Backend)
	}

	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q (want json or text)", cfg.Log.Format)
	}

	if math.IsNaN(cfg.IMAP.Since) || math.IsInf(cfg.IMAP.Since, 0) {
		return fmt.Errorf("imap.since must be a finite number, got %v", cfg.IMAP.Since)
	}
	if cfg.IMAP.Since < 0 {
		return fmt.Errorf("imap.since must not be negative, got %v", cfg.IMAP.Since)
	}

	return nil
}

func applyDefaults(cfg *models.Config) {
	if cfg.IMAP.Server == "" {
		cfg.IMAP.Server = DefaultServer
	}
	cfg.IMAP.Backend = strings.ToLower(strings.TrimSpace(cfg.IMAP.Backend))
	if cfg.IMAP.Backend == "" {
		cfg.IMAP.Backend = DefaultBackend
	}
	if cfg.IMAP.MailBox == "" {
		cfg.IMAP.MailBox = DefaultMailBox
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaultFormat
	}
	if cfg.Browser.URL == "" {
		cfg.Browser.URL = DefaultPageURL
	}
	if cfg.Browser.Timeout <= 0 {
		cfg.Browser.Timeout = 30 * time.Second
	}
}
