package models

import "time"

// Config represents the application configuration
type Config struct {
	IMAP        IMAPConfig        `yaml:"imap"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Log         LogConfig         `yaml:"log"`
	Browser     BrowserConfig     `yaml:"browser"`
}

// IMAPConfig represents the mailbox to fetch from and the backend used to do it
type IMAPConfig struct {
	Server  string  `yaml:"server"`
	Backend string  `yaml:"backend"` // "sdk" or "protocol"
	MailBox string  `yaml:"mailbox"`
	Since   float64 `yaml:"since"` // unix seconds
}

// CredentialsConfig represents where the mailbox login comes from
type CredentialsConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	EnvFile  string `yaml:"envFile"`
	Keyring  bool   `yaml:"keyring"`
}

// LogConfig represents logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// BrowserConfig represents the page-title browser settings
type BrowserConfig struct {
	URL      string        `yaml:"url"`
	Headless bool          `yaml:"headless"`
	Timeout  time.Duration `yaml:"timeout"`
}
