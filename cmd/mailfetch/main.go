package main

import (
	"errors"
	"os"
	"strings"

	"mailfetch/internal/config"
	"mailfetch/internal/credential"
	"mailfetch/internal/fetcher"
	"mailfetch/internal/logging"
	"mailfetch/internal/models"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	usernameFlag string
	passwordFlag string
	serverFlag   string
	backendFlag  string
	mailboxFlag  string
	envFileFlag  string
	sinceFlag    float64
	keyringFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "mailfetch",
	Short: "Email Fetcher",
	Long: `Fetch the messages of an IMAP mailbox and log sender and subject of each.

Two backends are available:
  sdk       walks the mailbox one message at a time and reads only the envelope
  protocol  searches by date, fetches all matches at once and parses them fully

A failing sdk fetch exits with -1 (connect), -2 (login), -3 (select),
-4 (fetch) or -5 (disconnect).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFetch,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.Flags().StringVar(&usernameFlag, "username", "", "Mailbox login")
	rootCmd.Flags().StringVar(&passwordFlag, "password", "", "Mailbox password")
	rootCmd.Flags().StringVar(&serverFlag, "server", config.DefaultServer, "IMAP server host")
	rootCmd.Flags().StringVar(&backendFlag, "backend", config.DefaultBackend, "Fetch backend: sdk or protocol")
	rootCmd.Flags().StringVar(&mailboxFlag, "mailbox", config.DefaultMailBox, "Mailbox to read")
	rootCmd.Flags().StringVar(&envFileFlag, "env-file", "", "dotenv file holding "+credential.PasswordEnv)
	rootCmd.Flags().Float64Var(&sinceFlag, "since", 0, "Last fetched timestamp, in unix seconds")
	rootCmd.Flags().BoolVar(&keyringFlag, "keyring", false, "Look the password up in the OS keyring")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Log.Errorf("Fetch failed: %v", err)
		os.Exit(fetcher.ExitCode(err))
	}
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := logging.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	if err := credential.LoadEnvFile(cfg.Credentials.EnvFile); err != nil {
		logging.Log.Warnf("Error reading env file: %v", err)
	}

	user := cfg.Credentials.Username
	logging.Log.Infof("Username: %s", user)

	resolver := credential.Resolver{
		Explicit:   cfg.Credentials.Password,
		UseKeyring: cfg.Credentials.Keyring,
	}
	password, err := resolver.Password(user)
	switch {
	case err == nil:
		logging.Log.Info("Password: ***")
	case errors.Is(err, credential.ErrNotFound):
		logging.Log.Warn("No password provided!")
	default:
		logging.Log.Warnf("No password provided! (%v)", err)
	}

	mailboxFetcher, err := fetcher.New(fetcher.Kind(cfg.IMAP.Backend), fetcher.WithMailBox(cfg.IMAP.MailBox))
	if err != nil {
		return err
	}

	emails, err := mailboxFetcher.FetchEmailsSince(cfg.IMAP.Since, cfg.IMAP.Server, user, password)
	if err != nil {
		return err
	}

	logEmails(emails)
	return nil
}

// loadConfig reads the optional config file and lets explicitly set flags override it
func loadConfig(cmd *cobra.Command) (*models.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("username") {
		cfg.Credentials.Username = usernameFlag
	}
	if flags.Changed("password") {
		cfg.Credentials.Password = passwordFlag
	}
	if flags.Changed("server") {
		cfg.IMAP.Server = serverFlag
	}
	if flags.Changed("backend") {
		cfg.IMAP.Backend = strings.ToLower(backendFlag)
	}
	if flags.Changed("mailbox") {
		cfg.IMAP.MailBox = mailboxFlag
	}
	if flags.Changed("since") {
		cfg.IMAP.Since = sinceFlag
	}
	if flags.Changed("env-file") {
		cfg.Credentials.EnvFile = envFileFlag
	}
	if flags.Changed("keyring") {
		cfg.Credentials.Keyring = keyringFlag
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func logEmails(emails []models.Email) {
	for _, email := range emails {
		logging.Log.Infof("From: %s", email.Source)
		logging.Log.Infof("Subject: %s", email.Subject)
		if email.HasAttachments() {
			logging.Log.Infof("Attachments: %d", len(email.Attachments))
		}
		logging.Log.Info("----------------------------------------------------")
	}
}
