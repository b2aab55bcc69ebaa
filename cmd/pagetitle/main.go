package main

import (
	"time"

	"mailfetch/internal/browser"
	"mailfetch/internal/config"
	"mailfetch/internal/logging"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	urlFlag      string
	headlessFlag bool
	timeoutFlag  time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "pagetitle",
	Short:         "Open a web page in a headless browser and log its title",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Default()
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if cmd.Flags().Changed("url") {
			cfg.Browser.URL = urlFlag
		}
		if cmd.Flags().Changed("headless") {
			cfg.Browser.Headless = headlessFlag
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Browser.Timeout = timeoutFlag
		}

		if err := logging.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
			return err
		}

		rb := browser.NewRodBrowser(cfg.Browser.Headless, cfg.Browser.Timeout)
		_, err := browser.LogTitle(rb, cfg.Browser.URL)
		return err
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.Flags().StringVar(&urlFlag, "url", config.DefaultPageURL, "Page to open")
	rootCmd.Flags().BoolVar(&headlessFlag, "headless", true, "Run the browser without a window")
	rootCmd.Flags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Page load timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Log.Fatalf("Error: %v", err)
	}
}
