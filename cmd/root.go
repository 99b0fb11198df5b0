package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	cfgpkg "github.com/KaramelBytes/areamail-cli/internal/config"
	"github.com/KaramelBytes/areamail-cli/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	// Logging flags (override config if set)
	flagLogLevel string
	flagLogJSON  bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int

	// Loaded configuration
	cfg *cfgpkg.Global
	log logger.Logger = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "areamail",
	Short: "AreaMail CLI: turn a regional leads extract into per-area email drafts",
	Long: `AreaMail reads a spreadsheet extract that is split into regional blocks,
normalizes it into data rows and prepares one HTML email draft per region,
either in Gmail or as .eml files in a local directory.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.areamail/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit logs as JSON (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max attempts per draft on 429/5xx (overrides config)")
}

func loadConfig() {
	// .env in the working directory feeds AREAMAIL_* variables
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to read .env: %v\n", err)
	}
	cfg = nil
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-json") {
		cfg.LogJSON = flagLogJSON
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	log = logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
}

// requireConfig fails commands that cannot run on defaults alone.
func requireConfig() error {
	if cfg == nil {
		return errors.New("configuration unavailable (see warning above)")
	}
	return nil
}
