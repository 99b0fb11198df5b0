package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/areamail-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set AreaMail configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "sender: %s\n", cfg.Sender)
		fmt.Fprintf(out, "default_recipient: %s\n", cfg.DefaultRecipient)
		if cfg.DefaultCC != "" {
			fmt.Fprintf(out, "default_cc: %s\n", cfg.DefaultCC)
		}
		fmt.Fprintf(out, "organization: %s\n", cfg.Organization)
		if cfg.SubjectTemplate != "" {
			fmt.Fprintf(out, "subject_template: %s\n", cfg.SubjectTemplate)
		}
		fmt.Fprintf(out, "group_sentinel: %s\n", cfg.GroupSentinel)
		fmt.Fprintf(out, "exclude_sentinel: %s\n", cfg.ExcludeSentinel)
		fmt.Fprintf(out, "header_literal: %s\n", cfg.HeaderLiteral)
		if cfg.SheetName != "" {
			fmt.Fprintf(out, "sheet_name: %s\n", cfg.SheetName)
		}
		if cfg.SheetIndex > 0 {
			fmt.Fprintf(out, "sheet_index: %d\n", cfg.SheetIndex)
		}
		fmt.Fprintf(out, "start_column: %d\n", cfg.StartColumn)
		if cfg.RecipientsFile != "" {
			fmt.Fprintf(out, "recipients_file: %s (sheet %s)\n", cfg.RecipientsFile, cfg.RecipientsSheet)
		}
		fmt.Fprintf(out, "backend: %s\n", cfg.Backend)
		fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		fmt.Fprintf(out, "credentials_path: %s\n", cfg.CredentialsPath)
		fmt.Fprintf(out, "token_path: %s\n", cfg.TokenPath)
		if cfg.GmailBaseURL != "" {
			fmt.Fprintf(out, "gmail_base_url: %s\n", cfg.GmailBaseURL)
		}
		fmt.Fprintf(out, "concurrency: %d\n", cfg.Concurrency)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "retry: %d attempts, %d-%dms\n", cfg.RetryMaxAttempts, cfg.RetryBaseDelayMs, cfg.RetryMaxDelayMs)
		fmt.Fprintf(out, "log_level: %s (json=%t)\n", cfg.LogLevel, cfg.LogJSON)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "⚠ %v\n", err)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setKey(cfg, key, val); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setKey(c *cfgpkg.Global, key, val string) error {
	atoi := func(lo int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < lo {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "sender":
		c.Sender = val
	case "default_recipient":
		c.DefaultRecipient = val
	case "default_cc":
		c.DefaultCC = val
	case "organization":
		c.Organization = val
	case "subject_template":
		c.SubjectTemplate = val
	case "group_sentinel":
		c.GroupSentinel = val
	case "exclude_sentinel":
		c.ExcludeSentinel = val
	case "header_literal":
		c.HeaderLiteral = val
	case "sheet_name":
		c.SheetName = val
	case "sheet_index":
		c.SheetIndex, err = atoi(0)
	case "start_column":
		c.StartColumn, err = atoi(0)
	case "recipients_file":
		c.RecipientsFile = val
	case "recipients_sheet":
		c.RecipientsSheet = val
	case "backend":
		switch strings.ToLower(val) {
		case "gmail":
			c.Backend = "gmail"
		case "dir", "directory", "local":
			c.Backend = "dir"
		default:
			return fmt.Errorf("invalid backend: %s (use gmail or dir)", val)
		}
	case "output_dir":
		c.OutputDir = val
	case "credentials_path":
		c.CredentialsPath = val
	case "token_path":
		c.TokenPath = val
	case "gmail_base_url":
		c.GmailBaseURL = val
	case "concurrency":
		c.Concurrency, err = atoi(1)
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(1)
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi(1)
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi(0)
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi(0)
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_json":
		c.LogJSON, err = strconv.ParseBool(val)
		if err != nil {
			err = fmt.Errorf("invalid bool for log_json: %v", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}
