package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/KaramelBytes/areamail-cli/internal/dispatch"
	"github.com/KaramelBytes/areamail-cli/internal/gauth"
	"github.com/spf13/cobra"
)

var (
	authCredentials string
	authTimeout     time.Duration
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Gmail draft creation and store the token",
	Long: `Run the OAuth2 installed-app flow for the Gmail compose scope. Open the
printed URL, approve access, and the token is stored at token_path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		creds := cfg.CredentialsPath
		if authCredentials != "" {
			creds = authCredentials
		}
		oc, err := gauth.LoadConfig(creds, dispatch.GmailComposeScope)
		if err != nil {
			return fmt.Errorf("%w\n  Download an OAuth client (Desktop app) JSON and set credentials_path", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, authTimeout)
		defer cancel()

		out := cmd.OutOrStdout()
		tok, err := gauth.Authorize(ctx, oc, func(u string) {
			fmt.Fprintf(out, "Open this URL in your browser to authorize:\n\n  %s\n\nWaiting for the redirect...\n", u)
		})
		if err != nil {
			return err
		}
		if err := gauth.SaveToken(cfg.TokenPath, tok); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Token saved to %s\n", cfg.TokenPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.Flags().StringVar(&authCredentials, "credentials", "", "OAuth client secrets JSON (overrides credentials_path)")
	authCmd.Flags().DurationVar(&authTimeout, "timeout", 5*time.Minute, "how long to wait for the browser redirect")
}
