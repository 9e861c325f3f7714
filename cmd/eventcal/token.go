package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <name>",
	Short: "Mint an ID token for a service account user",
	Long: `token signs in as the user "service-<name>" with a Firebase custom
token and prints the Identity Toolkit response. Send its idToken as a Bearer
token to use the API without a browser session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.CheckFirebase(os.Getenv); err != nil {
			return err
		}
		ctx := cmd.Context()

		app, err := newFirebaseApp(ctx, cfg)
		if err != nil {
			return err
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			return err
		}

		uid := fmt.Sprintf("service-%s", args[0])
		customToken, err := authClient.CustomToken(ctx, uid)
		if err != nil {
			return err
		}

		resp, err := newToolkit(cfg).SignInWithCustomToken(ctx, customToken)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}
