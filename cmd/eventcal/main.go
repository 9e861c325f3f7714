// Command eventcal runs the eventcal calendar backend and its tools.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/bob-jr-kab/eventcal/auth"
	"github.com/bob-jr-kab/eventcal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "eventcal",
	Short: "A personal calendar backed by Firebase",
	Long: `eventcal serves a personal calendar: accounts live in Firebase
Authentication, events in Firestore, PostgreSQL or memory, and every
browser session is signed out after a spell of inactivity.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $EVENTCAL_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.ServiceAccountFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountFile))
	}
	return firebase.NewApp(ctx, &firebase.Config{
		ProjectID: cfg.FirebaseProjectID,
	}, opts...)
}

func newToolkit(cfg *config.Config) *auth.Toolkit {
	toolkit := &auth.Toolkit{
		APIKey:  cfg.FirebaseAPIKey,
		BaseURL: auth.DefaultToolkitURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
	if host := os.Getenv(config.AuthEmulatorEnv); host != "" {
		toolkit.BaseURL = auth.EmulatorToolkitURL(host)
	}
	return toolkit
}
