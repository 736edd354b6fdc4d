// Package cli implements the sercha-kb command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	httpadapter "github.com/custodia-labs/sercha-kb/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-kb/internal/config"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/metrics"
)

// App is the assembled runtime the commands operate on
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Search    driving.SearchService
	Documents driving.DocumentService
	Auth      driving.AuthService // nil when no JWT secret is configured
	Metrics   *metrics.Metrics
	DB        httpadapter.Pinger
	Redis     httpadapter.Pinger // nil without a cache
	Close     func() error
}

// Bootstrap builds the App from an optional config file path
type Bootstrap func(ctx context.Context, configFile string) (*App, error)

// annotation that marks commands which run without the App
const noBootstrap = "no-bootstrap"

var (
	version    = "dev"
	configFile string
	bootstrap  Bootstrap
	app        *App
)

var rootCmd = &cobra.Command{
	Use:   "sercha-kb",
	Short: "Governed knowledge-base retrieval",
	Long: `sercha-kb ingests documents into a knowledge base and answers
governed searches over them. Every hit is scored, filtered by a policy
profile and returned with a citation.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupApp,
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		return closeApp()
	},
}

func init() {
	rootCmd.SetOut(os.Stdout)
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a TOML config file (default $KB_CONFIG_FILE)")
}

// Execute runs the root command
func Execute(ctx context.Context, ver string, b Bootstrap) error {
	version = ver
	bootstrap = b
	defer closeApp()
	return rootCmd.ExecuteContext(ctx)
}

func setupApp(cmd *cobra.Command, _ []string) error {
	if !needsApp(cmd) {
		return nil
	}
	if bootstrap == nil {
		return errors.New("application not configured")
	}
	if app != nil {
		return nil
	}

	a, err := bootstrap(cmd.Context(), configFile)
	if err != nil {
		return err
	}
	app = a
	return nil
}

// needsApp reports whether cmd operates on the knowledge base
func needsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, skip := c.Annotations[noBootstrap]; skip {
			return false
		}
		switch c.Name() {
		case "help", "completion":
			return false
		}
	}
	return true
}

func closeApp() error {
	if app == nil {
		return nil
	}
	a := app
	app = nil
	if a.Close != nil {
		return a.Close()
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
