package cli

import (
	"github.com/spf13/cobra"

	httpadapter "github.com/custodia-labs/sercha-kb/internal/adapters/driving/http"
)

var serveHost string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves the knowledge-base API on PORT until interrupted.
Ingestion routes require an admin token when JWT_SECRET is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "interface to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := httpadapter.DefaultConfig()
	cfg.Host = serveHost
	cfg.Port = app.Config.Port
	cfg.Version = version
	cfg.UploadDir = app.Config.UploadDir

	if app.Auth == nil {
		app.Logger.Warn("JWT_SECRET not set; API authentication disabled")
	}

	server := httpadapter.NewServer(cfg,
		app.Auth,
		app.Search,
		app.Documents,
		app.Metrics,
		app.DB,
		app.Redis,
		app.Logger,
	)
	return server.Start(cmd.Context())
}
