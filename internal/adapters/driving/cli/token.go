package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token",
	Long: `Mints a signed API token with JWT_SECRET. Reader tokens may search
and list documents; admin tokens may also ingest.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenSubject, "subject", "s", "", "who the token is for")
	tokenCmd.Flags().StringVarP(&tokenRole, "role", "r", string(domain.RoleReader), "reader or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default 30 days)")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	if app.Auth == nil {
		return errors.New("JWT_SECRET is not configured")
	}

	issued, err := app.Auth.IssueToken(cmd.Context(), tokenSubject, domain.Role(tokenRole), tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	cmd.Println(issued.Token)
	cmd.PrintErrf("subject=%s role=%s expires=%s\n", issued.Subject, issued.Role, issued.ExpiresAt.Format(time.RFC3339))
	return nil
}
