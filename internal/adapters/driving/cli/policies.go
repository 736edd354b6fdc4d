package cli

import (
	"github.com/spf13/cobra"
)

var policiesJSON bool

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List governance policy profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		policies := app.Search.Policies()
		defaultName := app.Search.DefaultPolicy().Name
		if policiesJSON {
			return printJSON(cmd, policies)
		}

		cmd.Printf("%-10s %-10s %-17s %s\n", "PROFILE", "MIN SCORE", "MAX PER DOCUMENT", "FALLBACK")
		for _, p := range policies {
			marker := ""
			if p.Name == defaultName {
				marker = " (default)"
			}
			cmd.Printf("%-10s %-10.2f %-17d %t%s\n", p.Name, p.MinScore, p.MaxPerDocument, p.AllowFallback, marker)
		}
		return nil
	},
}

func init() {
	policiesCmd.Flags().BoolVar(&policiesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(policiesCmd)
}
