package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var (
	searchTopK           int
	searchMode           string
	searchPolicy         string
	searchMinScore       float64
	searchMaxPerDocument int
	searchNoFallback     bool
	searchSourceTypes    []string
	searchBlocked        []string
	searchJSON           bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Long: `Runs a governed search. Hybrid mode blends embedding similarity,
keyword (BM25) ranking and freshness; results are filtered by the policy
profile and cited as doc:<id>:chunk:<id>.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", domain.DefaultTopK, "maximum number of hits")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", string(domain.SearchModeHybrid), "fts, vector or hybrid")
	searchCmd.Flags().StringVarP(&searchPolicy, "policy", "p", "", "policy profile: strict, balanced or recall")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "override the policy minimum score")
	searchCmd.Flags().IntVar(&searchMaxPerDocument, "max-per-document", 0, "override the policy per-document cap")
	searchCmd.Flags().BoolVar(&searchNoFallback, "no-fallback", false, "never reinstate below-threshold hits")
	searchCmd.Flags().StringSliceVar(&searchSourceTypes, "source-type", nil, "restrict to these source types")
	searchCmd.Flags().StringSliceVar(&searchBlocked, "block", nil, "block documents mentioning these keywords")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	mode, err := domain.ParseSearchMode(searchMode)
	if err != nil {
		return err
	}

	req := domain.SearchRequest{
		Query:         args[0],
		TopK:          searchTopK,
		Mode:          mode,
		PolicyProfile: searchPolicy,
	}

	flags := cmd.Flags()
	if flags.Changed("min-score") {
		req.MinScore = &searchMinScore
	}
	if flags.Changed("max-per-document") {
		req.MaxPerDocument = &searchMaxPerDocument
	}
	if flags.Changed("no-fallback") {
		allow := !searchNoFallback
		req.AllowFallback = &allow
	}
	if flags.Changed("source-type") {
		req.AllowedSourceTypes = searchSourceTypes
	}
	if flags.Changed("block") {
		req.BlockedSourceKeywords = searchBlocked
	}

	result, err := app.Search.Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, result)
	}
	return outputSearchTable(cmd, result)
}

func outputSearchTable(cmd *cobra.Command, result *domain.SearchResult) error {
	if len(result.Hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s, policy %s):\n\n", result.Mode, result.Policy.Name)
	for i, hit := range result.Hits {
		title := hit.Document.Title
		if title == "" {
			title = hit.Document.SourceName
		}

		cmd.Printf("  [%d] %s (%.3f, %s)\n", i+1, title, hit.Score, hit.Confidence)
		cmd.Printf("      %s\n", hit.ReferenceID)
		if len(hit.Flags) > 0 {
			flags := make([]string, len(hit.Flags))
			for j, f := range hit.Flags {
				flags[j] = string(f)
			}
			cmd.Printf("      flags: %s\n", strings.Join(flags, ", "))
		}
		if hit.Snippet != "" {
			cmd.Printf("      %s\n", hit.Snippet)
		}
		cmd.Println()
	}
	return nil
}
