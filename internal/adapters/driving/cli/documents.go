package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	documentsLimit int
	documentsJSON  bool
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Inspect ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the newest documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsGet,
}

func init() {
	documentsListCmd.Flags().IntVarP(&documentsLimit, "limit", "n", 50, "maximum number of documents (max 200)")
	documentsCmd.PersistentFlags().BoolVar(&documentsJSON, "json", false, "output as JSON")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsGetCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	docs, err := app.Documents.List(cmd.Context(), documentsLimit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		return printJSON(cmd, docs)
	}
	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}

	total, err := app.Documents.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}

	cmd.Printf("Documents (%d of %d):\n\n", len(docs), total)
	for _, doc := range docs {
		cmd.Printf("  %s  %-5s %s  %s\n", doc.ID, doc.SourceType, doc.CreatedAt.Format("2006-01-02 15:04"), doc.SourceName)
	}
	return nil
}

func runDocumentsGet(cmd *cobra.Command, args []string) error {
	doc, err := app.Documents.GetWithChunks(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if documentsJSON {
		return printJSON(cmd, doc)
	}

	cmd.Printf("ID:      %s\n", doc.Document.ID)
	cmd.Printf("Source:  %s (%s)\n", doc.Document.SourceName, doc.Document.SourceType)
	if doc.Document.Title != "" {
		cmd.Printf("Title:   %s\n", doc.Document.Title)
	}
	cmd.Printf("Created: %s\n", doc.Document.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("Chunks:  %d\n", len(doc.Chunks))
	for _, c := range doc.Chunks {
		cmd.Printf("\n  [%d] %d tokens\n  %s\n", c.ChunkIndex, c.TokenCount, c.Content)
	}
	return nil
}
