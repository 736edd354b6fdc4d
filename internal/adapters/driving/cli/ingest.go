package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var (
	ingestType     string
	ingestTitle    string
	ingestMetadata string
	ingestName     string
	ingestJSON     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Add a document to the knowledge base",
	Long: `Chunks, embeds and stores a txt or json file. Pass "-" to read text
from stdin, in which case --name is required.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", "", "source type (default: inferred from the extension, txt for stdin)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title")
	ingestCmd.Flags().StringVar(&ingestMetadata, "metadata", "", "metadata as a JSON object")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "source name for stdin input")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	var meta map[string]any
	if ingestMetadata != "" {
		if err := json.Unmarshal([]byte(ingestMetadata), &meta); err != nil {
			return fmt.Errorf("%w: invalid metadata JSON: %v", domain.ErrInvalidInput, err)
		}
	}

	var (
		result *domain.IngestResult
		err    error
	)
	if args[0] == "-" {
		if ingestName == "" {
			return errors.New("--name is required when reading from stdin")
		}
		content, readErr := io.ReadAll(cmd.InOrStdin())
		if readErr != nil {
			return fmt.Errorf("read stdin: %w", readErr)
		}
		sourceType := ingestType
		if sourceType == "" {
			sourceType = string(domain.SourceTypeTXT)
		}
		result, err = app.Documents.IngestText(cmd.Context(), domain.IngestRequest{
			SourceName: ingestName,
			SourceType: domain.NormalizeSourceType(sourceType),
			Content:    string(content),
			Title:      ingestTitle,
			Metadata:   meta,
		})
	} else {
		result, err = app.Documents.IngestFile(cmd.Context(), args[0], ingestType, ingestTitle, meta)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		return printJSON(cmd, result)
	}
	cmd.Printf("Ingested %s as %s (%d chunks)\n", result.Document.SourceName, result.Document.ID, result.ChunkCount)
	return nil
}
