package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DocumentService handles ingestion and read access to documents
type DocumentService interface {
	// IngestText chunks, embeds and stores raw text
	IngestText(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// IngestFile reads a file, extracts its text and ingests it.
	// sourceType may be empty to infer it from the file extension.
	IngestFile(ctx context.Context, path, sourceType, title string, metadata map[string]any) (*domain.IngestResult, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetWithChunks retrieves a document with its chunks
	GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error)

	// List returns the newest documents first
	List(ctx context.Context, limit int) ([]*domain.Document, error)

	// Count returns the total number of documents
	Count(ctx context.Context) (int, error)
}
