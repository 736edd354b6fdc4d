package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL or SQLite)
type DocumentStore interface {
	// SaveWithChunks stores a document and its chunks in one transaction
	// and makes the chunks visible to the lexical ranker.
	SaveWithChunks(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetMany retrieves the documents that exist among ids; missing ids are skipped
	GetMany(ctx context.Context, ids []string) ([]*domain.Document, error)

	// List returns the newest documents first
	List(ctx context.Context, limit int) ([]*domain.Document, error)

	// Count returns total document count
	Count(ctx context.Context) (int, error)
}

// ChunkStore handles chunk reads
type ChunkStore interface {
	// GetMany retrieves the chunks that exist among ids; missing ids are skipped
	GetMany(ctx context.Context, ids []string) ([]*domain.Chunk, error)

	// Recent returns chunk IDs ordered by creation time descending, then ID descending
	Recent(ctx context.Context, limit int) ([]string, error)

	// GetByDocument retrieves all chunks for a document ordered by chunk index
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)
}
