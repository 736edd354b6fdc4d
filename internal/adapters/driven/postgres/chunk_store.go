package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/embedding"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

const chunkColumns = `id, document_id, chunk_index, content, token_count, embedding, created_at`

// ChunkStore implements driven.ChunkStore using PostgreSQL.
// Chunks are written by DocumentStore.SaveWithChunks.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// GetMany retrieves the chunks with the given IDs; unknown IDs are skipped
func (s *ChunkStore) GetMany(ctx context.Context, ids []string) ([]*domain.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+chunkColumns+` FROM kb_chunks WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// Recent returns the IDs of the newest chunks
func (s *ChunkStore) Recent(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM kb_chunks
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetByDocument retrieves all chunks of a document in index order
func (s *ChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM kb_chunks
		WHERE document_id = $1
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var vector []byte
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.TokenCount,
			&vector,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		// Malformed vectors decode to nil and score as the zero vector.
		chunk.Embedding = embedding.Decode(vector)
		chunks = append(chunks, &chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}
