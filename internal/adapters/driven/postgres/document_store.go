package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/embedding"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

const documentColumns = `id, source_name, source_type, title, storage_path, metadata, created_at, updated_at`

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// SaveWithChunks inserts a document and its chunks in one transaction.
// The tsvector column is generated, so chunks are searchable on commit.
func (s *DocumentStore) SaveWithChunks(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kb_documents (`+documentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			doc.ID,
			doc.SourceName,
			string(doc.SourceType),
			NullString(doc.Title),
			NullString(doc.StoragePath),
			metadataJSON,
			doc.CreatedAt,
			doc.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO kb_chunks (id, document_id, chunk_index, content, token_count, embedding, embedding_dim, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			_, err = stmt.ExecContext(ctx,
				chunk.ID,
				chunk.DocumentID,
				chunk.ChunkIndex,
				chunk.Content,
				chunk.TokenCount,
				embedding.Encode(chunk.Embedding),
				len(chunk.Embedding),
				chunk.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert chunk %d: %w", chunk.ChunkIndex, err)
			}
		}
		return nil
	})
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM kb_documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetMany retrieves the documents with the given IDs; unknown IDs are skipped
func (s *DocumentStore) GetMany(ctx context.Context, ids []string) ([]*domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM kb_documents WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// List returns the newest documents first
func (s *DocumentStore) List(ctx context.Context, limit int) ([]*domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM kb_documents
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// Count returns the number of stored documents
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kb_documents`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var sourceType string
	var title, storagePath sql.NullString
	var metadataJSON []byte

	err := row.Scan(
		&doc.ID,
		&doc.SourceName,
		&sourceType,
		&title,
		&storagePath,
		&metadataJSON,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.SourceType = domain.SourceType(sourceType)
	doc.Title = title.String
	doc.StoragePath = storagePath.String

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", doc.ID, err)
		}
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}

	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
