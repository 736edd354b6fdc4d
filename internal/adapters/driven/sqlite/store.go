// Package sqlite stores the knowledge base in a single SQLite file and
// ranks chunks with FTS5.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/sqlite/migrations"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/embedding"
)

// DatabaseFile is the file name created inside the data directory
const DatabaseFile = "kb.db"

// Store is a SQLite-backed knowledge base exposing the document, chunk
// and lexical ranking ports through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database in dataDir and applies migrations.
// If dataDir is empty, defaults to ~/.sercha-kb/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-kb", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DocumentStore returns a DocumentStore backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ChunkStore returns a ChunkStore backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// LexicalRanker returns an FTS5 LexicalRanker backed by this store.
func (s *Store) LexicalRanker() driven.LexicalRanker {
	return &lexicalRanker{store: s}
}

// migrate runs every embedded *.up.sql newer than the recorded version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// placeholders returns "?, ?, ..." for n parameters and the ids as args
func placeholders(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, source_name, source_type, title, storage_path, metadata, created_at, updated_at`

// SaveWithChunks stores a document, its chunks and their FTS rows atomically.
func (s *documentStore) SaveWithChunks(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kb_documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.SourceName, string(doc.SourceType), nullString(doc.Title), nullString(doc.StoragePath),
		string(metadataJSON), toUnix(doc.CreatedAt), toUnix(doc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kb_chunks (id, document_id, chunk_index, content, token_count, embedding, embedding_dim, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk statement: %w", err)
	}
	defer chunkStmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx, `INSERT INTO kb_chunks_fts (content, chunk_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing fts statement: %w", err)
	}
	defer ftsStmt.Close()

	for _, chunk := range chunks {
		if _, err := chunkStmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Content,
			chunk.TokenCount, embedding.Encode(chunk.Embedding), len(chunk.Embedding), toUnix(chunk.CreatedAt)); err != nil {
			return fmt.Errorf("saving chunk %d: %w", chunk.ChunkIndex, err)
		}
		if _, err := ftsStmt.ExecContext(ctx, chunk.Content, chunk.ID); err != nil {
			return fmt.Errorf("indexing chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM kb_documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetMany retrieves documents by ID, skipping unknown IDs.
func (s *documentStore) GetMany(ctx context.Context, ids []string) ([]*domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := placeholders(ids)
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM kb_documents WHERE id IN (`+in+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// List returns the newest documents first.
func (s *documentStore) List(ctx context.Context, limit int) ([]*domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM kb_documents
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Count returns the number of documents.
func (s *documentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kb_documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var sourceType, metadataJSON string
	var title, storagePath sql.NullString
	var createdAt, updatedAt int64

	if err := row.Scan(&doc.ID, &doc.SourceName, &sourceType, &title, &storagePath,
		&metadataJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	doc.SourceType = domain.SourceType(sourceType)
	doc.Title = title.String
	doc.StoragePath = storagePath.String
	doc.CreatedAt = fromUnix(createdAt)
	doc.UpdatedAt = fromUnix(updatedAt)

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata of %s: %w", doc.ID, err)
		}
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

const chunkColumns = `id, document_id, chunk_index, content, token_count, embedding, created_at`

// GetMany retrieves chunks by ID, skipping unknown IDs.
func (s *chunkStore) GetMany(ctx context.Context, ids []string) ([]*domain.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := placeholders(ids)
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+chunkColumns+` FROM kb_chunks WHERE id IN (`+in+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// Recent returns the IDs of the newest chunks.
func (s *chunkStore) Recent(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id FROM kb_chunks
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent chunks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetByDocument retrieves all chunks of a document in index order.
func (s *chunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM kb_chunks
		WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		var createdAt int64
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content,
			&chunk.TokenCount, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = embedding.Decode(blob)
		chunk.CreatedAt = fromUnix(createdAt)
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// ==================== Lexical Ranker ====================

// lexicalRanker implements driven.LexicalRanker with FTS5 bm25().
type lexicalRanker struct {
	store *Store
}

var _ driven.LexicalRanker = (*lexicalRanker)(nil)

// Rank returns up to limit chunks matching every query term, best first.
// bm25() is negative with larger magnitude for better matches; it is
// reported as 1/|bm25| so that lower is better.
func (r *lexicalRanker) Rank(ctx context.Context, query string, limit int) ([]driven.LexicalMatch, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT chunk_id, bm25(kb_chunks_fts) AS score
		FROM kb_chunks_fts
		WHERE kb_chunks_fts MATCH ?
		ORDER BY score, chunk_id
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying fts: %w", err)
	}
	defer rows.Close()

	var matches []driven.LexicalMatch
	for rows.Next() {
		var m driven.LexicalMatch
		var score float64
		if err := rows.Scan(&m.ChunkID, &score); err != nil {
			return nil, fmt.Errorf("scanning fts row: %w", err)
		}
		m.Raw = bm25ToRaw(score)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// matchExpression quotes each term so FTS5 keywords such as NOT or OR in
// the query are matched literally.
func matchExpression(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}

func bm25ToRaw(score float64) float64 {
	if math.IsNaN(score) || score == 0 {
		return math.Inf(1)
	}
	return 1 / math.Abs(score)
}
