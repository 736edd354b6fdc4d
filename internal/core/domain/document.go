package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// SourceType identifies the format a document was ingested from
type SourceType string

const (
	SourceTypePDF  SourceType = "pdf"
	SourceTypeTXT  SourceType = "txt"
	SourceTypeText SourceType = "text"
	SourceTypeJSON SourceType = "json"
)

// IsValid returns true if this is a known source type
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypePDF, SourceTypeTXT, SourceTypeText, SourceTypeJSON:
		return true
	default:
		return false
	}
}

// NormalizeSourceType trims and lower-cases a source type
func NormalizeSourceType(value string) SourceType {
	return SourceType(strings.ToLower(strings.TrimSpace(value)))
}

// InferSourceType derives the source type from a file name when explicit is empty.
func InferSourceType(filename, explicit string) (SourceType, error) {
	if explicit != "" {
		return NormalizeSourceType(explicit), nil
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch SourceType(ext) {
	case SourceTypePDF, SourceTypeTXT, SourceTypeJSON:
		return SourceType(ext), nil
	}
	return "", ErrUnsupportedSourceType
}

// Document represents a source document in the knowledge base
type Document struct {
	ID          string         `json:"id"`
	SourceName  string         `json:"source_name"`
	SourceType  SourceType     `json:"source_type"`
	Title       string         `json:"title,omitempty"`
	StoragePath string         `json:"storage_path,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Chunk represents a retrievable slice of a document
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"` // Position within document
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentWithChunks combines a document with its chunks
type DocumentWithChunks struct {
	Document *Document `json:"document"`
	Chunks   []*Chunk  `json:"chunks"`
}

// IngestRequest describes raw text to be added to the knowledge base
type IngestRequest struct {
	SourceName  string         `json:"source_name"`
	SourceType  SourceType     `json:"source_type"`
	Content     string         `json:"content"`
	Title       string         `json:"title,omitempty"`
	StoragePath string         `json:"storage_path,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// IngestResult is returned after a document has been chunked and stored
type IngestResult struct {
	Document   *Document `json:"document"`
	ChunkCount int       `json:"chunk_count"`
}
