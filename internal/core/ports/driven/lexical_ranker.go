package driven

import "context"

// LexicalMatch is one hit from the full-text engine.
// Raw follows BM25 conventions: lower is better and never negative.
type LexicalMatch struct {
	ChunkID string
	Raw     float64
}

// LexicalRanker handles full-text ranking (FTS5 or tsvector)
type LexicalRanker interface {
	// Rank returns up to limit matches for an already sanitized query, best first.
	// An empty result is not an error.
	Rank(ctx context.Context, query string, limit int) ([]LexicalMatch, error)
}
