package postgres

import (
	"context"
	"math"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.LexicalRanker = (*LexicalRanker)(nil)

// LexicalRanker ranks chunks with PostgreSQL full-text search over the
// generated content_tsv column.
type LexicalRanker struct {
	db *DB
}

// NewLexicalRanker creates a new LexicalRanker
func NewLexicalRanker(db *DB) *LexicalRanker {
	return &LexicalRanker{db: db}
}

// Rank returns up to limit chunks matching every query term, best first.
// ts_rank_cd with normalization 32 yields r in [0, 1); it is reported as
// (1-r)/r so that lower is better like BM25.
func (r *LexicalRanker) Rank(ctx context.Context, query string, limit int) ([]driven.LexicalMatch, error) {
	if query == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, ts_rank_cd(c.content_tsv, q, 32) AS rank
		FROM kb_chunks c, plainto_tsquery('simple', $1) q
		WHERE c.content_tsv @@ q
		ORDER BY rank DESC, c.id
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []driven.LexicalMatch
	for rows.Next() {
		var m driven.LexicalMatch
		var rank float64
		if err := rows.Scan(&m.ChunkID, &rank); err != nil {
			return nil, err
		}
		m.Raw = rankToRaw(rank)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func rankToRaw(rank float64) float64 {
	if math.IsNaN(rank) || rank <= 0 {
		return math.Inf(1)
	}
	if rank >= 1 {
		return 0
	}
	return (1 - rank) / rank
}
