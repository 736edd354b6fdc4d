package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

var (
	nonQueryChars = regexp.MustCompile(`[^0-9A-Za-z\x{4e00}-\x{9fff}]+`)
	queryTerm     = regexp.MustCompile(`[A-Za-z0-9\x{4e00}-\x{9fff}]{2,}`)
)

// SanitizeQuery strips everything except ASCII letters, digits and CJK
// ideographs so the query is safe to hand to a full-text engine.
func SanitizeQuery(query string) string {
	return strings.Join(strings.Fields(nonQueryChars.ReplaceAllString(query, " ")), " ")
}

// QueryTerms returns the distinct lower-cased terms of at least two
// characters in first-occurrence order.
func QueryTerms(query string) []string {
	matches := queryTerm.FindAllString(strings.ToLower(query), -1)
	seen := make(map[string]struct{}, len(matches))
	terms := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		terms = append(terms, m)
	}
	return terms
}

// lexicalLimit bounds the lexical candidate set for topK
func lexicalLimit(topK int) int {
	return max(topK*5, 25)
}

// recentLimit bounds the recency pool for topK
func recentLimit(topK int) int {
	return max(topK*40, 200)
}

// candidatePool is the ordered union of lexical and recent chunk IDs
type candidatePool struct {
	ids        []string
	lexicalRaw map[string]float64
}

// candidateCollector gathers chunk IDs from the lexical ranker and the recency pool
type candidateCollector struct {
	ranker driven.LexicalRanker
	chunks driven.ChunkStore
}

func (c *candidateCollector) collect(ctx context.Context, sanitized string, mode domain.SearchMode, topK int) (*candidatePool, error) {
	pool := &candidatePool{lexicalRaw: make(map[string]float64)}
	seen := make(map[string]struct{})

	if mode.UsesLexical() && sanitized != "" && c.ranker != nil {
		matches, err := c.ranker.Rank(ctx, sanitized, lexicalLimit(topK))
		if err != nil {
			return nil, fmt.Errorf("lexical rank: %w", err)
		}
		for _, m := range matches {
			if _, dup := seen[m.ChunkID]; dup {
				continue
			}
			seen[m.ChunkID] = struct{}{}
			pool.ids = append(pool.ids, m.ChunkID)
			pool.lexicalRaw[m.ChunkID] = m.Raw
		}
	}

	if mode.UsesRecentPool() {
		ids, err := c.chunks.Recent(ctx, recentLimit(topK))
		if err != nil {
			return nil, fmt.Errorf("recent chunks: %w", err)
		}
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			pool.ids = append(pool.ids, id)
		}
	}

	return pool, nil
}
