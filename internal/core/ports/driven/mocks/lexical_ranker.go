package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

var _ driven.LexicalRanker = (*MockLexicalRanker)(nil)

// MockLexicalRanker returns canned matches and records the queries it received
type MockLexicalRanker struct {
	mu      sync.Mutex
	matches []driven.LexicalMatch
	err     error

	Queries []string
	Limits  []int
}

// NewMockLexicalRanker creates a ranker that always returns matches (best first)
func NewMockLexicalRanker(matches ...driven.LexicalMatch) *MockLexicalRanker {
	return &MockLexicalRanker{matches: matches}
}

// SetMatches replaces the canned matches
func (m *MockLexicalRanker) SetMatches(matches ...driven.LexicalMatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = matches
}

// SetError makes every Rank call fail with err
func (m *MockLexicalRanker) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockLexicalRanker) Rank(ctx context.Context, query string, limit int) ([]driven.LexicalMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	m.Limits = append(m.Limits, limit)
	if m.err != nil {
		return nil, m.err
	}

	result := m.matches
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return append([]driven.LexicalMatch(nil), result...), nil
}
