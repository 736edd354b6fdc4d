package mocks

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

var _ driven.SearchCache = (*MockSearchCache)(nil)

// MockSearchCache is an in-memory SearchCache
type MockSearchCache struct {
	mu         sync.RWMutex
	generation int64
	results    map[string]*domain.SearchResult

	Invalidations int
}

// NewMockSearchCache creates a new MockSearchCache
func NewMockSearchCache() *MockSearchCache {
	return &MockSearchCache{results: make(map[string]*domain.SearchResult)}
}

func mockEntryKey(gen int64, key string) string {
	return strconv.FormatInt(gen, 10) + ":" + key
}

func (m *MockSearchCache) Generation(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation, nil
}

func (m *MockSearchCache) Get(ctx context.Context, gen int64, key string) (*domain.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.results[mockEntryKey(gen, key)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return result, nil
}

func (m *MockSearchCache) Set(ctx context.Context, gen int64, key string, result *domain.SearchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[mockEntryKey(gen, key)] = result
	return nil
}

func (m *MockSearchCache) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.Invalidations++
	return nil
}

// Len returns the number of results cached for the current generation
func (m *MockSearchCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := strconv.FormatInt(m.generation, 10) + ":"
	n := 0
	for k := range m.results {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}
