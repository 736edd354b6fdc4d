package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

var _ driven.ChunkStore = (*MockChunkStore)(nil)

// MockChunkStore is a mock implementation of ChunkStore for testing
type MockChunkStore struct {
	mu         sync.RWMutex
	chunks     map[string]*domain.Chunk
	byDocument map[string][]*domain.Chunk

	// Reads counts GetMany and Recent calls
	Reads int
}

// NewMockChunkStore creates a new MockChunkStore
func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{
		chunks:     make(map[string]*domain.Chunk),
		byDocument: make(map[string][]*domain.Chunk),
	}
}

// Add stores chunks, replacing any with the same ID
func (m *MockChunkStore) Add(chunks ...*domain.Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		if old, ok := m.chunks[chunk.ID]; ok {
			m.removeFromDocument(old)
		}
		m.chunks[chunk.ID] = chunk
		m.byDocument[chunk.DocumentID] = append(m.byDocument[chunk.DocumentID], chunk)
	}
}

func (m *MockChunkStore) removeFromDocument(chunk *domain.Chunk) {
	list := m.byDocument[chunk.DocumentID]
	for i, c := range list {
		if c.ID == chunk.ID {
			m.byDocument[chunk.DocumentID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (m *MockChunkStore) GetMany(ctx context.Context, ids []string) ([]*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++

	result := make([]*domain.Chunk, 0, len(ids))
	for _, id := range ids {
		if chunk, ok := m.chunks[id]; ok {
			result = append(result, chunk)
		}
	}
	return result, nil
}

func (m *MockChunkStore) Recent(ctx context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++

	all := make([]*domain.Chunk, 0, len(m.chunks))
	for _, chunk := range m.chunks {
		all = append(all, chunk)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	ids := make([]string, len(all))
	for i, chunk := range all {
		ids[i] = chunk.ID
	}
	return ids, nil
}

func (m *MockChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := append([]*domain.Chunk(nil), m.byDocument[documentID]...)
	sort.Slice(result, func(i, j int) bool { return result[i].ChunkIndex < result[j].ChunkIndex })
	return result, nil
}

// Reset clears all data
func (m *MockChunkStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = make(map[string]*domain.Chunk)
	m.byDocument = make(map[string][]*domain.Chunk)
	m.Reads = 0
}
