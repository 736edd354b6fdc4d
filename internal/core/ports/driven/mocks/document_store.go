package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*MockDocumentStore)(nil)

// MockDocumentStore is a mock implementation of DocumentStore for testing.
// Chunks passed to SaveWithChunks are written through to the given chunk store.
type MockDocumentStore struct {
	mu     sync.RWMutex
	docs   map[string]*domain.Document
	chunks *MockChunkStore

	// FailSave makes the next SaveWithChunks call fail
	FailSave bool
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore(chunks *MockChunkStore) *MockDocumentStore {
	if chunks == nil {
		chunks = NewMockChunkStore()
	}
	return &MockDocumentStore{
		docs:   make(map[string]*domain.Document),
		chunks: chunks,
	}
}

// Add stores documents without chunks
func (m *MockDocumentStore) Add(docs ...*domain.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		m.docs[doc.ID] = doc
	}
}

func (m *MockDocumentStore) SaveWithChunks(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) error {
	m.mu.Lock()
	if m.FailSave {
		m.FailSave = false
		m.mu.Unlock()
		return errors.New("mock save failure")
	}
	m.docs[doc.ID] = doc
	m.mu.Unlock()

	m.chunks.Add(chunks...)
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *MockDocumentStore) GetMany(ctx context.Context, ids []string) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := m.docs[id]; ok {
			result = append(result, doc)
		}
	}
	return result, nil
}

func (m *MockDocumentStore) List(ctx context.Context, limit int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockDocumentStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

// Reset clears all data
func (m *MockDocumentStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string]*domain.Document)
}
