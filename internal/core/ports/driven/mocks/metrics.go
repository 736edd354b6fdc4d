package mocks

import (
	"sync"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

var _ driven.MetricsRecorder = (*MockMetricsRecorder)(nil)

// MockMetricsRecorder counts observations
type MockMetricsRecorder struct {
	mu sync.Mutex

	Searches     int
	SearchErrors int
	CacheHits    int
	CacheMisses  int
	Ingests      int
	IngestErrors int
}

// NewMockMetricsRecorder creates a new MockMetricsRecorder
func NewMockMetricsRecorder() *MockMetricsRecorder {
	return &MockMetricsRecorder{}
}

func (m *MockMetricsRecorder) ObserveSearch(mode, policy string, candidates, hits int, took time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches++
	if err != nil {
		m.SearchErrors++
	}
}

func (m *MockMetricsRecorder) ObserveCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.CacheHits++
	} else {
		m.CacheMisses++
	}
}

func (m *MockMetricsRecorder) ObserveIngest(sourceType string, chunks int, took time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ingests++
	if err != nil {
		m.IngestErrors++
	}
}
