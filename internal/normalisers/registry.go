// Package normalisers extracts plain text from ingested source formats.
package normalisers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry implements NormaliserRegistry with priority-based selection.
// When multiple normalisers match a source type, the highest priority one is used.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a new normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make([]driven.Normaliser, 0),
	}
}

// Register registers a normaliser.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
}

// Get retrieves the best-matching normaliser for a source type.
// Returns nil if no normaliser is registered for the type.
func (r *Registry) Get(sourceType domain.SourceType) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sourceType = domain.NormalizeSourceType(string(sourceType))

	var best driven.Normaliser
	for _, n := range r.normalisers {
		if !supports(n, sourceType) {
			continue
		}
		if best == nil || n.Priority() > best.Priority() {
			best = n
		}
	}
	return best
}

// List returns all source types with a registered normaliser, sorted.
func (r *Registry) List() []domain.SourceType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeSet := make(map[domain.SourceType]struct{})
	for _, n := range r.normalisers {
		for _, t := range n.SupportedTypes() {
			typeSet[t] = struct{}{}
		}
	}

	types := make([]domain.SourceType, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func supports(n driven.Normaliser, sourceType domain.SourceType) bool {
	for _, t := range n.SupportedTypes() {
		if t == sourceType {
			return true
		}
	}
	return false
}

// DefaultRegistry creates a registry with the plain text and JSON normalisers.
// PDF has no extractor; lookups for it return nil.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&PlaintextNormaliser{})
	r.Register(&JSONNormaliser{})
	return r
}

// PlaintextNormaliser handles txt and text sources.
type PlaintextNormaliser struct{}

func (n *PlaintextNormaliser) Normalise(content []byte, _ domain.SourceType) (string, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text), nil
}

func (n *PlaintextNormaliser) SupportedTypes() []domain.SourceType {
	return []domain.SourceType{domain.SourceTypeTXT, domain.SourceTypeText}
}

func (n *PlaintextNormaliser) Priority() int {
	return 10
}

// JSONNormaliser re-indents JSON documents with two spaces, keeping key order.
type JSONNormaliser struct{}

func (n *JSONNormaliser) Normalise(content []byte, _ domain.SourceType) (string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !json.Valid(content) {
		return "", fmt.Errorf("%w: malformed JSON document", domain.ErrInvalidInput)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(content), "", "  "); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return buf.String(), nil
}

func (n *JSONNormaliser) SupportedTypes() []domain.SourceType {
	return []domain.SourceType{domain.SourceTypeJSON}
}

func (n *JSONNormaliser) Priority() int {
	return 50
}
