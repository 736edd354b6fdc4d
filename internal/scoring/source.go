package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// NormalizeList trims and lower-cases values, dropping empty entries
func NormalizeList(values []string) []string {
	normalized := make([]string, 0, len(values))
	for _, v := range values {
		if item := strings.ToLower(strings.TrimSpace(v)); item != "" {
			normalized = append(normalized, item)
		}
	}
	return normalized
}

// SourceBlob is the lower-cased text blocked keywords are matched against:
// source name, source type, title, storage path and the metadata as JSON.
func SourceBlob(doc *domain.Document) string {
	parts := []string{
		doc.SourceName,
		string(doc.SourceType),
		doc.Title,
		doc.StoragePath,
		metadataText(doc.Metadata),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func metadataText(meta map[string]any) string {
	if meta == nil {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(meta); err != nil {
		return fmt.Sprint(meta)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// SourceFilter drops documents before scoring
type SourceFilter struct {
	allowed map[string]struct{}
	blocked []string
}

// NewSourceFilter builds a filter. An empty allow-list admits every source type.
func NewSourceFilter(allowedTypes, blockedKeywords []string) SourceFilter {
	f := SourceFilter{blocked: NormalizeList(blockedKeywords)}
	if allowed := NormalizeList(allowedTypes); len(allowed) > 0 {
		f.allowed = make(map[string]struct{}, len(allowed))
		for _, t := range allowed {
			f.allowed[t] = struct{}{}
		}
	}
	return f
}

// Allows reports whether doc survives the allow-list and blocked keywords
func (f SourceFilter) Allows(doc *domain.Document) bool {
	if f.allowed != nil {
		if _, ok := f.allowed[strings.ToLower(string(doc.SourceType))]; !ok {
			return false
		}
	}
	if len(f.blocked) == 0 {
		return true
	}
	blob := SourceBlob(doc)
	for _, keyword := range f.blocked {
		if strings.Contains(blob, keyword) {
			return false
		}
	}
	return true
}
