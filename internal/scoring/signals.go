package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/embedding"
)

const day = 24 * time.Hour

// Clamp01 bounds v to [0, 1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// VectorScore is the clamped cosine similarity of two normalized vectors
func VectorScore(query, chunk []float32) float64 {
	return Clamp01(embedding.Dot(query, chunk))
}

// LexicalScore maps a lower-is-better ranking statistic into [0, 1].
// Negative raw values are treated as a perfect match.
func LexicalScore(raw float64) float64 {
	if math.IsNaN(raw) {
		return 0
	}
	if raw < 0 {
		raw = 0
	}
	return Clamp01(1 / (1 + raw))
}

// OverlapScore is the fraction of terms found as substrings of content,
// ignoring case. Terms are expected to be lower-cased already.
func OverlapScore(content string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lowered := strings.ToLower(content)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// FreshnessScore decays with the age of createdAt relative to latest.
// Either timestamp being zero yields 0; halfLifeDays <= 0 uses the default.
func FreshnessScore(createdAt, latest time.Time, halfLifeDays int) float64 {
	if createdAt.IsZero() || latest.IsZero() {
		return 0
	}
	if halfLifeDays <= 0 {
		halfLifeDays = domain.DefaultRecencyHalfLifeDays
	}
	ageDays := float64(latest.Sub(createdAt)) / float64(day)
	if ageDays < 0 {
		ageDays = 0
	}
	return Clamp01(1 / (1 + ageDays/float64(halfLifeDays)))
}

// LatestTimestamp returns the newest non-zero CreatedAt among docs
func LatestTimestamp(docs []*domain.Document) time.Time {
	var latest time.Time
	for _, doc := range docs {
		if doc != nil && doc.CreatedAt.After(latest) {
			latest = doc.CreatedAt
		}
	}
	return latest
}
