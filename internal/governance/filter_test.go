package governance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/scoring"
)

func candidate(docID string, index int, score, overlap float64) *scoring.Candidate {
	return &scoring.Candidate{
		Chunk:        &domain.Chunk{ID: fmt.Sprintf("%s-c%d", docID, index), DocumentID: docID, ChunkIndex: index},
		Document:     &domain.Document{ID: docID},
		OverlapScore: overlap,
		Score:        score,
	}
}

func refs(hits []*domain.SearchHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Chunk.ID
	}
	return out
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		score    float64
		expected domain.Confidence
	}{
		{1.0, domain.ConfidenceHigh},
		{0.55, domain.ConfidenceHigh},
		{0.5499, domain.ConfidenceMedium},
		{0.25, domain.ConfidenceMedium},
		{0.2499, domain.ConfidenceLow},
		{0, domain.ConfidenceLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ConfidenceFor(tt.score), "score=%v", tt.score)
	}
}

func TestFilter_PrimaryPass(t *testing.T) {
	f := NewFilter(domain.GovernancePolicy{Name: "balanced", MinScore: 0.08, MaxPerDocument: 2, AllowFallback: false})

	hits := f.Apply([]*scoring.Candidate{
		candidate("d1", 0, 0.9, 1),
		candidate("d1", 1, 0.8, 1),
		candidate("d1", 2, 0.7, 1),
		candidate("d2", 0, 0.3, 0.01),
		candidate("d3", 0, 0.05, 1),
	}, 5)

	require.Equal(t, []string{"d1-c0", "d1-c1", "d2-c0"}, refs(hits))
	assert.Equal(t, domain.ConfidenceHigh, hits[0].Confidence)
	assert.Equal(t, domain.ConfidenceMedium, hits[2].Confidence)
	assert.Equal(t, []domain.GovernanceFlag{domain.FlagWeakTermOverlap}, hits[2].Flags, "weak overlap does not block")
	assert.Equal(t, "doc:d1:chunk:d1-c0", hits[0].ReferenceID)
	assert.Empty(t, hits[0].Flags)
}

func TestFilter_StopsAtTopK(t *testing.T) {
	f := NewFilter(domain.GovernancePolicy{MinScore: 0, MaxPerDocument: 10, AllowFallback: true})
	hits := f.Apply([]*scoring.Candidate{
		candidate("d1", 0, 0.9, 1),
		candidate("d2", 0, 0.8, 1),
		candidate("d3", 0, 0.7, 1),
	}, 2)
	assert.Equal(t, []string{"d1-c0", "d2-c0"}, refs(hits))
}

func TestFilter_NonPositiveTopK(t *testing.T) {
	f := NewFilter(domain.GovernancePolicy{MaxPerDocument: 1, AllowFallback: true})
	assert.Empty(t, f.Apply([]*scoring.Candidate{candidate("d1", 0, 0.9, 1)}, 0))
	assert.Empty(t, f.Apply([]*scoring.Candidate{candidate("d1", 0, 0.9, 1)}, -1))
}

func TestFilter_Fallback(t *testing.T) {
	f := NewFilter(domain.GovernancePolicy{Name: "balanced", MinScore: 0.5, MaxPerDocument: 1, AllowFallback: true})

	hits := f.Apply([]*scoring.Candidate{
		candidate("d1", 0, 0.9, 1),
		candidate("d1", 1, 0.6, 1),
		candidate("d2", 0, 0.0, 0),
		candidate("d3", 0, 0.3, 1),
		candidate("d4", 0, 0.2, 1),
	}, 4)

	require.Equal(t, []string{"d1-c0", "d1-c1", "d2-c0", "d3-c0"}, refs(hits))
	assert.Empty(t, hits[0].Flags)
	assert.Equal(t, []domain.GovernanceFlag{domain.FlagDuplicateDocument, domain.FlagFallbackSelected}, hits[1].Flags)
	assert.Equal(t, domain.ConfidenceHigh, hits[1].Confidence)
	assert.Equal(t, []domain.GovernanceFlag{domain.FlagLowScore, domain.FlagWeakTermOverlap, domain.FlagFallbackSelected}, hits[2].Flags)
	assert.Equal(t, domain.ConfidenceLow, hits[2].Confidence, "zero score labels from the 0.01 floor")
	assert.Equal(t, 0.0, hits[2].Score, "raw score is preserved")
	assert.Equal(t, domain.ConfidenceMedium, hits[3].Confidence)
}

func TestFilter_NoFallback(t *testing.T) {
	f := NewFilter(domain.GovernancePolicy{Name: "strict", MinScore: 0.95, MaxPerDocument: 1, AllowFallback: false})
	hits := f.Apply([]*scoring.Candidate{
		candidate("d1", 0, 0.4, 1),
		candidate("d2", 0, 0.3, 1),
	}, 3)
	assert.Empty(t, hits)
}

func TestFilter_Properties(t *testing.T) {
	var candidates []*scoring.Candidate
	for i := 0; i < 30; i++ {
		candidates = append(candidates, candidate(fmt.Sprintf("d%d", i%4), i, 1-float64(i)/30, float64(i%3)/10))
	}

	for _, p := range DefaultRegistry().Policies() {
		for _, topK := range []int{1, 3, 7, 50} {
			t.Run(fmt.Sprintf("%s/%d", p.Name, topK), func(t *testing.T) {
				hits := NewFilter(p).Apply(candidates, topK)
				assert.LessOrEqual(t, len(hits), topK)

				seen := map[string]int{}
				for _, h := range hits {
					assert.GreaterOrEqual(t, h.Score, 0.0)
					assert.LessOrEqual(t, h.Score, 1.0)
					if !p.AllowFallback {
						assert.False(t, h.HasFlag(domain.FlagFallbackSelected))
					}
					if !h.HasFlag(domain.FlagFallbackSelected) {
						assert.Equal(t, ConfidenceFor(h.Score), h.Confidence)
					}
					seen[h.Document.ID]++
				}
				if p.Name == domain.PolicyStrict {
					for doc, n := range seen {
						assert.Equal(t, 1, n, "strict policy returned %d hits for %s", n, doc)
					}
				}
			})
		}
	}
}

func TestFilter_DoesNotMutateCandidates(t *testing.T) {
	c := candidate("d1", 0, 0.01, 0)
	f := NewFilter(domain.GovernancePolicy{MinScore: 0.5, MaxPerDocument: 1, AllowFallback: true})
	_ = f.Apply([]*scoring.Candidate{c}, 1)
	_ = f.Apply([]*scoring.Candidate{c}, 1)
	assert.Equal(t, 0.01, c.Score)
}
