package governance

import (
	"math"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/scoring"
)

const (
	weakOverlapThreshold = 0.05
	fallbackScoreFloor   = 0.01

	highConfidence   = 0.55
	mediumConfidence = 0.25
)

// ConfidenceFor labels a score
func ConfidenceFor(score float64) domain.Confidence {
	switch {
	case score >= highConfidence:
		return domain.ConfidenceHigh
	case score >= mediumConfidence:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// Filter applies one policy to a score-sorted candidate list
type Filter struct {
	policy domain.GovernancePolicy
}

// NewFilter creates a filter for policy
func NewFilter(policy domain.GovernancePolicy) *Filter {
	return &Filter{policy: policy}
}

// Apply returns at most topK hits from candidates, which must already be
// sorted best first.
//
// The primary pass accepts candidates that clear the minimum score and the
// per-document cap, and defers the rest. If fewer than topK were accepted
// and the policy allows it, deferred candidates are then admitted in order
// with the fallback_selected flag.
func (f *Filter) Apply(candidates []*scoring.Candidate, topK int) []*domain.SearchHit {
	if topK <= 0 {
		return []*domain.SearchHit{}
	}

	selected := make([]*domain.SearchHit, 0, topK)
	var deferred []*domain.SearchHit
	perDocument := make(map[string]int)

	for _, c := range candidates {
		hit := toHit(c)
		blocked := false
		if c.Score < f.policy.MinScore {
			hit.Flags = append(hit.Flags, domain.FlagLowScore)
			blocked = true
		}
		if perDocument[c.Document.ID] >= f.policy.MaxPerDocument {
			hit.Flags = append(hit.Flags, domain.FlagDuplicateDocument)
			blocked = true
		}
		if c.OverlapScore < weakOverlapThreshold {
			hit.Flags = append(hit.Flags, domain.FlagWeakTermOverlap)
		}
		hit.Confidence = ConfidenceFor(c.Score)

		if blocked {
			deferred = append(deferred, hit)
			continue
		}

		selected = append(selected, hit)
		perDocument[c.Document.ID]++
		if len(selected) >= topK {
			return selected
		}
	}

	if !f.policy.AllowFallback {
		return selected
	}

	for _, hit := range deferred {
		if len(selected) >= topK {
			break
		}
		if !hit.HasFlag(domain.FlagFallbackSelected) {
			hit.Flags = append(hit.Flags, domain.FlagFallbackSelected)
		}
		hit.Confidence = ConfidenceFor(math.Max(hit.Score, fallbackScoreFloor))
		selected = append(selected, hit)
	}
	return selected
}

func toHit(c *scoring.Candidate) *domain.SearchHit {
	return &domain.SearchHit{
		Score:          c.Score,
		Chunk:          c.Chunk,
		Document:       c.Document,
		VectorScore:    c.VectorScore,
		LexicalScore:   c.LexicalScore,
		OverlapScore:   c.OverlapScore,
		FreshnessScore: c.FreshnessScore,
		SourceBoost:    c.SourceBoost,
		ReferenceID:    domain.ReferenceID(c.Document.ID, c.Chunk.ID),
		Flags:          []domain.GovernanceFlag{},
	}
}
