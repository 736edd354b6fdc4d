package scoring

import (
	"fmt"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Weights are the per-signal coefficients of the fused score
type Weights struct {
	Vector      float64
	Lexical     float64
	Overlap     float64
	Freshness   float64
	SourceBoost float64
}

// WeightsFor returns the fusion weights for mode.
func WeightsFor(mode domain.SearchMode) (Weights, error) {
	switch mode {
	case domain.SearchModeFTS:
		return Weights{Lexical: 0.73, Overlap: 0.25, SourceBoost: 0.02}, nil
	case domain.SearchModeVector:
		return Weights{Vector: 0.78, Overlap: 0.20, SourceBoost: 0.02}, nil
	case domain.SearchModeHybrid:
		return Weights{Vector: 0.49, Lexical: 0.30, Overlap: 0.15, Freshness: 0.05, SourceBoost: 0.01}, nil
	default:
		return Weights{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
}

// Fuse combines the signals of c into a score in [0, 1]
func (w Weights) Fuse(c *Candidate) float64 {
	return Clamp01(w.Vector*c.VectorScore +
		w.Lexical*c.LexicalScore +
		w.Overlap*c.OverlapScore +
		w.Freshness*c.FreshnessScore +
		w.SourceBoost*c.SourceBoost)
}
