package domain

import (
	"fmt"
	"strings"
	"time"
)

// SearchMode determines how retrieval signals are fused
type SearchMode string

const (
	SearchModeFTS    SearchMode = "fts"    // Lexical ranking only
	SearchModeVector SearchMode = "vector" // Embedding similarity only
	SearchModeHybrid SearchMode = "hybrid" // Vector + lexical + freshness (default)
)

// ParseSearchMode converts a user-supplied mode string into a SearchMode.
// An empty string yields the default hybrid mode.
func ParseSearchMode(value string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", SearchModeHybrid:
		return SearchModeHybrid, nil
	case SearchModeFTS:
		return SearchModeFTS, nil
	case SearchModeVector:
		return SearchModeVector, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, value)
}

// UsesLexical reports whether the mode consults the lexical ranker
func (m SearchMode) UsesLexical() bool {
	return m == SearchModeFTS || m == SearchModeHybrid
}

// UsesRecentPool reports whether the mode adds the recency pool
func (m SearchMode) UsesRecentPool() bool {
	return m == SearchModeVector || m == SearchModeHybrid
}

// Confidence is a coarse label derived from a hit's score
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// GovernanceFlag explains why a hit was capped, deferred or reinstated
type GovernanceFlag string

const (
	FlagLowScore          GovernanceFlag = "low_score"
	FlagDuplicateDocument GovernanceFlag = "duplicate_document"
	FlagWeakTermOverlap   GovernanceFlag = "weak_term_overlap"
	FlagFallbackSelected  GovernanceFlag = "fallback_selected"
)

const (
	DefaultTopK = 5
	MaxTopK     = 50
)

// SearchRequest is a single retrieval call.
// Pointer and nil-slice fields are optional overrides: nil means
// "use the policy or configured default".
type SearchRequest struct {
	Query         string     `json:"query"`
	TopK          int        `json:"top_k"`
	Mode          SearchMode `json:"mode"`
	PolicyProfile string     `json:"policy_profile,omitempty"`

	MinScore       *float64 `json:"min_score,omitempty"`
	MaxPerDocument *int     `json:"max_per_document,omitempty"`
	AllowFallback  *bool    `json:"allow_fallback,omitempty"`

	AllowedSourceTypes    []string `json:"allowed_source_types,omitempty"`
	BlockedSourceKeywords []string `json:"blocked_source_keywords,omitempty"`
	PreferredSourceTypes  []string `json:"preferred_source_types,omitempty"`
	RecencyHalfLifeDays   *int     `json:"recency_half_life_days,omitempty"`
}

// EffectiveTopK returns TopK capped at MaxTopK. Zero asks for no hits;
// callers apply DefaultTopK themselves and reject negative values.
func (r SearchRequest) EffectiveTopK() int {
	return min(r.TopK, MaxTopK)
}

// SearchHit is one governed citation
type SearchHit struct {
	Score          float64          `json:"score"`
	Chunk          *Chunk           `json:"chunk"`
	Document       *Document        `json:"document"`
	VectorScore    float64          `json:"vector_score"`
	LexicalScore   float64          `json:"fts_score"`
	OverlapScore   float64          `json:"overlap_score"`
	FreshnessScore float64          `json:"freshness_score"`
	SourceBoost    float64          `json:"source_boost"`
	Confidence     Confidence       `json:"confidence"`
	ReferenceID    string           `json:"reference_id"`
	Flags          []GovernanceFlag `json:"governance_flags"`
	Snippet        string           `json:"snippet"`
}

// HasFlag reports whether the hit carries the given governance flag
func (h *SearchHit) HasFlag(flag GovernanceFlag) bool {
	for _, f := range h.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// ReferenceID builds the stable citation id for a chunk
func ReferenceID(documentID, chunkID string) string {
	return "doc:" + documentID + ":chunk:" + chunkID
}

// SearchResult represents the result of a search query
type SearchResult struct {
	Query  string           `json:"query"`
	Mode   SearchMode       `json:"mode"`
	Policy GovernancePolicy `json:"policy"`
	Hits   []*SearchHit     `json:"hits"`
	Took   time.Duration    `json:"took"`
}
