package domain

// GovernancePolicy bounds what a search may return.
// Policies are plain values; copies never alias.
type GovernancePolicy struct {
	Name           string  `json:"name"`
	MinScore       float64 `json:"min_score"`
	MaxPerDocument int     `json:"max_per_document"`
	AllowFallback  bool    `json:"allow_fallback"`
}

// Built-in policy profile names
const (
	PolicyStrict   = "strict"
	PolicyBalanced = "balanced"
	PolicyRecall   = "recall"
)

// WithOverrides returns a copy of p with any non-nil override applied
func (p GovernancePolicy) WithOverrides(minScore *float64, maxPerDocument *int, allowFallback *bool) GovernancePolicy {
	if minScore != nil {
		p.MinScore = *minScore
	}
	if maxPerDocument != nil {
		p.MaxPerDocument = *maxPerDocument
	}
	if allowFallback != nil {
		p.AllowFallback = *allowFallback
	}
	return p
}
