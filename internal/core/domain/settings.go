package domain

// DefaultRecencyHalfLifeDays is used whenever a half-life of zero or less is configured
const DefaultRecencyHalfLifeDays = 180

// DefaultEmbeddingDimensions is the length of hash embeddings
const DefaultEmbeddingDimensions = 256

// KBSettings holds the retrieval defaults applied when a request
// does not override them
type KBSettings struct {
	PolicyProfile         string   `json:"policy_profile" toml:"policy_profile"`
	AllowedSourceTypes    []string `json:"allowed_source_types" toml:"allowed_source_types"`
	BlockedSourceKeywords []string `json:"blocked_source_keywords" toml:"blocked_source_keywords"`
	PreferredSourceTypes  []string `json:"preferred_source_types" toml:"preferred_source_types"`
	RecencyHalfLifeDays   int      `json:"recency_half_life_days" toml:"recency_half_life_days"`
	EmbeddingDimensions   int      `json:"embedding_dimensions" toml:"embedding_dimensions"`
	SnippetMaxChars       int      `json:"snippet_max_chars" toml:"snippet_max_chars"`
}

// DefaultKBSettings returns the settings used when nothing is configured
func DefaultKBSettings() KBSettings {
	return KBSettings{
		PolicyProfile:         PolicyBalanced,
		AllowedSourceTypes:    []string{"pdf", "txt", "text", "json"},
		BlockedSourceKeywords: []string{},
		PreferredSourceTypes:  []string{"pdf", "txt", "text", "json"},
		RecencyHalfLifeDays:   DefaultRecencyHalfLifeDays,
		EmbeddingDimensions:   DefaultEmbeddingDimensions,
		SnippetMaxChars:       240,
	}
}
