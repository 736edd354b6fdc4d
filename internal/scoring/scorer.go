// Package scoring computes the retrieval signals of a candidate chunk and
// fuses them into a single score.
package scoring

import (
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Candidate is a chunk joined to its document with every signal in [0, 1]
type Candidate struct {
	Chunk    *domain.Chunk
	Document *domain.Document

	VectorScore    float64
	LexicalScore   float64
	OverlapScore   float64
	FreshnessScore float64
	SourceBoost    float64

	Score float64
}

// Options configures a Scorer for one request
type Options struct {
	Mode           domain.SearchMode
	QueryEmbedding []float32
	Terms          []string

	// LexicalRaw holds the ranker's raw statistic per chunk ID.
	// Chunks absent from the map get a lexical score of 0.
	LexicalRaw map[string]float64

	AllowedSourceTypes    []string
	BlockedSourceKeywords []string
	PreferredSourceTypes  []string

	HalfLifeDays int
	// Latest is the newest document timestamp in the loaded pool
	Latest time.Time
}

// Scorer scores candidates for a single search request
type Scorer struct {
	weights   Weights
	opts      Options
	filter    SourceFilter
	preferred map[string]struct{}
}

// NewScorer returns a scorer for opts, or domain.ErrInvalidMode for an unknown mode
func NewScorer(opts Options) (*Scorer, error) {
	weights, err := WeightsFor(opts.Mode)
	if err != nil {
		return nil, err
	}

	preferred := make(map[string]struct{})
	for _, t := range NormalizeList(opts.PreferredSourceTypes) {
		preferred[t] = struct{}{}
	}

	return &Scorer{
		weights:   weights,
		opts:      opts,
		filter:    NewSourceFilter(opts.AllowedSourceTypes, opts.BlockedSourceKeywords),
		preferred: preferred,
	}, nil
}

// Score computes the signals of chunk. The second return value is false
// when the document is excluded by the source filter.
func (s *Scorer) Score(chunk *domain.Chunk, doc *domain.Document) (*Candidate, bool) {
	if !s.filter.Allows(doc) {
		return nil, false
	}

	c := &Candidate{
		Chunk:          chunk,
		Document:       doc,
		VectorScore:    VectorScore(s.opts.QueryEmbedding, chunk.Embedding),
		OverlapScore:   OverlapScore(chunk.Content, s.opts.Terms),
		FreshnessScore: FreshnessScore(doc.CreatedAt, s.opts.Latest, s.opts.HalfLifeDays),
	}
	if raw, ok := s.opts.LexicalRaw[chunk.ID]; ok {
		c.LexicalScore = LexicalScore(raw)
	}
	if _, ok := s.preferred[strings.ToLower(string(doc.SourceType))]; ok {
		c.SourceBoost = 1
	}
	c.Score = s.weights.Fuse(c)
	return c, true
}

// Sort orders candidates by score descending. Equal scores put the newer
// document first, then the lower chunk index, then the lower chunk ID.
func Sort(candidates []*Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Document.CreatedAt.Equal(b.Document.CreatedAt) {
			return a.Document.CreatedAt.After(b.Document.CreatedAt)
		}
		if a.Chunk.ChunkIndex != b.Chunk.ChunkIndex {
			return a.Chunk.ChunkIndex < b.Chunk.ChunkIndex
		}
		return a.Chunk.ID < b.Chunk.ID
	})
}
