package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/governance"
	"github.com/custodia-labs/sercha-kb/internal/scoring"
	"github.com/custodia-labs/sercha-kb/internal/snippet"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// SearchServiceConfig holds the collaborators of the search service.
// Cache, Metrics and Logger are optional.
type SearchServiceConfig struct {
	ChunkStore    driven.ChunkStore
	DocumentStore driven.DocumentStore
	LexicalRanker driven.LexicalRanker
	Embedder      driven.Embedder
	Policies      *governance.Registry
	Settings      domain.KBSettings
	Cache         driven.SearchCache
	Metrics       driven.MetricsRecorder
	Logger        *slog.Logger
}

// searchService implements the SearchService interface
type searchService struct {
	collector     *candidateCollector
	chunkStore    driven.ChunkStore
	documentStore driven.DocumentStore
	embedder      driven.Embedder
	policies      *governance.Registry
	settings      domain.KBSettings
	cache         driven.SearchCache
	metrics       driven.MetricsRecorder
	logger        *slog.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(cfg SearchServiceConfig) driving.SearchService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policies := cfg.Policies
	if policies == nil {
		policies = governance.DefaultRegistry().WithDefault(cfg.Settings.PolicyProfile)
	}

	return &searchService{
		collector:     &candidateCollector{ranker: cfg.LexicalRanker, chunks: cfg.ChunkStore},
		chunkStore:    cfg.ChunkStore,
		documentStore: cfg.DocumentStore,
		embedder:      cfg.Embedder,
		policies:      policies,
		settings:      cfg.Settings,
		cache:         cfg.Cache,
		metrics:       cfg.Metrics,
		logger:        logger.With("component", "search"),
	}
}

// Policies lists the governance profiles
func (s *searchService) Policies() []domain.GovernancePolicy {
	return s.policies.Policies()
}

// DefaultPolicy returns the profile used for empty or unknown names
func (s *searchService) DefaultPolicy() domain.GovernancePolicy {
	return s.policies.Default()
}

// searchPlan is a request with every default and override resolved
type searchPlan struct {
	Query                 string                  `json:"query"`
	TopK                  int                     `json:"top_k"`
	Mode                  domain.SearchMode       `json:"mode"`
	Policy                domain.GovernancePolicy `json:"policy"`
	AllowedSourceTypes    []string                `json:"allowed"`
	BlockedSourceKeywords []string                `json:"blocked"`
	PreferredSourceTypes  []string                `json:"preferred"`
	HalfLifeDays          int                     `json:"half_life"`
}

func (s *searchService) plan(req domain.SearchRequest) (*searchPlan, error) {
	mode, err := domain.ParseSearchMode(string(req.Mode))
	if err != nil {
		return nil, err
	}

	if req.TopK < 0 {
		return nil, fmt.Errorf("%w: top_k must not be negative", domain.ErrInvalidInput)
	}

	policy := s.policies.Resolve(req.PolicyProfile).WithOverrides(req.MinScore, req.MaxPerDocument, req.AllowFallback)
	if policy.MinScore < 0 || policy.MinScore > 1 {
		return nil, fmt.Errorf("%w: min_score must be between 0 and 1", domain.ErrInvalidInput)
	}
	if policy.MaxPerDocument < 1 {
		return nil, fmt.Errorf("%w: max_per_document must be at least 1", domain.ErrInvalidInput)
	}

	p := &searchPlan{
		Query:                 req.Query,
		TopK:                  req.EffectiveTopK(),
		Mode:                  mode,
		Policy:                policy,
		AllowedSourceTypes:    scoring.NormalizeList(s.settings.AllowedSourceTypes),
		BlockedSourceKeywords: scoring.NormalizeList(s.settings.BlockedSourceKeywords),
		PreferredSourceTypes:  scoring.NormalizeList(s.settings.PreferredSourceTypes),
		HalfLifeDays:          s.settings.RecencyHalfLifeDays,
	}
	if req.AllowedSourceTypes != nil {
		p.AllowedSourceTypes = scoring.NormalizeList(req.AllowedSourceTypes)
	}
	if req.BlockedSourceKeywords != nil {
		p.BlockedSourceKeywords = scoring.NormalizeList(req.BlockedSourceKeywords)
	}
	if req.PreferredSourceTypes != nil {
		p.PreferredSourceTypes = scoring.NormalizeList(req.PreferredSourceTypes)
	}
	if req.RecencyHalfLifeDays != nil {
		p.HalfLifeDays = *req.RecencyHalfLifeDays
	}
	if p.HalfLifeDays <= 0 {
		p.HalfLifeDays = domain.DefaultRecencyHalfLifeDays
	}
	return p, nil
}

// cacheKey digests the resolved plan so equal requests share a cache entry
func (p *searchPlan) cacheKey() string {
	data, _ := json.Marshal(p)
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Search performs a governed search
func (s *searchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	start := time.Now()

	p, err := s.plan(req)
	if err != nil {
		return nil, err
	}

	// Read the generation before touching the stores so a result computed
	// across an ingest is filed under the generation it was computed from.
	var gen int64
	cache := s.cache
	if cache != nil {
		if gen, err = cache.Generation(ctx); err != nil {
			s.logger.Warn("search cache unavailable", "error", err)
			cache = nil
		}
	}

	if cache != nil {
		cached, err := cache.Get(ctx, gen, p.cacheKey())
		switch {
		case err == nil:
			s.observeCache(true)
			hit := *cached
			hit.Took = time.Since(start)
			return &hit, nil
		case errors.Is(err, domain.ErrNotFound):
			s.observeCache(false)
		default:
			s.logger.Warn("search cache read failed", "error", err)
		}
	}

	result, candidates, err := s.search(ctx, p)
	took := time.Since(start)
	if s.metrics != nil {
		hits := 0
		if result != nil {
			hits = len(result.Hits)
		}
		s.metrics.ObserveSearch(string(p.Mode), p.Policy.Name, candidates, hits, took, err)
	}
	if err != nil {
		s.logger.Error("search failed", "mode", p.Mode, "policy", p.Policy.Name, "error", err)
		return nil, err
	}
	result.Took = took

	s.logger.Debug("search completed",
		"mode", p.Mode,
		"policy", p.Policy.Name,
		"candidates", candidates,
		"hits", len(result.Hits),
		"took", took,
	)

	if cache != nil {
		if err := cache.Set(ctx, gen, p.cacheKey(), result); err != nil {
			s.logger.Warn("search cache write failed", "error", err)
		}
	}
	return result, nil
}

// search runs collect, load, score, sort, govern and annotate.
// It also returns the number of scored candidates.
func (s *searchService) search(ctx context.Context, p *searchPlan) (*domain.SearchResult, int, error) {
	result := &domain.SearchResult{
		Query:  p.Query,
		Mode:   p.Mode,
		Policy: p.Policy,
		Hits:   []*domain.SearchHit{},
	}

	if p.TopK == 0 {
		return result, 0, nil
	}

	pool, err := s.collector.collect(ctx, SanitizeQuery(p.Query), p.Mode, p.TopK)
	if err != nil {
		return nil, 0, err
	}
	if len(pool.ids) == 0 {
		return result, 0, nil
	}

	chunks, docs, err := s.load(ctx, pool.ids)
	if err != nil {
		return nil, 0, err
	}

	terms := QueryTerms(p.Query)
	scorer, err := scoring.NewScorer(scoring.Options{
		Mode:                  p.Mode,
		QueryEmbedding:        s.embedder.Embed(p.Query),
		Terms:                 terms,
		LexicalRaw:            pool.lexicalRaw,
		AllowedSourceTypes:    p.AllowedSourceTypes,
		BlockedSourceKeywords: p.BlockedSourceKeywords,
		PreferredSourceTypes:  p.PreferredSourceTypes,
		HalfLifeDays:          p.HalfLifeDays,
		Latest:                scoring.LatestTimestamp(docs),
	})
	if err != nil {
		return nil, 0, err
	}

	byID := make(map[string]*domain.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}

	candidates := make([]*scoring.Candidate, 0, len(chunks))
	for _, chunk := range chunks {
		doc, ok := byID[chunk.DocumentID]
		if !ok {
			return nil, 0, fmt.Errorf("chunk %s references missing document %s: %w", chunk.ID, chunk.DocumentID, domain.ErrDataIntegrity)
		}
		if c, ok := scorer.Score(chunk, doc); ok {
			candidates = append(candidates, c)
		}
	}
	scoring.Sort(candidates)

	hits := governance.NewFilter(p.Policy).Apply(candidates, p.TopK)
	for _, hit := range hits {
		hit.Snippet = snippet.Build(hit.Chunk.Content, terms, s.settings.SnippetMaxChars)
	}
	result.Hits = hits
	return result, len(candidates), nil
}

// load fetches the pooled chunks and every document they reference
func (s *searchService) load(ctx context.Context, ids []string) ([]*domain.Chunk, []*domain.Document, error) {
	chunks, err := s.chunkStore.GetMany(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil, nil
	}

	seen := make(map[string]struct{}, len(chunks))
	docIDs := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if _, ok := seen[chunk.DocumentID]; ok {
			continue
		}
		seen[chunk.DocumentID] = struct{}{}
		docIDs = append(docIDs, chunk.DocumentID)
	}

	docs, err := s.documentStore.GetMany(ctx, docIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load documents: %w", err)
	}
	return chunks, docs, nil
}

func (s *searchService) observeCache(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCache(hit)
	}
}
