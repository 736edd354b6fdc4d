package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/embedding"
	"github.com/custodia-labs/sercha-kb/internal/governance"
)

var corpusEpoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type seedDoc struct {
	id         string
	sourceType domain.SourceType
	metadata   map[string]any
	age        time.Duration
	chunks     []string
}

type searchFixture struct {
	chunkStore    *mocks.MockChunkStore
	documentStore *mocks.MockDocumentStore
	ranker        *mocks.MockLexicalRanker
	cache         *mocks.MockSearchCache
	metrics       *mocks.MockMetricsRecorder
	embedder      *embedding.HashEmbedder
	svc           driving.SearchService
}

func newSearchFixture(t *testing.T, withCache bool) *searchFixture {
	t.Helper()
	f := &searchFixture{
		chunkStore: mocks.NewMockChunkStore(),
		ranker:     mocks.NewMockLexicalRanker(),
		metrics:    mocks.NewMockMetricsRecorder(),
		embedder:   embedding.NewHashEmbedder(domain.DefaultEmbeddingDimensions),
	}
	f.documentStore = mocks.NewMockDocumentStore(f.chunkStore)

	cfg := SearchServiceConfig{
		ChunkStore:    f.chunkStore,
		DocumentStore: f.documentStore,
		LexicalRanker: f.ranker,
		Embedder:      f.embedder,
		Settings:      domain.DefaultKBSettings(),
		Metrics:       f.metrics,
	}
	if withCache {
		f.cache = mocks.NewMockSearchCache()
		cfg.Cache = f.cache
	}
	f.svc = NewSearchService(cfg)
	return f
}

func (f *searchFixture) seed(docs ...seedDoc) {
	for _, d := range docs {
		st := d.sourceType
		if st == "" {
			st = domain.SourceTypeTXT
		}
		created := corpusEpoch.Add(-d.age)
		f.documentStore.Add(&domain.Document{
			ID:         d.id,
			SourceName: d.id + "." + string(st),
			SourceType: st,
			Metadata:   d.metadata,
			CreatedAt:  created,
			UpdatedAt:  created,
		})
		for i, content := range d.chunks {
			f.chunkStore.Add(&domain.Chunk{
				ID:         fmt.Sprintf("%s-c%d", d.id, i),
				DocumentID: d.id,
				ChunkIndex: i,
				Content:    content,
				Embedding:  f.embedder.Embed(content),
				CreatedAt:  created,
			})
		}
	}
}

func (f *searchFixture) seedUnrelated(n int) {
	for i := 0; i < n; i++ {
		f.seed(seedDoc{
			id:     fmt.Sprintf("bread-%d", i),
			age:    time.Duration(i+1) * 24 * time.Hour,
			chunks: []string{fmt.Sprintf("sourdough starter feeding schedule batch %d with rye flour", i)},
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestSearch_VectorSelfMatch(t *testing.T) {
	f := newSearchFixture(t, false)
	query := "quarterly liquidity stress testing results"
	f.seed(seedDoc{id: "d1", age: 30 * 24 * time.Hour, chunks: []string{query}})
	f.seedUnrelated(9)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{Query: query, TopK: 3, Mode: domain.SearchModeVector})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.LessOrEqual(t, len(result.Hits), 3)

	top := result.Hits[0]
	assert.Equal(t, "d1", top.Document.ID)
	assert.InDelta(t, 1.0, top.VectorScore, 1e-5)
	assert.Equal(t, domain.ConfidenceHigh, top.Confidence)
	assert.Equal(t, "doc:d1:chunk:d1-c0", top.ReferenceID)
	assert.NotEmpty(t, top.Snippet)
}

func TestSearch_MinScoreWithoutFallback(t *testing.T) {
	f := newSearchFixture(t, false)
	f.seedUnrelated(6)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{
		Query:         "zebra migration patterns",
		TopK:          4,
		Mode:          domain.SearchModeVector,
		MinScore:      ptr(0.95),
		AllowFallback: ptr(false),
	})
	require.NoError(t, err)
	assert.NotNil(t, result.Hits)
	assert.Empty(t, result.Hits)
}

func TestSearch_MinScoreWithFallback(t *testing.T) {
	f := newSearchFixture(t, false)
	f.seedUnrelated(6)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{
		Query:         "zebra migration patterns",
		TopK:          4,
		Mode:          domain.SearchModeVector,
		MinScore:      ptr(0.95),
		AllowFallback: ptr(true),
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 4)
	for _, hit := range result.Hits {
		assert.True(t, hit.HasFlag(domain.FlagFallbackSelected), "hit %s", hit.ReferenceID)
		assert.True(t, hit.HasFlag(domain.FlagLowScore), "hit %s", hit.ReferenceID)
	}
	assert.True(t, result.Policy.AllowFallback)
	assert.Equal(t, 0.95, result.Policy.MinScore)
}

func TestSearch_AllowedSourceTypes(t *testing.T) {
	f := newSearchFixture(t, false)
	content := "counterparty exposure limits for the rates desk"
	f.seed(
		seedDoc{id: "plain", sourceType: domain.SourceTypeTXT, chunks: []string{content}},
		seedDoc{id: "structured", sourceType: domain.SourceTypeJSON, chunks: []string{content}},
	)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{
		TopK:               domain.DefaultTopK,
		Query:              content,
		Mode:               domain.SearchModeVector,
		AllowedSourceTypes: []string{"JSON"},
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "structured", result.Hits[0].Document.ID)
}

func TestSearch_BlockedKeywordInMetadata(t *testing.T) {
	f := newSearchFixture(t, false)
	query := "merger negotiation timeline"
	f.seed(seedDoc{
		id:       "secret",
		metadata: map[string]any{"classification": "Confidential"},
		chunks:   []string{query},
	})
	f.seedUnrelated(3)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{
		TopK:                  domain.DefaultTopK,
		Query:                 query,
		Mode:                  domain.SearchModeHybrid,
		BlockedSourceKeywords: []string{"confidential"},
	})
	require.NoError(t, err)
	for _, hit := range result.Hits {
		assert.NotEqual(t, "secret", hit.Document.ID)
	}

	// Without the block the same document wins.
	result, err = f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: query, Mode: domain.SearchModeHybrid})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "secret", result.Hits[0].Document.ID)
}

func TestSearch_BlockedKeywordsFromSettings(t *testing.T) {
	chunkStore := mocks.NewMockChunkStore()
	f := &searchFixture{
		chunkStore:    chunkStore,
		documentStore: mocks.NewMockDocumentStore(chunkStore),
		embedder:      embedding.NewHashEmbedder(domain.DefaultEmbeddingDimensions),
	}
	settings := domain.DefaultKBSettings()
	settings.BlockedSourceKeywords = []string{"draft"}
	f.svc = NewSearchService(SearchServiceConfig{
		ChunkStore:    f.chunkStore,
		DocumentStore: f.documentStore,
		Embedder:      f.embedder,
		Settings:      settings,
	})
	f.seed(
		seedDoc{id: "draft-memo", chunks: []string{"capital plan"}},
		seedDoc{id: "final-memo", chunks: []string{"capital plan"}},
	)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "capital plan", Mode: domain.SearchModeVector})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "final-memo", result.Hits[0].Document.ID)

	// An explicit empty list lifts the configured block.
	result, err = f.svc.Search(context.Background(), domain.SearchRequest{
		TopK:                  domain.DefaultTopK,
		Query:                 "capital plan",
		Mode:                  domain.SearchModeVector,
		BlockedSourceKeywords: []string{},
	})
	require.NoError(t, err)
	assert.Len(t, result.Hits, 2)
}

func TestSearch_Properties(t *testing.T) {
	f := newSearchFixture(t, false)
	for i := 0; i < 8; i++ {
		f.seed(seedDoc{
			id:         fmt.Sprintf("doc-%d", i),
			sourceType: []domain.SourceType{domain.SourceTypeTXT, domain.SourceTypeJSON}[i%2],
			age:        time.Duration(i*11) * 24 * time.Hour,
			chunks: []string{
				fmt.Sprintf("credit risk appetite statement revision %d", i),
				fmt.Sprintf("market risk limits and liquidity buffers section %d", i),
				fmt.Sprintf("operational resilience playbook appendix %d", i),
			},
		})
	}
	f.ranker.SetMatches(
		driven.LexicalMatch{ChunkID: "doc-3-c1", Raw: 0.2},
		driven.LexicalMatch{ChunkID: "doc-5-c1", Raw: 0.9},
		driven.LexicalMatch{ChunkID: "doc-1-c0", Raw: 3.5},
	)

	queries := []string{"liquidity buffers", "credit risk", "resilience", "unrelated astronomy"}
	modes := []domain.SearchMode{domain.SearchModeFTS, domain.SearchModeVector, domain.SearchModeHybrid}
	profiles := []string{domain.PolicyStrict, domain.PolicyBalanced, domain.PolicyRecall}

	for _, query := range queries {
		for _, mode := range modes {
			for _, profile := range profiles {
				for _, topK := range []int{0, 1, 3, 8} {
					req := domain.SearchRequest{Query: query, TopK: topK, Mode: mode, PolicyProfile: profile}
					name := fmt.Sprintf("%s/%s/%s/%d", query, mode, profile, topK)

					result, err := f.svc.Search(context.Background(), req)
					require.NoError(t, err, name)
					assert.LessOrEqual(t, len(result.Hits), topK, name)

					docs := make(map[string]bool)
					for _, hit := range result.Hits {
						assert.GreaterOrEqual(t, hit.Score, 0.0, name)
						assert.LessOrEqual(t, hit.Score, 1.0, name)
						assert.Equal(t, governance.ConfidenceFor(math.Max(hit.Score, 0.01)), hit.Confidence, name)

						if !result.Policy.AllowFallback {
							assert.False(t, hit.HasFlag(domain.FlagFallbackSelected), name)
						}
						if profile == domain.PolicyStrict {
							assert.False(t, docs[hit.Document.ID], "%s: duplicate document %s", name, hit.Document.ID)
						}
						docs[hit.Document.ID] = true
					}

					again, err := f.svc.Search(context.Background(), req)
					require.NoError(t, err, name)
					require.Len(t, again.Hits, len(result.Hits), name)
					for i := range again.Hits {
						assert.Equal(t, result.Hits[i].ReferenceID, again.Hits[i].ReferenceID, name)
						assert.Equal(t, result.Hits[i].Score, again.Hits[i].Score, name)
					}
				}
			}
		}
	}
}

func TestSearch_FTSOrdering(t *testing.T) {
	f := newSearchFixture(t, false)
	f.seed(
		seedDoc{id: "a", chunks: []string{"basel capital ratios"}},
		seedDoc{id: "b", chunks: []string{"capital ratios overview"}},
		seedDoc{id: "c", chunks: []string{"unrelated cafeteria menu"}},
	)
	f.ranker.SetMatches(
		driven.LexicalMatch{ChunkID: "b-c0", Raw: 0.1},
		driven.LexicalMatch{ChunkID: "a-c0", Raw: 4},
	)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "capital ratios", Mode: domain.SearchModeFTS})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "b", result.Hits[0].Document.ID)
	assert.InDelta(t, 1/1.1, result.Hits[0].LexicalScore, 1e-9)
	assert.InDelta(t, 0.2, result.Hits[1].LexicalScore, 1e-9)
}

func TestSearch_TieBreakPrefersNewerDocument(t *testing.T) {
	f := newSearchFixture(t, false)
	f.seed(
		seedDoc{id: "old", age: 400 * 24 * time.Hour, chunks: []string{"vendor onboarding checklist"}},
		seedDoc{id: "new", age: 2 * 24 * time.Hour, chunks: []string{"vendor onboarding checklist"}},
	)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "vendor onboarding", Mode: domain.SearchModeVector})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, result.Hits[0].Score, result.Hits[1].Score)
	assert.Equal(t, "new", result.Hits[0].Document.ID)
}

func TestSearch_LexicalQueryAndLimit(t *testing.T) {
	f := newSearchFixture(t, false)
	f.seedUnrelated(2)

	_, err := f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "liquidity-risk (Q3)!", Mode: domain.SearchModeHybrid})
	require.NoError(t, err)
	_, err = f.svc.Search(context.Background(), domain.SearchRequest{Query: "liquidity", TopK: 10, Mode: domain.SearchModeFTS})
	require.NoError(t, err)

	assert.Equal(t, []string{"liquidity risk Q3", "liquidity"}, f.ranker.Queries)
	assert.Equal(t, []int{25, 50}, f.ranker.Limits)

	// Vector mode never consults the ranker.
	_, err = f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "liquidity", Mode: domain.SearchModeVector})
	require.NoError(t, err)
	assert.Len(t, f.ranker.Queries, 2)
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newSearchFixture(t, false)
	f.seedUnrelated(3)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "   ", Mode: domain.SearchModeHybrid, PolicyProfile: domain.PolicyRecall})
	require.NoError(t, err)
	assert.Empty(t, f.ranker.Queries)
	require.NotEmpty(t, result.Hits)
	for _, hit := range result.Hits {
		assert.True(t, hit.HasFlag(domain.FlagWeakTermOverlap))
	}
}

func TestSearch_EmptyPoolSkipsStoreReads(t *testing.T) {
	f := newSearchFixture(t, false)
	f.seedUnrelated(3)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "nothing matches", Mode: domain.SearchModeFTS})
	require.NoError(t, err)
	assert.NotNil(t, result.Hits)
	assert.Empty(t, result.Hits)
	assert.Zero(t, f.chunkStore.Reads)
}

func TestSearch_MissingDocument(t *testing.T) {
	f := newSearchFixture(t, false)
	f.chunkStore.Add(&domain.Chunk{ID: "orphan", DocumentID: "ghost", Content: "orphaned text", CreatedAt: corpusEpoch})

	_, err := f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "orphaned", Mode: domain.SearchModeVector})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
	assert.Equal(t, 1, f.metrics.SearchErrors)
}

func TestSearch_MissingEmbeddingScoresZero(t *testing.T) {
	f := newSearchFixture(t, false)
	f.documentStore.Add(&domain.Document{ID: "d", SourceType: domain.SourceTypeTXT})
	f.chunkStore.Add(&domain.Chunk{ID: "c", DocumentID: "d", Content: "treasury"})

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "treasury", Mode: domain.SearchModeVector})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Zero(t, result.Hits[0].VectorScore)
	assert.Zero(t, result.Hits[0].FreshnessScore)
}

func TestSearch_CollaboratorErrors(t *testing.T) {
	f := newSearchFixture(t, false)
	boom := errors.New("fts index offline")
	f.ranker.SetError(boom)

	_, err := f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "capital", Mode: domain.SearchModeFTS})
	assert.ErrorIs(t, err, boom)
}

func TestSearch_RequestValidation(t *testing.T) {
	f := newSearchFixture(t, false)

	tests := []struct {
		name    string
		req     domain.SearchRequest
		wantErr error
	}{
		{"unknown mode", domain.SearchRequest{Query: "q", Mode: "semantic"}, domain.ErrInvalidMode},
		{"min score above one", domain.SearchRequest{Query: "q", MinScore: ptr(1.5)}, domain.ErrInvalidInput},
		{"negative min score", domain.SearchRequest{Query: "q", MinScore: ptr(-0.1)}, domain.ErrInvalidInput},
		{"zero per-document cap", domain.SearchRequest{Query: "q", MaxPerDocument: ptr(0)}, domain.ErrInvalidInput},
		{"negative top_k", domain.SearchRequest{Query: "q", TopK: -1}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Search(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSearch_PolicyResolution(t *testing.T) {
	f := newSearchFixture(t, false)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "q", PolicyProfile: "does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyBalanced, result.Policy.Name)
	assert.Equal(t, domain.SearchModeHybrid, result.Mode)

	result, err = f.svc.Search(context.Background(), domain.SearchRequest{
		TopK:           domain.DefaultTopK,
		Query:          "q",
		PolicyProfile:  domain.PolicyStrict,
		AllowFallback:  ptr(true),
		MaxPerDocument: ptr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GovernancePolicy{Name: domain.PolicyStrict, MinScore: 0.16, MaxPerDocument: 3, AllowFallback: true}, result.Policy)
}

func TestSearch_Cache(t *testing.T) {
	f := newSearchFixture(t, true)
	f.seedUnrelated(4)
	req := domain.SearchRequest{TopK: domain.DefaultTopK, Query: "rye flour", Mode: domain.SearchModeHybrid}

	first, err := f.svc.Search(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, f.metrics.CacheMisses)
	assert.Equal(t, 1, f.metrics.CacheHits)
	assert.Equal(t, 1, f.metrics.Searches)
	assert.Equal(t, first.Hits, second.Hits)

	// Overrides change the resolved plan and therefore the key.
	_, err = f.svc.Search(context.Background(), domain.SearchRequest{TopK: domain.DefaultTopK, Query: "rye flour", Mode: domain.SearchModeHybrid, MinScore: ptr(0.5)})
	require.NoError(t, err)
	assert.Equal(t, 2, f.cache.Len())

	require.NoError(t, f.cache.Invalidate(context.Background()))
	_, err = f.svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, f.metrics.CacheMisses)
}

// ingestingChunkStore commits an ingest the first time a search loads chunks
type ingestingChunkStore struct {
	*mocks.MockChunkStore
	once   sync.Once
	ingest func()
}

func (s *ingestingChunkStore) GetMany(ctx context.Context, ids []string) ([]*domain.Chunk, error) {
	chunks, err := s.MockChunkStore.GetMany(ctx, ids)
	s.once.Do(s.ingest)
	return chunks, err
}

func TestSearch_CacheSkipsResultComputedAcrossIngest(t *testing.T) {
	f := newSearchFixture(t, true)
	f.seed(seedDoc{id: "old", age: 48 * time.Hour, chunks: []string{"rye flour hydration notes"}})

	store := &ingestingChunkStore{MockChunkStore: f.chunkStore, ingest: func() {
		f.seed(seedDoc{id: "new", chunks: []string{"rye flour proofing times"}})
		require.NoError(t, f.cache.Invalidate(context.Background()))
	}}
	svc := NewSearchService(SearchServiceConfig{
		ChunkStore:    store,
		DocumentStore: f.documentStore,
		LexicalRanker: f.ranker,
		Embedder:      f.embedder,
		Settings:      domain.DefaultKBSettings(),
		Cache:         f.cache,
		Metrics:       f.metrics,
	})
	req := domain.SearchRequest{Query: "rye flour", TopK: domain.DefaultTopK, Mode: domain.SearchModeVector}

	docIDs := func(result *domain.SearchResult) []string {
		ids := []string{}
		for _, hit := range result.Hits {
			ids = append(ids, hit.Document.ID)
		}
		return ids
	}

	first, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, docIDs(first))
	assert.Zero(t, f.cache.Len(), "result of the previous generation must not be current")

	second, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, docIDs(second), "new")
	assert.Equal(t, 2, f.metrics.CacheMisses)
	assert.Zero(t, f.metrics.CacheHits)
}

func TestSearch_ZeroTopKReturnsNoHits(t *testing.T) {
	f := newSearchFixture(t, false)
	f.seedUnrelated(8)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{Query: "rye flour", Mode: domain.SearchModeHybrid, TopK: 0})
	require.NoError(t, err)
	assert.NotNil(t, result.Hits)
	assert.Empty(t, result.Hits)
	assert.Zero(t, f.chunkStore.Reads)
}

func TestSearch_TopKCappedAtMaximum(t *testing.T) {
	f := newSearchFixture(t, false)
	f.seedUnrelated(60)

	result, err := f.svc.Search(context.Background(), domain.SearchRequest{Query: "rye flour", Mode: domain.SearchModeVector, TopK: 500, PolicyProfile: domain.PolicyRecall})
	require.NoError(t, err)
	assert.Len(t, result.Hits, domain.MaxTopK)
}

func TestSearch_Policies(t *testing.T) {
	f := newSearchFixture(t, false)

	policies := f.svc.Policies()
	require.Len(t, policies, 3)
	assert.Equal(t, domain.PolicyStrict, policies[0].Name)
	assert.Equal(t, domain.PolicyBalanced, policies[1].Name)
	assert.Equal(t, domain.PolicyRecall, policies[2].Name)
	assert.Equal(t, domain.PolicyBalanced, f.svc.DefaultPolicy().Name)
}

func TestSearch_ConfiguredDefaultPolicy(t *testing.T) {
	settings := domain.DefaultKBSettings()
	settings.PolicyProfile = "Strict"
	chunks := mocks.NewMockChunkStore()
	svc := NewSearchService(SearchServiceConfig{
		ChunkStore:    chunks,
		DocumentStore: mocks.NewMockDocumentStore(chunks),
		LexicalRanker: mocks.NewMockLexicalRanker(),
		Embedder:      embedding.NewHashEmbedder(domain.DefaultEmbeddingDimensions),
		Settings:      settings,
	})

	assert.Equal(t, domain.PolicyStrict, svc.DefaultPolicy().Name)

	result, err := svc.Search(context.Background(), domain.SearchRequest{Query: "q", TopK: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyStrict, result.Policy.Name)

	result, err = svc.Search(context.Background(), domain.SearchRequest{Query: "q", TopK: 1, PolicyProfile: domain.PolicyRecall})
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyRecall, result.Policy.Name)
}
