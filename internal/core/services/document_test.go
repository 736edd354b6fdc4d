package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-kb/internal/embedding"
	"github.com/custodia-labs/sercha-kb/internal/normalisers"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors"
)

type documentFixture struct {
	chunkStore    *mocks.MockChunkStore
	documentStore *mocks.MockDocumentStore
	cache         *mocks.MockSearchCache
	metrics       *mocks.MockMetricsRecorder
	svc           *documentService
}

func newDocumentFixture(t *testing.T, pool *ants.Pool) *documentFixture {
	t.Helper()
	chunkStore := mocks.NewMockChunkStore()
	documentStore := mocks.NewMockDocumentStore(chunkStore)
	cache := mocks.NewMockSearchCache()
	metrics := mocks.NewMockMetricsRecorder()

	svc := NewDocumentService(DocumentServiceConfig{
		DocumentStore: documentStore,
		ChunkStore:    chunkStore,
		Embedder:      embedding.NewHashEmbedder(256),
		Normalisers:   normalisers.DefaultRegistry(),
		Pipeline:      postprocessors.DefaultPipeline(),
		EmbedPool:     pool,
		Cache:         cache,
		Metrics:       metrics,
	}).(*documentService)

	return &documentFixture{
		chunkStore:    chunkStore,
		documentStore: documentStore,
		cache:         cache,
		metrics:       metrics,
		svc:           svc,
	}
}

func TestDocumentService_IngestText(t *testing.T) {
	f := newDocumentFixture(t, nil)
	ctx := context.Background()

	content := strings.Repeat("Liquidity risk is monitored daily by the treasury desk. ", 40)
	result, err := f.svc.IngestText(ctx, domain.IngestRequest{
		SourceName: "treasury-policy.txt",
		SourceType: "TXT",
		Content:    content,
		Title:      "Treasury policy",
		Metadata:   map[string]any{"owner": "treasury"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ChunkCount < 2 {
		t.Fatalf("expected several chunks for %d bytes, got %d", len(content), result.ChunkCount)
	}
	if result.Document.SourceType != domain.SourceTypeTXT {
		t.Errorf("expected normalized source type txt, got %s", result.Document.SourceType)
	}
	if result.Document.CreatedAt.IsZero() {
		t.Error("expected creation timestamp")
	}

	chunks, err := f.chunkStore.GetByDocument(ctx, result.Document.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != result.ChunkCount {
		t.Fatalf("expected %d stored chunks, got %d", result.ChunkCount, len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			t.Errorf("expected chunk index %d, got %d", i, chunk.ChunkIndex)
		}
		if chunk.TokenCount != len(strings.Fields(chunk.Content)) {
			t.Errorf("chunk %d: token count %d does not match content", i, chunk.TokenCount)
		}
		if len(chunk.Embedding) != 256 {
			t.Errorf("chunk %d: expected 256-dim embedding, got %d", i, len(chunk.Embedding))
		}
		if chunk.DocumentID != result.Document.ID {
			t.Errorf("chunk %d: wrong document id", i)
		}
	}

	if f.cache.Invalidations != 1 {
		t.Errorf("expected cache invalidation, got %d", f.cache.Invalidations)
	}
	if f.metrics.Ingests != 1 || f.metrics.IngestErrors != 0 {
		t.Errorf("unexpected ingest metrics %+v", f.metrics)
	}
}

func TestDocumentService_IngestText_WithPool(t *testing.T) {
	pool, err := ants.NewPool(4)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer pool.Release()

	f := newDocumentFixture(t, pool)
	sequential := newDocumentFixture(t, nil)
	content := strings.Repeat("Factor exposures are rebalanced every quarter. ", 60)

	pooled, err := f.svc.IngestText(context.Background(), domain.IngestRequest{SourceName: "a", Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plain, err := sequential.svc.IngestText(context.Background(), domain.IngestRequest{SourceName: "a", Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := f.chunkStore.GetByDocument(context.Background(), pooled.Document.ID)
	b, _ := sequential.chunkStore.GetByDocument(context.Background(), plain.Document.ID)
	if len(a) != len(b) {
		t.Fatalf("pooled and sequential chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if embedding.Dot(a[i].Embedding, b[i].Embedding) < 0.9999 {
			t.Errorf("chunk %d: pooled embedding differs from sequential", i)
		}
	}
}

func TestDocumentService_IngestText_Validation(t *testing.T) {
	f := newDocumentFixture(t, nil)

	tests := []struct {
		name    string
		req     domain.IngestRequest
		wantErr error
	}{
		{"empty content", domain.IngestRequest{SourceName: "a", Content: "  \n "}, domain.ErrInvalidInput},
		{"missing source name", domain.IngestRequest{Content: "text"}, domain.ErrInvalidInput},
		{"unknown source type", domain.IngestRequest{SourceName: "a", SourceType: "docx", Content: "text"}, domain.ErrUnsupportedSourceType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.IngestText(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if n, _ := f.documentStore.Count(context.Background()); n != 0 {
		t.Errorf("expected no documents stored, got %d", n)
	}
	if f.metrics.IngestErrors != len(tests) {
		t.Errorf("expected %d ingest errors, got %d", len(tests), f.metrics.IngestErrors)
	}
}

func TestDocumentService_IngestText_DefaultsToTxt(t *testing.T) {
	f := newDocumentFixture(t, nil)

	result, err := f.svc.IngestText(context.Background(), domain.IngestRequest{SourceName: "note", Content: "short note"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Document.SourceType != domain.SourceTypeTXT {
		t.Errorf("expected txt, got %s", result.Document.SourceType)
	}
	if result.Document.Metadata == nil {
		t.Error("expected empty metadata map, got nil")
	}
	if result.ChunkCount != 1 {
		t.Errorf("expected 1 chunk, got %d", result.ChunkCount)
	}
}

func TestDocumentService_IngestText_SaveFailure(t *testing.T) {
	f := newDocumentFixture(t, nil)
	f.documentStore.FailSave = true

	_, err := f.svc.IngestText(context.Background(), domain.IngestRequest{SourceName: "a", Content: "text"})
	if err == nil {
		t.Fatal("expected error")
	}
	if f.cache.Invalidations != 0 {
		t.Error("cache must not be invalidated when nothing was stored")
	}
}

func TestDocumentService_IngestFile(t *testing.T) {
	f := newDocumentFixture(t, nil)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "limits.json")
	if err := os.WriteFile(jsonPath, []byte(`{"desk":"rates","limit":5}`), 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := f.svc.IngestFile(context.Background(), jsonPath, "", "Desk limits", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Document.SourceType != domain.SourceTypeJSON {
		t.Errorf("expected json source type, got %s", result.Document.SourceType)
	}
	if result.Document.SourceName != "limits.json" || result.Document.StoragePath != jsonPath {
		t.Errorf("unexpected source fields: %+v", result.Document)
	}

	chunks, _ := f.chunkStore.GetByDocument(context.Background(), result.Document.ID)
	if len(chunks) != 1 || !strings.Contains(chunks[0].Content, `"desk": "rates"`) {
		t.Errorf("expected re-indented JSON content, got %+v", chunks)
	}
}

func TestDocumentService_IngestFile_Errors(t *testing.T) {
	f := newDocumentFixture(t, nil)
	dir := t.TempDir()

	pdfPath := filepath.Join(dir, "report.pdf")
	_ = os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o600)
	if _, err := f.svc.IngestFile(context.Background(), pdfPath, "", "", nil); !errors.Is(err, domain.ErrUnsupportedSourceType) {
		t.Errorf("expected ErrUnsupportedSourceType for pdf, got %v", err)
	}

	pngPath := filepath.Join(dir, "chart.png")
	if _, err := f.svc.IngestFile(context.Background(), pngPath, "", "", nil); !errors.Is(err, domain.ErrUnsupportedSourceType) {
		t.Errorf("expected ErrUnsupportedSourceType for png, got %v", err)
	}

	badJSON := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(badJSON, []byte("{"), 0o600)
	if _, err := f.svc.IngestFile(context.Background(), badJSON, "", "", nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for malformed json, got %v", err)
	}

	if _, err := f.svc.IngestFile(context.Background(), filepath.Join(dir, "missing.txt"), "", "", nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestDocumentService_GetWithChunks(t *testing.T) {
	f := newDocumentFixture(t, nil)
	ctx := context.Background()

	result, err := f.svc.IngestText(ctx, domain.IngestRequest{SourceName: "a", Content: "alpha beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.svc.GetWithChunks(ctx, result.Document.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Document.ID != result.Document.ID || len(got.Chunks) != 1 {
		t.Errorf("unexpected document with chunks: %+v", got)
	}

	if _, err := f.svc.GetWithChunks(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentService_List(t *testing.T) {
	f := newDocumentFixture(t, nil)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 260; i++ {
		f.documentStore.Add(&domain.Document{ID: string(rune('a'+i%26)) + strings.Repeat("x", i/26), CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	docs, err := f.svc.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != defaultListLimit {
		t.Errorf("expected default limit %d, got %d", defaultListLimit, len(docs))
	}
	if !docs[0].CreatedAt.After(docs[1].CreatedAt) {
		t.Error("expected newest first")
	}

	docs, _ = f.svc.List(context.Background(), 1000)
	if len(docs) != maxListLimit {
		t.Errorf("expected max limit %d, got %d", maxListLimit, len(docs))
	}

	if n, _ := f.svc.Count(context.Background()); n != 260 {
		t.Errorf("expected 260 documents, got %d", n)
	}
}
