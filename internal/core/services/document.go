package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// DocumentServiceConfig holds the collaborators of the document service.
// EmbedPool, Cache, Metrics and Logger are optional; without a pool chunks
// are embedded sequentially.
type DocumentServiceConfig struct {
	DocumentStore driven.DocumentStore
	ChunkStore    driven.ChunkStore
	Embedder      driven.Embedder
	Normalisers   driven.NormaliserRegistry
	Pipeline      driven.PostProcessorPipeline
	EmbedPool     *ants.Pool
	Cache         driven.SearchCache
	Metrics       driven.MetricsRecorder
	Logger        *slog.Logger
}

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	embedder      driven.Embedder
	normalisers   driven.NormaliserRegistry
	pipeline      driven.PostProcessorPipeline
	pool          *ants.Pool
	cache         driven.SearchCache
	metrics       driven.MetricsRecorder
	logger        *slog.Logger
	now           func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(cfg DocumentServiceConfig) driving.DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &documentService{
		documentStore: cfg.DocumentStore,
		chunkStore:    cfg.ChunkStore,
		embedder:      cfg.Embedder,
		normalisers:   cfg.Normalisers,
		pipeline:      cfg.Pipeline,
		pool:          cfg.EmbedPool,
		cache:         cfg.Cache,
		metrics:       cfg.Metrics,
		logger:        logger.With("component", "documents"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// IngestText chunks, embeds and stores raw text
func (s *documentService) IngestText(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	start := time.Now()
	result, err := s.ingest(ctx, req)
	if s.metrics != nil {
		chunks := 0
		if result != nil {
			chunks = result.ChunkCount
		}
		s.metrics.ObserveIngest(string(req.SourceType), chunks, time.Since(start), err)
	}
	if err != nil {
		s.logger.Warn("ingest failed", "source", req.SourceName, "error", err)
		return nil, err
	}

	s.logger.Info("document ingested",
		"document_id", result.Document.ID,
		"source", result.Document.SourceName,
		"chunks", result.ChunkCount,
		"took", time.Since(start),
	)
	return result, nil
}

func (s *documentService) ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: empty content; cannot ingest", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.SourceName) == "" {
		return nil, fmt.Errorf("%w: source_name is required", domain.ErrInvalidInput)
	}
	sourceType := domain.NormalizeSourceType(string(req.SourceType))
	if sourceType == "" {
		sourceType = domain.SourceTypeTXT
	}
	if !sourceType.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedSourceType, req.SourceType)
	}

	pieces := s.pipeline.Process(req.Content)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: no chunks generated from content", domain.ErrInvalidInput)
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	now := s.now()
	doc := &domain.Document{
		ID:          uuid.NewString(),
		SourceName:  req.SourceName,
		SourceType:  sourceType,
		Title:       req.Title,
		StoragePath: req.StoragePath,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	chunks := make([]*domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			ChunkIndex: piece.Position,
			Content:    piece.Content,
			TokenCount: len(strings.Fields(piece.Content)),
			CreatedAt:  now,
		}
	}
	if err := s.embed(ctx, chunks); err != nil {
		return nil, err
	}

	if err := s.documentStore.SaveWithChunks(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("search cache invalidation failed", "error", err)
		}
	}

	return &domain.IngestResult{Document: doc, ChunkCount: len(chunks)}, nil
}

// embed fills in chunk embeddings, fanning out over the pool when one is configured
func (s *documentService) embed(ctx context.Context, chunks []*domain.Chunk) error {
	if s.pool == nil {
		for _, chunk := range chunks {
			chunk.Embedding = s.embedder.Embed(chunk.Content)
		}
		return nil
	}

	var wg sync.WaitGroup
	for _, chunk := range chunks {
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			chunk.Embedding = s.embedder.Embed(chunk.Content)
		}); err != nil {
			wg.Done()
			chunk.Embedding = s.embedder.Embed(chunk.Content)
		}
	}
	wg.Wait()
	return ctx.Err()
}

// IngestFile reads a file, extracts its text and ingests it
func (s *documentService) IngestFile(ctx context.Context, path, sourceType, title string, metadata map[string]any) (*domain.IngestResult, error) {
	st, err := domain.InferSourceType(path, sourceType)
	if err != nil {
		return nil, fmt.Errorf("%w: use pdf/txt/json", err)
	}

	normaliser := s.normalisers.Get(st)
	if normaliser == nil {
		return nil, fmt.Errorf("%w: no text extractor for %q", domain.ErrUnsupportedSourceType, st)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	text, err := normaliser.Normalise(data, st)
	if err != nil {
		return nil, err
	}

	return s.IngestText(ctx, domain.IngestRequest{
		SourceName:  filepath.Base(path),
		SourceType:  st,
		Content:     text,
		Title:       title,
		StoragePath: path,
		Metadata:    metadata,
	})
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// GetWithChunks retrieves a document with its chunks
func (s *documentService) GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkStore.GetByDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.DocumentWithChunks{
		Document: doc,
		Chunks:   chunks,
	}, nil
}

// List returns the newest documents first
func (s *documentService) List(ctx context.Context, limit int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.documentStore.List(ctx, limit)
}

// Count returns the total number of documents
func (s *documentService) Count(ctx context.Context) (int, error) {
	return s.documentStore.Count(ctx)
}
