package driven

import "github.com/custodia-labs/sercha-kb/internal/core/domain"

// Normaliser extracts indexable text from raw document content.
type Normaliser interface {
	// Normalise transforms raw content into plain text.
	// Returns domain.ErrInvalidInput if content is not valid for the source type.
	Normalise(content []byte, sourceType domain.SourceType) (string, error)

	// SupportedTypes returns the source types this normaliser handles.
	SupportedTypes() []domain.SourceType

	// Priority returns the normaliser priority (higher = more specific).
	//   50-89:  Format-specific (JSON)
	//   10-49:  Generic (plain text)
	Priority() int
}

// NormaliserRegistry manages content normalisers.
// When multiple normalisers match a source type, the highest priority one is used.
type NormaliserRegistry interface {
	// Get retrieves the best-matching normaliser for a source type.
	// Returns nil if no normaliser is registered for the type.
	Get(sourceType domain.SourceType) Normaliser

	// Register registers a normaliser.
	Register(normaliser Normaliser)

	// List returns all source types with a registered normaliser.
	List() []domain.SourceType
}

// PostProcessor applies post-processing to document content or chunks.
// Processors form a pipeline: Chunker -> WhitespaceNormalizer -> Deduplicator.
type PostProcessor interface {
	// Process applies post-processing to content chunks.
	// The first processor (Chunker) receives a single chunk with the full content.
	Process(chunks []Chunk) []Chunk

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// Chunk represents a piece of document content for processing.
type Chunk struct {
	// Content is the text content of the chunk
	Content string

	// Position is the chunk index within the document (0-based)
	Position int

	// StartOffset is the character offset from document start
	StartOffset int

	// EndOffset is the character offset for chunk end
	EndOffset int
}

// PostProcessorPipeline chains multiple post-processors in order.
type PostProcessorPipeline interface {
	// Process applies all processors in order and returns chunks ready for embedding.
	Process(content string) []Chunk

	// Add adds a processor to the pipeline.
	Add(processor PostProcessor)

	// List returns processor names in order.
	List() []string
}
