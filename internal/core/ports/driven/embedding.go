package driven

// Embedder turns text into a fixed-length vector.
// Implementations must be deterministic and never fail; text without
// tokens yields the zero vector.
type Embedder interface {
	// Embed returns a vector of length Dimensions()
	Embed(text string) []float32

	// Dimensions returns the embedding dimension size
	Dimensions() int
}
