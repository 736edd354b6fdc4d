// Package embedding provides the deterministic feature-hash embedder used
// for both chunks and queries.
package embedding

import (
	"math"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure HashEmbedder implements Embedder
var _ driven.Embedder = (*HashEmbedder)(nil)

// tokenPattern matches maximal runs of ASCII letters, digits or CJK unified ideographs.
var tokenPattern = regexp.MustCompile(`[A-Za-z0-9\x{4e00}-\x{9fff}]+`)

const minNorm = 1e-8

// HashEmbedder maps each token to one of dim buckets with xxhash64.
// The result only reflects token co-occurrence, not meaning.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates an embedder producing vectors of length dim.
// A dim of zero or less uses domain.DefaultEmbeddingDimensions.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = domain.DefaultEmbeddingDimensions
	}
	return &HashEmbedder{dim: dim}
}

// Dimensions returns the vector length
func (e *HashEmbedder) Dimensions() int {
	return e.dim
}

// Embed returns the L2-normalized bucket counts of text's tokens,
// or the zero vector when text has no tokens.
func (e *HashEmbedder) Embed(text string) []float32 {
	counts := make([]float64, e.dim)
	for _, token := range Tokenize(text) {
		counts[xxhash.Sum64String(token)%uint64(e.dim)] += 1.0
	}

	var sum float64
	for _, c := range counts {
		sum += c * c
	}
	norm := math.Sqrt(sum)

	vec := make([]float32, e.dim)
	if norm <= minNorm {
		return vec
	}
	for i, c := range counts {
		vec[i] = float32(c / norm)
	}
	return vec
}

// Tokenize lower-cases text and returns its alphanumeric/CJK runs in order.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Dot returns the dot product of a and b, or 0 when either is empty
// or their lengths differ.
func Dot(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
