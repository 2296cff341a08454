package store

import (
	"fmt"
	"math"

	"github.com/askdocs/askdocs/pkg/types"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// A zero-norm input yields 0 rather than NaN. A length mismatch is a
// programming error and is reported, never silently coerced.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", types.ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
