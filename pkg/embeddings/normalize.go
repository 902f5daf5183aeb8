// Package embeddings provides utilities for embedding vectors (normalization, zero vectors).
package embeddings

import (
	"math"
)

// NormalizeL2 scales vector to unit length in place.
// Providers that truncate output dimensionality return unnormalized vectors,
// and cosine search over the stored column assumes unit length.
func NormalizeL2(vector []float32) {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	// Zero vectors have no direction; leave them as they are.
	if sumSquares == 0 {
		return
	}

	magnitude := math.Sqrt(sumSquares)

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}

// Zeros returns count all-zero vectors of length dims.
func Zeros(count, dims int) [][]float32 {
	out := make([][]float32, count)
	for i := range out {
		out[i] = make([]float32, dims)
	}

	return out
}

// IsZero reports whether every component of vector is zero.
// Zero vectors mark courses stored without a real embedding.
func IsZero(vector []float32) bool {
	for _, v := range vector {
		if v != 0 {
			return false
		}
	}

	return true
}
