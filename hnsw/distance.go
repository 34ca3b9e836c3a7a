package hnsw

import (
	"fmt"
	"math"
)

// Cosine similarity remapped onto an ascending distance scale: identical
// vectors score DistanceIdentical, opposed vectors DistanceMax. Sorting by
// ascending distance therefore means descending similarity.
const (
	DistanceIdentical = 0.0
	DistanceMax       = 2.0
)

// CosineDistance computes the ascending cosine distance between a and b.
//
// Mismatched dimensionality is a programming error, not a data condition:
// every stored vector was validated against the index dimension at insert
// time, so a mismatch here means the caller broke an invariant. It fails
// immediately instead of returning an error.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("hnsw: dimension mismatch: %d vs %d", len(a), len(b)))
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return DistanceMax
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Float error can push |sim| marginally past 1.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	d := 1 - sim
	if d < DistanceIdentical {
		return DistanceIdentical
	}
	if d > DistanceMax {
		return DistanceMax
	}
	return d
}
