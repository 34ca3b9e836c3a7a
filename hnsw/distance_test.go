package hnsw

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineDistance(t *testing.T) {
	t.Run("Identical", func(t *testing.T) {
		assert.InDelta(t, DistanceIdentical, CosineDistance([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
		// Scale-invariant.
		assert.InDelta(t, DistanceIdentical, CosineDistance([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	})

	t.Run("Opposed", func(t *testing.T) {
		assert.InDelta(t, DistanceMax, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	})

	t.Run("Orthogonal", func(t *testing.T) {
		assert.InDelta(t, 1.0, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("ZeroNorm", func(t *testing.T) {
		assert.Equal(t, DistanceMax, CosineDistance([]float32{0, 0}, []float32{1, 2}))
	})

	t.Run("DimensionMismatchPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			CosineDistance([]float32{1, 2}, []float32{1, 2, 3})
		})
	})
}
