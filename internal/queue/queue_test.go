package queue

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mu-L/helix-db-sub003/model"
)

func TestPriorityQueue(t *testing.T) {
	t.Run("MinOrder", func(t *testing.T) {
		pq := NewMin(8)
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 100; i++ {
			pq.PushItem(Item{ID: model.NewID(), Distance: rng.Float64()})
		}

		prev := -1.0
		for pq.Len() > 0 {
			it, ok := pq.PopItem()
			require.True(t, ok)
			assert.GreaterOrEqual(t, it.Distance, prev)
			prev = it.Distance
		}
	})

	t.Run("MaxOrder", func(t *testing.T) {
		pq := NewMax(8)
		rng := rand.New(rand.NewSource(2))
		for i := 0; i < 100; i++ {
			pq.PushItem(Item{ID: model.NewID(), Distance: rng.Float64()})
		}

		prev := 2.0
		for pq.Len() > 0 {
			it, ok := pq.PopItem()
			require.True(t, ok)
			assert.LessOrEqual(t, it.Distance, prev)
			prev = it.Distance
		}
	})

	t.Run("MinItemOnMaxHeap", func(t *testing.T) {
		pq := NewMax(4)
		pq.PushItem(Item{Distance: 0.5})
		pq.PushItem(Item{Distance: 0.1})
		pq.PushItem(Item{Distance: 0.9})

		it, ok := pq.MinItem()
		require.True(t, ok)
		assert.Equal(t, 0.1, it.Distance)

		top, ok := pq.TopItem()
		require.True(t, ok)
		assert.Equal(t, 0.9, top.Distance)
	})

	t.Run("Empty", func(t *testing.T) {
		pq := NewMin(4)
		_, ok := pq.PopItem()
		assert.False(t, ok)
		_, ok = pq.TopItem()
		assert.False(t, ok)
		_, ok = pq.MinItem()
		assert.False(t, ok)
	})

	t.Run("Reset", func(t *testing.T) {
		pq := NewMin(4)
		pq.PushItem(Item{Distance: 1})
		pq.Reset()
		assert.Zero(t, pq.Len())
	})
}
