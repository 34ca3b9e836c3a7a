package hnsw

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mu-L/helix-db-sub003/model"
	"github.com/Mu-L/helix-db-sub003/storage"
)

func newTestIndex(t *testing.T, optFns ...func(o *Options)) (*storage.Store, *Index) {
	t.Helper()
	s, err := storage.Open("", func(o *storage.Options) { o.InMemory = true })
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	seed := int64(42)
	optFns = append([]func(o *Options){func(o *Options) { o.RandomSeed = &seed }}, optFns...)
	return s, New(s, optFns...)
}

func insert(t *testing.T, s *storage.Store, ix *Index, label string, data []float32) *model.Vector {
	t.Helper()
	var v *model.Vector
	require.NoError(t, s.Update(func(txn *storage.Txn) error {
		var err error
		v, err = ix.Insert(txn, label, data, nil)
		return err
	}))
	return v
}

func TestInsert(t *testing.T) {
	t.Run("FirstVectorBecomesEntryPoint", func(t *testing.T) {
		s, ix := newTestIndex(t)
		v := insert(t, s, ix, "doc", []float32{1, 2, 3})

		require.NoError(t, s.View(func(txn *storage.Txn) error {
			ep, _, err := s.EntryPoint(txn)
			require.NoError(t, err)
			assert.Equal(t, v.ID, ep)
			return nil
		}))
	})

	t.Run("EmptyData", func(t *testing.T) {
		s, ix := newTestIndex(t)
		err := s.Update(func(txn *storage.Txn) error {
			_, err := ix.Insert(txn, "doc", nil, nil)
			return err
		})
		assert.ErrorIs(t, err, ErrInvalidVectorData)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		s, ix := newTestIndex(t)
		insert(t, s, ix, "doc", []float32{1, 2, 3})

		err := s.Update(func(txn *storage.Txn) error {
			_, err := ix.Insert(txn, "doc", []float32{1, 2}, nil)
			return err
		})
		var ivl *ErrInvalidVectorLength
		require.ErrorAs(t, err, &ivl)
		assert.Equal(t, 3, ivl.Expected)
		assert.Equal(t, 2, ivl.Actual)
	})
}

func TestSearch(t *testing.T) {
	t.Run("EmptyIndex", func(t *testing.T) {
		s, ix := newTestIndex(t)
		err := s.View(func(txn *storage.Txn) error {
			_, err := ix.Search(txn, "doc", []float32{1, 2, 3}, 1)
			return err
		})
		assert.ErrorIs(t, err, ErrEntryPointNotFound)
	})

	t.Run("InvalidK", func(t *testing.T) {
		s, ix := newTestIndex(t)
		insert(t, s, ix, "doc", []float32{1, 2, 3})
		err := s.View(func(txn *storage.Txn) error {
			_, err := ix.Search(txn, "doc", []float32{1, 2, 3}, 0)
			return err
		})
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("Soundness", func(t *testing.T) {
		s, ix := newTestIndex(t)
		v1 := insert(t, s, ix, "doc", []float32{1, 2, 3})
		insert(t, s, ix, "doc", []float32{4, 5, 6})
		insert(t, s, ix, "doc", []float32{7, 8, 9})

		require.NoError(t, s.View(func(txn *storage.Txn) error {
			got, err := ix.Search(txn, "doc", []float32{1, 2, 3}, 1)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, v1.ID, got[0].ID)
			assert.InDelta(t, DistanceIdentical, got[0].Distance, 1e-9)
			return nil
		}))
	})

	t.Run("AscendingDistances", func(t *testing.T) {
		s, ix := newTestIndex(t)
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 200; i++ {
			insert(t, s, ix, "doc", []float32{rng.Float32(), rng.Float32(), rng.Float32(), rng.Float32()})
		}

		require.NoError(t, s.View(func(txn *storage.Txn) error {
			got, err := ix.Search(txn, "doc", []float32{0.5, 0.5, 0.5, 0.5}, 10)
			require.NoError(t, err)
			require.Len(t, got, 10)
			for i := 1; i < len(got); i++ {
				assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
			}
			return nil
		}))
	})

	t.Run("LabelFiltered", func(t *testing.T) {
		s, ix := newTestIndex(t)
		insert(t, s, ix, "doc", []float32{1, 0, 0})
		other := insert(t, s, ix, "image", []float32{1, 0.01, 0})

		require.NoError(t, s.View(func(txn *storage.Txn) error {
			got, err := ix.Search(txn, "doc", []float32{1, 0, 0}, 10)
			require.NoError(t, err)
			for _, v := range got {
				assert.NotEqual(t, other.ID, v.ID)
				assert.Equal(t, "doc", v.Label)
			}
			return nil
		}))
	})
}

func TestRecallAgainstBruteForce(t *testing.T) {
	s, ix := newTestIndex(t, func(o *Options) {
		o.M = 16
		o.EFConstruction = 200
		o.EFSearch = 100
	})

	const (
		n   = 500
		dim = 8
		k   = 10
	)
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < n; i++ {
		vec := make([]float32, dim)
		for d := range vec {
			vec[d] = rng.Float32()
		}
		insert(t, s, ix, "doc", vec)
	}

	query := make([]float32, dim)
	for d := range query {
		query[d] = rng.Float32()
	}

	require.NoError(t, s.View(func(txn *storage.Txn) error {
		exact, err := ix.BruteSearch(txn, "doc", query, k)
		require.NoError(t, err)
		approx, err := ix.Search(txn, "doc", query, k)
		require.NoError(t, err)

		truth := make(map[model.ID]struct{}, len(exact))
		for _, v := range exact {
			truth[v.ID] = struct{}{}
		}
		hits := 0
		for _, v := range approx {
			if _, ok := truth[v.ID]; ok {
				hits++
			}
		}
		recall := float64(hits) / float64(k)
		assert.GreaterOrEqual(t, recall, 0.8, fmt.Sprintf("recall %.2f too low", recall))
		return nil
	}))
}

func TestBruteSearch(t *testing.T) {
	s, ix := newTestIndex(t)
	v1 := insert(t, s, ix, "doc", []float32{1, 2, 3})
	v2 := insert(t, s, ix, "doc", []float32{4, 5, 6})
	insert(t, s, ix, "doc", []float32{7, 8, 9})

	require.NoError(t, s.View(func(txn *storage.Txn) error {
		got, err := ix.BruteSearch(txn, "doc", []float32{1, 2, 3}, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, v1.ID, got[0].ID)
		assert.Equal(t, v2.ID, got[1].ID)
		assert.LessOrEqual(t, got[0].Distance, got[1].Distance)
		return nil
	}))
}

func TestDelete(t *testing.T) {
	t.Run("ExcludedFromSearch", func(t *testing.T) {
		s, ix := newTestIndex(t)
		v1 := insert(t, s, ix, "doc", []float32{1, 0, 0})
		v2 := insert(t, s, ix, "doc", []float32{0.9, 0.1, 0})

		require.NoError(t, s.Update(func(txn *storage.Txn) error {
			return ix.Delete(txn, v1.ID)
		}))

		require.NoError(t, s.View(func(txn *storage.Txn) error {
			got, err := ix.Search(txn, "doc", []float32{1, 0, 0}, 2)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, v2.ID, got[0].ID)

			exact, err := ix.BruteSearch(txn, "doc", []float32{1, 0, 0}, 2)
			require.NoError(t, err)
			require.Len(t, exact, 1)
			assert.Equal(t, v2.ID, exact[0].ID)
			return nil
		}))
	})

	t.Run("DoubleDelete", func(t *testing.T) {
		s, ix := newTestIndex(t)
		v := insert(t, s, ix, "doc", []float32{1, 2, 3})

		require.NoError(t, s.Update(func(txn *storage.Txn) error {
			return ix.Delete(txn, v.ID)
		}))
		err := s.Update(func(txn *storage.Txn) error {
			return ix.Delete(txn, v.ID)
		})
		assert.ErrorIs(t, err, ErrVectorAlreadyDeleted)
	})

	t.Run("Unknown", func(t *testing.T) {
		s, ix := newTestIndex(t)
		err := s.Update(func(txn *storage.Txn) error {
			return ix.Delete(txn, model.NewID())
		})
		var vnf *ErrVectorNotFound
		assert.ErrorAs(t, err, &vnf)
	})
}

func TestRandomLevelDistribution(t *testing.T) {
	_, ix := newTestIndex(t)

	counts := make(map[int]int)
	for i := 0; i < 10000; i++ {
		counts[ix.randomLevel()]++
	}
	// Layer 0 dominates and higher layers thin out exponentially.
	assert.Greater(t, counts[0], 8000)
	assert.Greater(t, counts[0], counts[1])
}
