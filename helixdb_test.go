package helixdb

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mu-L/helix-db-sub003/model"
)

func newTestEngine(t *testing.T, optFns ...Option) *Engine {
	t.Helper()
	optFns = append([]Option{WithInMemory()}, optFns...)
	e, err := Open("", optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("GraphRoundTrip", func(t *testing.T) {
		e := newTestEngine(t)

		alice, err := e.CreateNode(ctx, "person", model.Properties{"name": "alice"})
		require.NoError(t, err)
		bob, err := e.CreateNode(ctx, "person", model.Properties{"name": "bob"})
		require.NoError(t, err)

		knows, err := e.CreateEdge(ctx, "knows", alice.ID, bob.ID, nil)
		require.NoError(t, err)

		got, err := e.GetNode(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Properties["name"])

		edge, err := e.GetEdge(ctx, knows.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, edge.From)
		assert.Equal(t, bob.ID, edge.To)
	})

	t.Run("NodesByLabel", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.CreateNode(ctx, "person", nil)
		require.NoError(t, err)
		_, err = e.CreateNode(ctx, "person", nil)
		require.NoError(t, err)

		nodes, err := e.NodesByLabel(ctx, "person")
		require.NoError(t, err)
		assert.Len(t, nodes, 2)

		_, err = e.NodesByLabel(ctx, "robot")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NotFoundUnified", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.GetNode(ctx, model.NewID())
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = e.GetEdge(ctx, model.NewID())
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = e.GetVector(ctx, model.NewID())
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = e.SearchVectors(ctx, "doc", []float32{1}, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("VectorLifecycle", func(t *testing.T) {
		e := newTestEngine(t)

		v1, err := e.InsertVector(ctx, "doc", []float32{1, 2, 3}, model.Properties{"title": "one"})
		require.NoError(t, err)
		_, err = e.InsertVector(ctx, "doc", []float32{7, 8, 9}, nil)
		require.NoError(t, err)

		hits, err := e.SearchVectors(ctx, "doc", []float32{1, 2, 3}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, v1.ID, hits[0].ID)

		require.NoError(t, e.DropVector(ctx, v1.ID))
		hits, err = e.SearchVectors(ctx, "doc", []float32{1, 2, 3}, 2)
		require.NoError(t, err)
		for _, h := range hits {
			assert.NotEqual(t, v1.ID, h.ID)
		}
	})

	t.Run("DimensionMismatchTranslated", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.InsertVector(ctx, "doc", []float32{1, 2, 3}, nil)
		require.NoError(t, err)

		_, err = e.InsertVector(ctx, "doc", []float32{1, 2}, nil)
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)

		_, err = e.SearchVectors(ctx, "doc", []float32{1, 2, 3}, 0)
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("Traversal", func(t *testing.T) {
		e := newTestEngine(t)

		alice, err := e.CreateNode(ctx, "person", model.Properties{"name": "alice"})
		require.NoError(t, err)
		bob, err := e.CreateNode(ctx, "person", model.Properties{"name": "bob"})
		require.NoError(t, err)
		carol, err := e.CreateNode(ctx, "person", model.Properties{"name": "carol"})
		require.NoError(t, err)
		_, err = e.CreateEdge(ctx, "knows", alice.ID, bob.ID, nil)
		require.NoError(t, err)
		_, err = e.CreateEdge(ctx, "knows", bob.ID, carol.ID, nil)
		require.NoError(t, err)

		tr, err := e.ReadTraversal()
		require.NoError(t, err)
		defer tr.Close()

		items, err := tr.NFromID(alice.ID).OutNodes("knows").OutNodes("knows").Collect()
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, carol.ID, items[0].Node.ID)
	})

	t.Run("WriteTraversal", func(t *testing.T) {
		e := newTestEngine(t, WithSecondaryIndexes("name"))

		n, err := e.CreateNode(ctx, "person", model.Properties{"name": "alice"})
		require.NoError(t, err)

		tr, err := e.WriteTraversal()
		require.NoError(t, err)
		_, err = tr.NFromID(n.ID).Update(model.Properties{"name": "bob"}).Collect()
		require.NoError(t, err)
		require.NoError(t, tr.Commit())

		tr, err = e.ReadTraversal()
		require.NoError(t, err)
		defer tr.Close()
		items, err := tr.NFromSecondaryIndex("name", "bob").Collect()
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, n.ID, items[0].Node.ID)
	})

	t.Run("DropNodeCascades", func(t *testing.T) {
		e := newTestEngine(t)

		a, err := e.CreateNode(ctx, "n", nil)
		require.NoError(t, err)
		b, err := e.CreateNode(ctx, "n", nil)
		require.NoError(t, err)
		edge, err := e.CreateEdge(ctx, "rel", a.ID, b.ID, nil)
		require.NoError(t, err)

		require.NoError(t, e.DropNode(ctx, a.ID))
		_, err = e.GetEdge(ctx, edge.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Queries", func(t *testing.T) {
		e := newTestEngine(t)

		n, err := e.CreateNode(ctx, "person", model.Properties{"name": "alice"})
		require.NoError(t, err)

		e.RegisterQuery("get_name", func(ctx context.Context, e *Engine, arg any) (any, error) {
			node, err := e.GetNode(ctx, arg.(model.ID))
			if err != nil {
				return nil, err
			}
			return node.Properties["name"], nil
		})

		v, err := e.Query(ctx, "get_name", n.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", v)

		_, err = e.Query(ctx, "nope", nil)
		assert.Error(t, err)
	})
}

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()
	src := newTestEngine(t)

	n, err := src.CreateNode(ctx, "person", model.Properties{"name": "alice"})
	require.NoError(t, err)
	v, err := src.InsertVector(ctx, "doc", []float32{1, 2, 3}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Backup(ctx, &buf))

	dst := newTestEngine(t)
	require.NoError(t, dst.Restore(ctx, &buf))

	got, err := dst.GetNode(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Properties["name"])

	hits, err := dst.SearchVectors(ctx, "doc", []float32{1, 2, 3}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, v.ID, hits[0].ID)
}
