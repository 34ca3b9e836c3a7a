package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	t.Run("UniqueAndOrdered", func(t *testing.T) {
		seen := make(map[ID]struct{})
		var prev ID
		for i := 0; i < 1000; i++ {
			id := NewID()
			_, dup := seen[id]
			require.False(t, dup)
			seen[id] = struct{}{}
			if i > 0 {
				assert.Negative(t, prev.Compare(id))
			}
			prev = id
		}
	})

	t.Run("StringRoundTrip", func(t *testing.T) {
		id := NewID()
		parsed, err := ParseID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)

		_, err = ParseID("not-a-uuid")
		assert.Error(t, err)
	})

	t.Run("Bytes", func(t *testing.T) {
		id := NewID()
		back, err := IDFromBytes(id.Bytes())
		require.NoError(t, err)
		assert.Equal(t, id, back)

		_, err = IDFromBytes([]byte{1, 2, 3})
		assert.Error(t, err)
	})

	t.Run("Zero", func(t *testing.T) {
		assert.True(t, ZeroID.IsZero())
		assert.False(t, NewID().IsZero())
	})
}

func TestProperties(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		p := Properties{"name": "alice", "age": int64(30), "active": true}
		b, err := p.Encode()
		require.NoError(t, err)

		got, err := DecodeProperties(b)
		require.NoError(t, err)
		assert.Equal(t, "alice", got["name"])
		assert.Equal(t, int64(30), got["age"])
		assert.Equal(t, true, got["active"])
	})

	t.Run("EmptyEncodesToNil", func(t *testing.T) {
		b, err := Properties(nil).Encode()
		require.NoError(t, err)
		assert.Nil(t, b)

		b, err = Properties{}.Encode()
		require.NoError(t, err)
		assert.Nil(t, b)

		got, err := DecodeProperties(nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Clone", func(t *testing.T) {
		p := Properties{"a": int64(1)}
		c := p.Clone()
		c["a"] = int64(2)
		assert.Equal(t, int64(1), p["a"])
		assert.Nil(t, Properties(nil).Clone())
	})
}

func TestEncodeValue(t *testing.T) {
	t.Run("IntegerWidthsCollapse", func(t *testing.T) {
		a, err := EncodeValue(int(5))
		require.NoError(t, err)
		b, err := EncodeValue(int64(5))
		require.NoError(t, err)
		c, err := EncodeValue(uint32(5))
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Equal(t, a, c)
	})

	t.Run("FloatWidthsCollapse", func(t *testing.T) {
		a, err := EncodeValue(float32(1.5))
		require.NoError(t, err)
		b, err := EncodeValue(float64(1.5))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("DistinctValuesDiffer", func(t *testing.T) {
		a, err := EncodeValue("x")
		require.NoError(t, err)
		b, err := EncodeValue("y")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestItem(t *testing.T) {
	t.Run("EntityID", func(t *testing.T) {
		n := &Node{ID: NewID()}
		id, ok := NodeItem(n).EntityID()
		assert.True(t, ok)
		assert.Equal(t, n.ID, id)

		_, ok = ValueItem(42).EntityID()
		assert.False(t, ok)
	})

	t.Run("Property", func(t *testing.T) {
		e := &Edge{ID: NewID(), Properties: Properties{"w": int64(3)}}
		v, ok := EdgeItem(e).Property("w")
		assert.True(t, ok)
		assert.Equal(t, int64(3), v)

		_, ok = EdgeItem(e).Property("missing")
		assert.False(t, ok)
	})

	t.Run("Err", func(t *testing.T) {
		assert.True(t, ErrItem(assert.AnError).IsErr())
		assert.False(t, EmptyItem().IsErr())
	})
}
