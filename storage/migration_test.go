package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Mu-L/helix-db-sub003/model"
)

func readMeta(t *testing.T, s *Store) storageMeta {
	t.Helper()
	var meta storageMeta
	require.NoError(t, s.View(func(txn *Txn) error {
		val, err := txn.get(metaStorageKey)
		if err != nil {
			return err
		}
		return msgpack.Unmarshal(val, &meta)
	}))
	return meta
}

func TestMigration(t *testing.T) {
	t.Run("FreshStoreTaggedCurrent", func(t *testing.T) {
		s := newTestStore(t)
		meta := readMeta(t, s)
		assert.Equal(t, uint8(formatVersionCurrent), meta.Version)
		assert.Equal(t, nativeByteOrder(), meta.ByteOrder)
	})

	t.Run("ReopenRunsNoMigration", func(t *testing.T) {
		dir := t.TempDir()

		s, err := Open(dir)
		require.NoError(t, err)
		before := readMeta(t, s)
		require.NoError(t, s.Close())

		s, err = Open(dir)
		require.NoError(t, err)
		defer s.Close()
		assert.Equal(t, before, readMeta(t, s))
	})

	t.Run("ForeignByteOrderNormalized", func(t *testing.T) {
		dir := t.TempDir()

		s, err := Open(dir)
		require.NoError(t, err)

		data := []float32{1.5, -2.25, 3.125}
		id := newSwappedVector(t, s, data)

		// Tag the store as written on a foreign-endian host.
		foreign := "BE"
		if nativeByteOrder() == "BE" {
			foreign = "LE"
		}
		enc, err := msgpack.Marshal(storageMeta{Version: formatVersionCurrent, ByteOrder: foreign})
		require.NoError(t, err)
		require.NoError(t, s.Update(func(txn *Txn) error {
			return txn.set(metaStorageKey, enc)
		}))
		require.NoError(t, s.Close())

		// Reopen: payloads come back byte-swapped into native order and the
		// tag is rewritten.
		s, err = Open(dir)
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, nativeByteOrder(), readMeta(t, s).ByteOrder)
		require.NoError(t, s.View(func(txn *Txn) error {
			got, err := s.GetVectorData(txn, id)
			require.NoError(t, err)
			assert.Equal(t, data, got)
			return nil
		}))
	})

	t.Run("FutureFormatRejected", func(t *testing.T) {
		dir := t.TempDir()

		s, err := Open(dir)
		require.NoError(t, err)
		enc, err := msgpack.Marshal(storageMeta{Version: formatVersionCurrent + 1, ByteOrder: nativeByteOrder()})
		require.NoError(t, err)
		require.NoError(t, s.Update(func(txn *Txn) error {
			return txn.set(metaStorageKey, enc)
		}))
		require.NoError(t, s.Close())

		_, err = Open(dir)
		assert.Error(t, err)
	})
}

// newSwappedVector stores a payload byte-swapped relative to native order,
// simulating a store written on the opposite-endian host.
func newSwappedVector(t *testing.T, s *Store, data []float32) model.ID {
	t.Helper()
	native := encodeVectorData(data)
	swapped := make([]byte, len(native))
	for i := 0; i < len(native); i += 4 {
		swapped[i] = native[i+3]
		swapped[i+1] = native[i+2]
		swapped[i+2] = native[i+1]
		swapped[i+3] = native[i]
	}
	var id model.ID
	copy(id[:], []byte("swapped-vector-1"))
	require.NoError(t, s.Update(func(txn *Txn) error {
		return txn.set(vectorDataKey(id), swapped)
	}))
	return id
}
