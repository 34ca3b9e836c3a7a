package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Storage format versions. A store without a metadata record predates the
// record itself and is treated as version 1.
const (
	formatPreMetadata    = 1
	formatNativeVectors  = 2
	formatVersionCurrent = formatNativeVectors
)

// storageMeta is the single versioned record tracking the on-disk format.
// It is read only at open time.
type storageMeta struct {
	Version   uint8  `msgpack:"version"`
	ByteOrder string `msgpack:"byte_order"`
}

func nativeByteOrder() string {
	if binary.NativeEndian.Uint16([]byte{0x01, 0x00}) == 1 {
		return "LE"
	}
	return "BE"
}

// runMigrations reads the format tag and dispatches each pending
// version-specific migration in order. Every migration runs at most once
// per store and is one-directional; the tag is rewritten afterwards.
func (s *Store) runMigrations() error {
	var meta storageMeta
	err := s.View(func(txn *Txn) error {
		val, err := txn.get(metaStorageKey)
		if errors.Is(err, ErrNotFound) {
			meta = storageMeta{Version: formatPreMetadata}
			return nil
		}
		if err != nil {
			return err
		}
		if err := msgpack.Unmarshal(val, &meta); err != nil {
			return &DecodeError{What: "storage metadata", cause: err}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if meta.Version > formatVersionCurrent {
		return fmt.Errorf("storage: store format v%d is newer than supported v%d", meta.Version, formatVersionCurrent)
	}

	for meta.Version < formatVersionCurrent {
		switch meta.Version {
		case formatPreMetadata:
			if err := s.migrateVectorByteOrder(meta.ByteOrder); err != nil {
				return fmt.Errorf("storage: migrate v1->v2: %w", err)
			}
			meta = storageMeta{Version: formatNativeVectors, ByteOrder: nativeByteOrder()}
		default:
			return fmt.Errorf("storage: no migration from format v%d", meta.Version)
		}
		s.logger.Info("storage format migrated", "version", meta.Version)
	}

	// A current-format store written on a foreign-endian host still needs
	// its payloads normalized once.
	if meta.ByteOrder != nativeByteOrder() {
		if err := s.migrateVectorByteOrder(meta.ByteOrder); err != nil {
			return fmt.Errorf("storage: normalize byte order: %w", err)
		}
		meta.ByteOrder = nativeByteOrder()
	}

	enc, err := msgpack.Marshal(meta)
	if err != nil {
		return err
	}
	return s.Update(func(txn *Txn) error {
		return txn.set(metaStorageKey, enc)
	})
}

// migrateVectorByteOrder normalizes stored vector payloads to the host's
// native byte order. Pre-metadata stores carried no order tag; payloads
// written by a foreign-endian host are byte-swapped in place.
func (s *Store) migrateVectorByteOrder(storedOrder string) error {
	if storedOrder == "" {
		storedOrder = nativeByteOrder()
	}
	if storedOrder == nativeByteOrder() {
		return nil
	}
	return s.Update(func(txn *Txn) error {
		type rewrite struct {
			key []byte
			val []byte
		}
		var rewrites []rewrite
		err := txn.iterate([]byte{prefixVectorData}, false, func(key, val []byte) (bool, error) {
			if len(val)%4 != 0 {
				return false, &DecodeError{What: "vector payload"}
			}
			swapped := make([]byte, len(val))
			for i := 0; i < len(val); i += 4 {
				swapped[i] = val[i+3]
				swapped[i+1] = val[i+2]
				swapped[i+2] = val[i+1]
				swapped[i+3] = val[i]
			}
			rewrites = append(rewrites, rewrite{key: key, val: swapped})
			return true, nil
		})
		if err != nil {
			return err
		}
		for _, rw := range rewrites {
			if err := txn.set(rw.key, rw.val); err != nil {
				return err
			}
		}
		s.logger.Info("vector payloads normalized", "count", len(rewrites))
		return nil
	})
}
