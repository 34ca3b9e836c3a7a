package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Txn wraps a Badger transaction. Read-only transactions are snapshots and
// may run concurrently; writable transactions are serialized by the store's
// write gate, so at most one is open at a time.
type Txn struct {
	store    *Store
	txn      *badger.Txn
	writable bool
	done     bool
}

// NewTxn starts a transaction. A writable transaction blocks until it is
// the only writer.
func (s *Store) NewTxn(writable bool) (*Txn, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if writable {
		s.writeGate.Lock()
	}
	return &Txn{
		store:    s,
		txn:      s.db.NewTransaction(writable),
		writable: writable,
	}, nil
}

// Writable reports whether the transaction accepts writes.
func (t *Txn) Writable() bool { return t.writable }

// Commit commits the transaction and releases the write gate.
func (t *Txn) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	err := t.txn.Commit()
	if t.writable {
		t.store.writeGate.Unlock()
	}
	if err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

// Discard drops the transaction without committing. Safe to call after
// Commit; the first completion wins.
func (t *Txn) Discard() {
	if t.done {
		return
	}
	t.done = true
	t.txn.Discard()
	if t.writable {
		t.store.writeGate.Unlock()
	}
}

// View runs fn inside a read-only snapshot transaction.
func (s *Store) View(fn func(txn *Txn) error) error {
	txn, err := s.NewTxn(false)
	if err != nil {
		return err
	}
	defer txn.Discard()
	return fn(txn)
}

// Update runs fn inside the single writable transaction and commits it.
func (s *Store) Update(fn func(txn *Txn) error) error {
	txn, err := s.NewTxn(true)
	if err != nil {
		return err
	}
	defer txn.Discard()
	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// get fetches a value copy. Missing keys map to ErrNotFound.
func (t *Txn) get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get: %w", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("storage: read value: %w", err)
	}
	return val, nil
}

// has reports key existence without reading the value.
func (t *Txn) has(key []byte) (bool, error) {
	_, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: get: %w", err)
	}
	return true, nil
}

func (t *Txn) set(key, val []byte) error {
	if !t.writable {
		return ErrReadOnlyTxn
	}
	if err := t.txn.Set(key, val); err != nil {
		return fmt.Errorf("storage: set: %w", err)
	}
	return nil
}

func (t *Txn) delete(key []byte) error {
	if !t.writable {
		return ErrReadOnlyTxn
	}
	if err := t.txn.Delete(key); err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}

// iterate walks every key under prefix, invoking fn with the key and value.
// fn returns false to stop early. With keysOnly set, values are not
// prefetched and fn receives nil values.
func (t *Txn) iterate(prefix []byte, keysOnly bool, fn func(key, val []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = !keysOnly
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		var val []byte
		if !keysOnly {
			var err error
			val, err = item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("storage: read value: %w", err)
			}
		}
		cont, err := fn(key, val)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// collectKeys gathers every key under prefix. Cascade deletes collect
// first and delete after, so the iterator never observes its own deletes.
func (t *Txn) collectKeys(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := t.iterate(prefix, true, func(key, _ []byte) (bool, error) {
		keys = append(keys, key)
		return true, nil
	})
	return keys, err
}
