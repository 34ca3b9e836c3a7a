package storage

import (
	"bytes"
	"errors"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Mu-L/helix-db-sub003/model"
)

// Secondary indices map a serialized property value to owning node ids.
// Entries are maintained in the same transaction as the property write they
// index; a unique index rejects a second owner for the same value.

func (s *Store) loadIndexRegistry() error {
	return s.View(func(txn *Txn) error {
		val, err := txn.get(metaIndexesKey)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		reg := make(map[string]bool)
		if err := msgpack.Unmarshal(val, &reg); err != nil {
			return &DecodeError{What: "index registry", cause: err}
		}
		s.mu.Lock()
		s.indexes = reg
		s.mu.Unlock()
		return nil
	})
}

func (s *Store) persistRegistry(txn *Txn, reg map[string]bool) error {
	enc, err := msgpack.Marshal(reg)
	if err != nil {
		return err
	}
	return txn.set(metaIndexesKey, enc)
}

func (s *Store) ensureIndex(name string, unique bool) error {
	s.mu.RLock()
	_, exists := s.indexes[name]
	s.mu.RUnlock()
	if exists {
		return nil
	}
	return s.CreateSecondaryIndex(name, unique)
}

// CreateSecondaryIndex declares an index over the named property and
// backfills it from every stored node.
func (s *Store) CreateSecondaryIndex(name string, unique bool) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	err := s.Update(func(txn *Txn) error {
		reg := s.declaredIndexes()
		reg[name] = unique
		if err := s.persistRegistry(txn, reg); err != nil {
			return err
		}

		// Backfill existing nodes carrying the property. Collect first,
		// write after, so the iterator never observes its own writes.
		type entry struct {
			id    model.ID
			value any
		}
		var entries []entry
		err := txn.iterate([]byte{prefixNode}, false, func(key, val []byte) (bool, error) {
			id, err := model.IDFromBytes(key[1:])
			if err != nil {
				return false, err
			}
			n, err := decodeNode(id, val)
			if err != nil {
				return false, err
			}
			if v, ok := n.Properties[name]; ok {
				entries = append(entries, entry{id: id, value: v})
			}
			return true, nil
		})
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.writeIndexEntry(txn, name, unique, e.value, e.id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.indexes[name] = unique
	s.mu.Unlock()
	s.logger.Debug("secondary index created", "name", name, "unique", unique)
	return nil
}

// DropSecondaryIndex removes the index declaration and all of its entries.
func (s *Store) DropSecondaryIndex(name string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	s.mu.RLock()
	_, exists := s.indexes[name]
	s.mu.RUnlock()
	if !exists {
		return &ErrIndexNotFound{Name: name}
	}
	err := s.Update(func(txn *Txn) error {
		reg := s.declaredIndexes()
		delete(reg, name)
		if err := s.persistRegistry(txn, reg); err != nil {
			return err
		}
		keys, err := txn.collectKeys(indexPrefix(name))
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := txn.delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.indexes, name)
	s.mu.Unlock()
	s.logger.Debug("secondary index dropped", "name", name)
	return nil
}

// declaredIndexes snapshots the registry.
func (s *Store) declaredIndexes() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.indexes))
	for k, v := range s.indexes {
		out[k] = v
	}
	return out
}

// writeIndexEntries writes an entry in every declared index whose property
// the node carries.
func (s *Store) writeIndexEntries(txn *Txn, n *model.Node) error {
	for name, unique := range s.declaredIndexes() {
		v, ok := n.Properties[name]
		if !ok {
			continue
		}
		if err := s.writeIndexEntry(txn, name, unique, v, n.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeIndexEntry(txn *Txn, name string, unique bool, value any, id model.ID) error {
	enc, err := model.EncodeValue(value)
	if err != nil {
		return err
	}
	if unique {
		taken := false
		err := txn.iterate(indexValuePrefix(name, enc), true, func(key, _ []byte) (bool, error) {
			owner, err := indexEntryNodeID(key)
			if err != nil {
				return false, err
			}
			if owner != id {
				taken = true
				return false, nil
			}
			return true, nil
		})
		if err != nil {
			return err
		}
		if taken {
			return &ErrDuplicateKey{Index: name, Value: value}
		}
	}
	return txn.set(indexEntryKey(name, enc, id), nil)
}

// removeIndexEntries deletes the node's entries from every declared index.
func (s *Store) removeIndexEntries(txn *Txn, n *model.Node) error {
	for name := range s.declaredIndexes() {
		v, ok := n.Properties[name]
		if !ok {
			continue
		}
		enc, err := model.EncodeValue(v)
		if err != nil {
			return err
		}
		if err := txn.delete(indexEntryKey(name, enc, n.ID)); err != nil {
			return err
		}
	}
	return nil
}

// IndexLookup yields the id of every node whose indexed property equals
// value, via a prefix scan over the index's serialized key.
func (s *Store) IndexLookup(txn *Txn, name string, value any, fn func(id model.ID) (bool, error)) error {
	s.mu.RLock()
	_, exists := s.indexes[name]
	s.mu.RUnlock()
	if !exists {
		return &ErrIndexNotFound{Name: name}
	}
	enc, err := model.EncodeValue(value)
	if err != nil {
		return err
	}
	prefix := indexValuePrefix(name, enc)
	return txn.iterate(prefix, true, func(key, _ []byte) (bool, error) {
		// Guard against one encoded value being a strict prefix of another:
		// a real entry is exactly prefix + node id.
		if len(key) != len(prefix)+idLen || !bytes.HasPrefix(key, prefix) {
			return true, nil
		}
		id, err := indexEntryNodeID(key)
		if err != nil {
			return false, err
		}
		return fn(id)
	})
}
