package storage

import (
	"github.com/Mu-L/helix-db-sub003/model"
)

// CreateNode inserts a new node and writes its secondary-index entries in
// the same transaction.
func (s *Store) CreateNode(txn *Txn, label string, props model.Properties) (*model.Node, error) {
	n := &model.Node{
		ID:         model.NewID(),
		Label:      label,
		Version:    FormatVersion,
		Properties: props,
	}
	data, err := encodeNode(n)
	if err != nil {
		return nil, err
	}
	if err := txn.set(nodeKey(n.ID), data); err != nil {
		return nil, err
	}
	if err := s.writeIndexEntries(txn, n); err != nil {
		return nil, err
	}
	s.logger.Debug("node created", "id", n.ID.String(), "label", label)
	return n, nil
}

// GetNode fetches a node by id.
func (s *Store) GetNode(txn *Txn, id model.ID) (*model.Node, error) {
	val, err := txn.get(nodeKey(id))
	if err != nil {
		return nil, err
	}
	return decodeNode(id, val)
}

// UpdateNode replaces a node's property map and transactionally repairs
// every secondary index affected by the change. No transaction can observe
// a state where both or neither of the old and new indexed values resolve.
func (s *Store) UpdateNode(txn *Txn, id model.ID, props model.Properties) (*model.Node, error) {
	old, err := s.GetNode(txn, id)
	if err != nil {
		return nil, err
	}
	if err := s.removeIndexEntries(txn, old); err != nil {
		return nil, err
	}
	updated := &model.Node{
		ID:         id,
		Label:      old.Label,
		Version:    old.Version,
		Properties: props,
	}
	data, err := encodeNode(updated)
	if err != nil {
		return nil, err
	}
	if err := txn.set(nodeKey(id), data); err != nil {
		return nil, err
	}
	if err := s.writeIndexEntries(txn, updated); err != nil {
		return nil, err
	}
	s.logger.Debug("node updated", "id", id.String())
	return updated, nil
}

// DropNode removes the node, every out/in adjacency entry referencing it,
// every edge incident to it (with the paired adjacency entry on the far
// side), and every secondary-index entry owned by it.
func (s *Store) DropNode(txn *Txn, id model.ID) error {
	n, err := s.GetNode(txn, id)
	if err != nil {
		return err
	}

	// Outgoing side: drop the edge record, this node's out entry and the
	// destination's paired in entry.
	if err := s.dropAdjacency(txn, id, prefixOut, prefixIn); err != nil {
		return err
	}
	// Incoming side, mirrored.
	if err := s.dropAdjacency(txn, id, prefixIn, prefixOut); err != nil {
		return err
	}

	if err := s.removeIndexEntries(txn, n); err != nil {
		return err
	}
	if err := txn.delete(nodeKey(id)); err != nil {
		return err
	}
	s.logger.Debug("node dropped", "id", id.String(), "label", n.Label)
	return nil
}

// dropAdjacency removes all adjacency entries of one direction for a node,
// together with each referenced edge record and its paired entry on the
// other node. Adjacency entries always exist in out/in pairs and are
// removed together.
func (s *Store) dropAdjacency(txn *Txn, id model.ID, nearPrefix, farPrefix byte) error {
	type pairing struct {
		nearKey []byte
		farKey  []byte
		edgeKey []byte
	}
	var pairs []pairing

	prefix := adjacencyNodePrefix(nearPrefix, id)
	err := txn.iterate(prefix, false, func(key, val []byte) (bool, error) {
		edgeID, otherID, err := decodeAdjacencyValue(val)
		if err != nil {
			return false, err
		}
		labelHash := adjacencyKeyLabelHash(key)
		pairs = append(pairs, pairing{
			nearKey: key,
			farKey:  adjacencyKey(farPrefix, otherID, labelHash, edgeID),
			edgeKey: edgeKey(edgeID),
		})
		return true, nil
	})
	if err != nil {
		return err
	}

	for _, p := range pairs {
		if err := txn.delete(p.nearKey); err != nil {
			return err
		}
		if err := txn.delete(p.farKey); err != nil {
			return err
		}
		if err := txn.delete(p.edgeKey); err != nil {
			return err
		}
	}
	return nil
}

// IterOutEdges walks the out-adjacency entries of a node under one label,
// yielding (edge id, destination node id) pairs.
func (s *Store) IterOutEdges(txn *Txn, node model.ID, label string, fn func(edgeID, otherID model.ID) (bool, error)) error {
	return s.iterAdjacency(txn, prefixOut, node, label, fn)
}

// IterInEdges walks the in-adjacency entries of a node under one label,
// yielding (edge id, source node id) pairs.
func (s *Store) IterInEdges(txn *Txn, node model.ID, label string, fn func(edgeID, otherID model.ID) (bool, error)) error {
	return s.iterAdjacency(txn, prefixIn, node, label, fn)
}

func (s *Store) iterAdjacency(txn *Txn, prefix byte, node model.ID, label string, fn func(edgeID, otherID model.ID) (bool, error)) error {
	p := adjacencyLabelPrefix(prefix, node, hashLabel(label))
	return txn.iterate(p, false, func(_, val []byte) (bool, error) {
		edgeID, otherID, err := decodeAdjacencyValue(val)
		if err != nil {
			return false, err
		}
		return fn(edgeID, otherID)
	})
}
