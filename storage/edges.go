package storage

import (
	"fmt"

	"github.com/Mu-L/helix-db-sub003/model"
)

// CreateEdge inserts an edge between two existing nodes and writes the
// out/in adjacency pair in the same transaction. The endpoints must exist
// at creation time; afterwards the reference is not enforced (cascade on
// DropNode is what cleans edges up).
func (s *Store) CreateEdge(txn *Txn, label string, from, to model.ID, props model.Properties) (*model.Edge, error) {
	for _, endpoint := range []model.ID{from, to} {
		ok, err := txn.has(nodeKey(endpoint))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("storage: edge endpoint %s: %w", endpoint.String(), ErrNotFound)
		}
	}

	e := &model.Edge{
		ID:         model.NewID(),
		Label:      label,
		Version:    FormatVersion,
		From:       from,
		To:         to,
		Properties: props,
	}
	data, err := encodeEdge(e)
	if err != nil {
		return nil, err
	}
	if err := txn.set(edgeKey(e.ID), data); err != nil {
		return nil, err
	}

	h := hashLabel(label)
	if err := txn.set(adjacencyKey(prefixOut, from, h, e.ID), adjacencyValue(e.ID, to)); err != nil {
		return nil, err
	}
	if err := txn.set(adjacencyKey(prefixIn, to, h, e.ID), adjacencyValue(e.ID, from)); err != nil {
		return nil, err
	}
	s.logger.Debug("edge created", "id", e.ID.String(), "label", label)
	return e, nil
}

// GetEdge fetches an edge by id.
func (s *Store) GetEdge(txn *Txn, id model.ID) (*model.Edge, error) {
	val, err := txn.get(edgeKey(id))
	if err != nil {
		return nil, err
	}
	return decodeEdge(id, val)
}

// DropEdge removes the edge record and both of its adjacency entries.
func (s *Store) DropEdge(txn *Txn, id model.ID) error {
	e, err := s.GetEdge(txn, id)
	if err != nil {
		return err
	}
	h := hashLabel(e.Label)
	if err := txn.delete(adjacencyKey(prefixOut, e.From, h, id)); err != nil {
		return err
	}
	if err := txn.delete(adjacencyKey(prefixIn, e.To, h, id)); err != nil {
		return err
	}
	if err := txn.delete(edgeKey(id)); err != nil {
		return err
	}
	s.logger.Debug("edge dropped", "id", id.String(), "label", e.Label)
	return nil
}
