package storage

import (
	"errors"

	"github.com/Mu-L/helix-db-sub003/model"
)

// PutVector stores a vector's payload and metadata under the given id.
// Used by the HNSW index, which owns level assignment and linking.
func (s *Store) PutVector(txn *Txn, v *model.Vector) error {
	meta, err := encodeVectorMeta(v.WithoutData())
	if err != nil {
		return err
	}
	if err := txn.set(vectorMetaKey(v.ID), meta); err != nil {
		return err
	}
	return txn.set(vectorDataKey(v.ID), encodeVectorData(v.Data))
}

// GetVector fetches a full vector, payload included.
func (s *Store) GetVector(txn *Txn, id model.ID) (*model.Vector, error) {
	meta, err := s.GetVectorMeta(txn, id)
	if err != nil {
		return nil, err
	}
	raw, err := txn.get(vectorDataKey(id))
	if err != nil {
		return nil, err
	}
	data, err := decodeVectorData(raw)
	if err != nil {
		return nil, err
	}
	return &model.Vector{
		ID:         meta.ID,
		Label:      meta.Label,
		Version:    meta.Version,
		Level:      meta.Level,
		Data:       data,
		Properties: meta.Properties,
		Deleted:    meta.Deleted,
	}, nil
}

// GetVectorData fetches only the raw payload. Hot path for distance
// computations during search.
func (s *Store) GetVectorData(txn *Txn, id model.ID) ([]float32, error) {
	raw, err := txn.get(vectorDataKey(id))
	if err != nil {
		return nil, err
	}
	return decodeVectorData(raw)
}

// GetVectorMeta fetches the payload-free projection.
func (s *Store) GetVectorMeta(txn *Txn, id model.ID) (*model.VectorWithoutData, error) {
	val, err := txn.get(vectorMetaKey(id))
	if err != nil {
		return nil, err
	}
	return decodeVectorMeta(id, val)
}

// DropVector sets the soft-delete flag. The payload, the metadata record
// and the vector's HNSW links stay in place; once set the flag is never
// cleared. Returns whether the flag was already set.
func (s *Store) DropVector(txn *Txn, id model.ID) (alreadyDeleted bool, err error) {
	meta, err := s.GetVectorMeta(txn, id)
	if err != nil {
		return false, err
	}
	if meta.Deleted {
		return true, nil
	}
	meta.Deleted = true
	enc, err := encodeVectorMeta(meta)
	if err != nil {
		return false, err
	}
	if err := txn.set(vectorMetaKey(id), enc); err != nil {
		return false, err
	}
	s.logger.Debug("vector soft-deleted", "id", id.String())
	return false, nil
}

// GetLinks returns a vector's neighbor list at one HNSW layer.
func (s *Store) GetLinks(txn *Txn, id model.ID, level int) ([]model.ID, error) {
	val, err := txn.get(vectorLinkKey(id, level))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeIDList(val)
}

// SetLinks replaces a vector's neighbor list at one HNSW layer.
func (s *Store) SetLinks(txn *Txn, id model.ID, level int, neighbors []model.ID) error {
	return txn.set(vectorLinkKey(id, level), encodeIDList(neighbors))
}

// EntryPoint returns the HNSW entry point id and its top layer. ErrNotFound
// means the index is empty.
func (s *Store) EntryPoint(txn *Txn) (model.ID, int, error) {
	val, err := txn.get(metaEntryKey)
	if err != nil {
		return model.ZeroID, 0, err
	}
	if len(val) != idLen+1 {
		return model.ZeroID, 0, &DecodeError{What: "entry point"}
	}
	id, err := model.IDFromBytes(val[:idLen])
	if err != nil {
		return model.ZeroID, 0, err
	}
	return id, int(val[idLen]), nil
}

// SetEntryPoint records the HNSW entry point.
func (s *Store) SetEntryPoint(txn *Txn, id model.ID, level int) error {
	val := make([]byte, 0, idLen+1)
	val = append(val, id[:]...)
	val = append(val, byte(level))
	return txn.set(metaEntryKey, val)
}
