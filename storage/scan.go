package storage

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/Mu-L/helix-db-sub003/model"
)

// Scanners give the traversal engine pull-based access to full table scans
// without materializing them. A scanner borrows its transaction and must be
// closed before the transaction ends.

// NodeScanner iterates every node, filtered by label.
type NodeScanner struct {
	it    *badger.Iterator
	label string
	err   error
	first bool
}

// ScanNodesByLabel returns a scanner over all nodes carrying the label.
// There is no per-label table; this is a full node-table scan filtered
// after decode.
func (s *Store) ScanNodesByLabel(txn *Txn, label string) *NodeScanner {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte{prefixNode}
	return &NodeScanner{
		it:    txn.txn.NewIterator(opts),
		label: label,
		first: true,
	}
}

// Next returns the next matching node. ok is false when the scan is
// exhausted or failed; check Err afterwards.
func (ns *NodeScanner) Next() (*model.Node, bool) {
	if ns.err != nil {
		return nil, false
	}
	if ns.first {
		ns.it.Rewind()
		ns.first = false
	} else {
		ns.it.Next()
	}
	for ; ns.it.Valid(); ns.it.Next() {
		item := ns.it.Item()
		key := item.Key()
		id, err := model.IDFromBytes(key[1:])
		if err != nil {
			ns.err = err
			return nil, false
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			ns.err = err
			return nil, false
		}
		n, err := decodeNode(id, val)
		if err != nil {
			ns.err = err
			return nil, false
		}
		if n.Label == ns.label {
			return n, true
		}
	}
	return nil, false
}

// Err returns the first error the scan hit, if any.
func (ns *NodeScanner) Err() error { return ns.err }

// Close releases the underlying iterator.
func (ns *NodeScanner) Close() { ns.it.Close() }

// VectorScanner iterates every stored vector, metadata first, loading the
// payload on demand.
type VectorScanner struct {
	store *Store
	txn   *Txn
	it    *badger.Iterator
	err   error
	first bool
}

// ScanVectors returns a scanner over all vectors in the store.
func (s *Store) ScanVectors(txn *Txn) *VectorScanner {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte{prefixVectorMeta}
	return &VectorScanner{
		store: s,
		txn:   txn,
		it:    txn.txn.NewIterator(opts),
		first: true,
	}
}

// Next returns the next vector's metadata projection. The payload is not
// loaded; use Data for that.
func (vs *VectorScanner) Next() (*model.VectorWithoutData, bool) {
	if vs.err != nil {
		return nil, false
	}
	if vs.first {
		vs.it.Rewind()
		vs.first = false
	} else {
		vs.it.Next()
	}
	if !vs.it.Valid() {
		return nil, false
	}
	item := vs.it.Item()
	id, err := model.IDFromBytes(item.Key()[1:])
	if err != nil {
		vs.err = err
		return nil, false
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		vs.err = err
		return nil, false
	}
	meta, err := decodeVectorMeta(id, val)
	if err != nil {
		vs.err = err
		return nil, false
	}
	return meta, true
}

// Data loads the payload for a vector yielded by Next.
func (vs *VectorScanner) Data(id model.ID) ([]float32, error) {
	return vs.store.GetVectorData(vs.txn, id)
}

// Err returns the first error the scan hit, if any.
func (vs *VectorScanner) Err() error { return vs.err }

// Close releases the underlying iterator.
func (vs *VectorScanner) Close() { vs.it.Close() }
