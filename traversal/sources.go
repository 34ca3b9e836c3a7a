package traversal

import (
	"github.com/Mu-L/helix-db-sub003/model"
)

// NFromID starts the pipeline with the single node carrying the id.
func (t *Traversal) NFromID(id model.ID) *Traversal {
	return t.source(once(func() model.Item {
		n, err := t.store.GetNode(t.txn, id)
		if err != nil {
			return model.ErrItem(err)
		}
		return model.NodeItem(n)
	}))
}

// NFromLabel starts the pipeline with every node carrying the label, in id
// order. The underlying scan stays open until the traversal ends.
func (t *Traversal) NFromLabel(label string) *Traversal {
	if t.err != nil || t.src != nil {
		return t.source(nil)
	}
	scan := t.store.ScanNodesByLabel(t.txn, label)
	t.closers = append(t.closers, scan.Close)
	failed := false
	return t.source(func() (model.Item, bool) {
		if failed {
			return model.EmptyItem(), false
		}
		n, ok := scan.Next()
		if !ok {
			if err := scan.Err(); err != nil {
				failed = true
				return model.ErrItem(err), true
			}
			return model.EmptyItem(), false
		}
		return model.NodeItem(n), true
	})
}

// NFromSecondaryIndex starts the pipeline with every node whose indexed
// property equals value. Matching ids are gathered on the first pull; node
// records are fetched lazily.
func (t *Traversal) NFromSecondaryIndex(name string, value any) *Traversal {
	var (
		ids    []model.ID
		loaded bool
		failed error
		i      int
	)
	return t.source(func() (model.Item, bool) {
		if !loaded {
			loaded = true
			failed = t.store.IndexLookup(t.txn, name, value, func(id model.ID) (bool, error) {
				ids = append(ids, id)
				return true, nil
			})
		}
		if failed != nil {
			err := failed
			failed = nil
			ids = nil
			return model.ErrItem(err), true
		}
		if i >= len(ids) {
			return model.EmptyItem(), false
		}
		id := ids[i]
		i++
		n, err := t.store.GetNode(t.txn, id)
		if err != nil {
			return model.ErrItem(err), true
		}
		return model.NodeItem(n), true
	})
}

// EFromID starts the pipeline with the single edge carrying the id.
func (t *Traversal) EFromID(id model.ID) *Traversal {
	return t.source(once(func() model.Item {
		e, err := t.store.GetEdge(t.txn, id)
		if err != nil {
			return model.ErrItem(err)
		}
		return model.EdgeItem(e)
	}))
}

// VFromID starts the pipeline with the single vector carrying the id,
// payload included.
func (t *Traversal) VFromID(id model.ID) *Traversal {
	return t.source(once(func() model.Item {
		v, err := t.index.Get(t.txn, id)
		if err != nil {
			return model.ErrItem(err)
		}
		return model.VectorItem(v)
	}))
}

// InsertV inserts a vector into the index and starts the pipeline with it.
// Requires a write traversal.
func (t *Traversal) InsertV(label string, data []float32, props model.Properties) *Traversal {
	return t.source(once(func() model.Item {
		v, err := t.index.Insert(t.txn, label, data, props)
		if err != nil {
			return model.ErrItem(err)
		}
		return model.VectorItem(v)
	}))
}

// SearchV starts the pipeline with the approximate k nearest vectors under
// the label, ascending by distance.
func (t *Traversal) SearchV(label string, query []float32, k int) *Traversal {
	var (
		items  pullFn
		failed bool
	)
	return t.source(func() (model.Item, bool) {
		if failed {
			return model.EmptyItem(), false
		}
		if items == nil {
			vs, err := t.index.Search(t.txn, label, query, k)
			if err != nil {
				failed = true
				return model.ErrItem(err), true
			}
			out := make([]model.Item, len(vs))
			for i, v := range vs {
				out[i] = model.VectorItem(v)
			}
			items = fromSlice(out)
		}
		return items()
	})
}

// BruteForceSearchV starts the pipeline with the exact k nearest vectors
// under the label, ascending by distance.
func (t *Traversal) BruteForceSearchV(label string, query []float32, k int) *Traversal {
	var (
		items  pullFn
		failed bool
	)
	return t.source(func() (model.Item, bool) {
		if failed {
			return model.EmptyItem(), false
		}
		if items == nil {
			vs, err := t.index.BruteSearch(t.txn, label, query, k)
			if err != nil {
				failed = true
				return model.ErrItem(err), true
			}
			out := make([]model.Item, len(vs))
			for i, v := range vs {
				out[i] = model.VectorItem(v)
			}
			items = fromSlice(out)
		}
		return items()
	})
}
