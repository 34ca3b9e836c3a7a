package traversal

import (
	"github.com/Mu-L/helix-db-sub003/model"
)

// Collect drains the pipeline into a slice. The first error item stops the
// drain and surfaces as the operation's error.
func (t *Traversal) Collect() ([]model.Item, error) {
	src, err := t.pull()
	if err != nil {
		return nil, err
	}
	var out []model.Item
	for {
		item, ok := src()
		if !ok {
			return out, nil
		}
		if item.IsErr() {
			return nil, item.Err
		}
		out = append(out, item)
	}
}

// CollectSkipErrors drains the pipeline into a slice, silently dropping
// error items. Only a builder error fails the call.
func (t *Traversal) CollectSkipErrors() ([]model.Item, error) {
	src, err := t.pull()
	if err != nil {
		return nil, err
	}
	var out []model.Item
	for {
		item, ok := src()
		if !ok {
			return out, nil
		}
		if item.IsErr() {
			continue
		}
		out = append(out, item)
	}
}

// First returns the first item of the stream, ErrNoResults when it is
// empty, or the error of a leading error item.
func (t *Traversal) First() (model.Item, error) {
	src, err := t.pull()
	if err != nil {
		return model.EmptyItem(), err
	}
	item, ok := src()
	if !ok {
		return model.EmptyItem(), ErrNoResults
	}
	if item.IsErr() {
		return model.EmptyItem(), item.Err
	}
	return item, nil
}

// Count drains the pipeline and returns the number of items. The first
// error item stops the count.
func (t *Traversal) Count() (int, error) {
	src, err := t.pull()
	if err != nil {
		return 0, err
	}
	n := 0
	for {
		item, ok := src()
		if !ok {
			return n, nil
		}
		if item.IsErr() {
			return 0, item.Err
		}
		n++
	}
}

// Exists reports whether any item satisfies the predicate, short-circuiting
// on the first hit. A nil predicate matches any item.
func (t *Traversal) Exists(pred func(item model.Item) bool) (bool, error) {
	src, err := t.pull()
	if err != nil {
		return false, err
	}
	for {
		item, ok := src()
		if !ok {
			return false, nil
		}
		if item.IsErr() {
			return false, item.Err
		}
		if pred == nil || pred(item) {
			return true, nil
		}
	}
}

// Drop deletes every surviving item and returns how many were deleted:
// nodes cascade over their edges and index entries, edges remove their
// paired adjacency entries, vectors are soft-deleted. Requires a write
// traversal; the first failure stops the drain.
func (t *Traversal) Drop() (int, error) {
	src, err := t.pull()
	if err != nil {
		return 0, err
	}
	n := 0
	for {
		item, ok := src()
		if !ok {
			return n, nil
		}
		if item.IsErr() {
			return n, item.Err
		}
		switch item.Kind {
		case model.KindNode, model.KindNodeWithScore:
			err = t.store.DropNode(t.txn, item.Node.ID)
		case model.KindEdge:
			err = t.store.DropEdge(t.txn, item.Edge.ID)
		case model.KindVector, model.KindVectorWithoutData:
			id, _ := item.EntityID()
			_, err = t.store.DropVector(t.txn, id)
		default:
			err = &ErrUnexpectedKind{Step: "Drop", Kind: item.Kind}
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
