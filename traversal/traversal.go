// Package traversal implements the lazy pull-based pipeline over the graph
// and vector tables. A traversal owns one transaction and one arena for its
// whole lifetime: every step reads and writes through that transaction, and
// all memory the pipeline interns is freed in bulk when the traversal ends.
//
// Steps never abort the pipeline on a per-item failure. A step that cannot
// produce its output for one upstream item emits an error-kind item in its
// place and keeps pulling; the terminal decides whether the first error item
// stops the whole operation or is skipped.
package traversal

import (
	"github.com/Mu-L/helix-db-sub003/hnsw"
	"github.com/Mu-L/helix-db-sub003/internal/arena"
	"github.com/Mu-L/helix-db-sub003/model"
	"github.com/Mu-L/helix-db-sub003/storage"
)

// pullFn is the boxed iterator each step wraps: it yields the next item, or
// ok=false when the stream is exhausted.
type pullFn func() (model.Item, bool)

// Traversal is a single pipeline bound to one transaction. It is built by
// chaining a source, any number of steps and exactly one terminal, then
// finished with Commit (write traversals) or Close.
//
// A Traversal is not safe for concurrent use.
type Traversal struct {
	store *storage.Store
	index *hnsw.Index
	txn   *storage.Txn
	ar    *arena.Arena

	src     pullFn
	err     error
	closers []func()
}

// New binds a traversal to the given transaction. The caller keeps ownership
// of nothing: Commit or Close must be called on the traversal, which settles
// the transaction and releases the arena.
func New(store *storage.Store, index *hnsw.Index, txn *storage.Txn) *Traversal {
	return &Traversal{
		store: store,
		index: index,
		txn:   txn,
		ar:    arena.New(),
	}
}

// Txn exposes the traversal's transaction for direct store calls that need
// to share its snapshot.
func (t *Traversal) Txn() *storage.Txn { return t.txn }

// Commit closes all scanners, commits the transaction and releases the
// arena. Results collected by a terminal stay valid; arena-interned strings
// do not.
func (t *Traversal) Commit() error {
	t.closeScanners()
	err := t.txn.Commit()
	t.ar.Release()
	return err
}

// Close closes all scanners, discards the transaction and releases the
// arena. Safe to defer alongside Commit.
func (t *Traversal) Close() {
	t.closeScanners()
	t.txn.Discard()
	t.ar.Release()
}

// settle finishes a pipeline that shares another traversal's transaction:
// its scanners are closed and its arena released, while the transaction is
// left to its owner. Intersect settles its sub-pipelines this way after
// draining them.
func (t *Traversal) settle() {
	t.closeScanners()
	t.ar.Release()
}

func (t *Traversal) closeScanners() {
	for _, c := range t.closers {
		c()
	}
	t.closers = nil
}

// source installs the pipeline head. A second source is a builder error.
func (t *Traversal) source(fn pullFn) *Traversal {
	if t.err != nil {
		return t
	}
	if t.src != nil {
		t.err = ErrSourceAlreadySet
		return t
	}
	t.src = fn
	return t
}

// step wraps the current head. A step before any source is a builder error.
func (t *Traversal) step(wrap func(up pullFn) pullFn) *Traversal {
	if t.err != nil {
		return t
	}
	if t.src == nil {
		t.err = ErrNoSource
		return t
	}
	t.src = wrap(t.src)
	return t
}

// pull readies the pipeline for a terminal.
func (t *Traversal) pull() (pullFn, error) {
	if t.err != nil {
		return nil, t.err
	}
	if t.src == nil {
		return nil, ErrNoSource
	}
	return t.src, nil
}

// once adapts a single-item producer into a pullFn.
func once(fn func() model.Item) pullFn {
	done := false
	return func() (model.Item, bool) {
		if done {
			return model.EmptyItem(), false
		}
		done = true
		return fn(), true
	}
}

// fromSlice adapts a pre-computed batch into a pullFn.
func fromSlice(items []model.Item) pullFn {
	i := 0
	return func() (model.Item, bool) {
		if i >= len(items) {
			return model.EmptyItem(), false
		}
		item := items[i]
		i++
		return item, true
	}
}
