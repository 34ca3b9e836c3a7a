package helixdb

import (
	"context"
	"io"

	"github.com/Mu-L/helix-db-sub003/dispatch"
	"github.com/Mu-L/helix-db-sub003/hnsw"
	"github.com/Mu-L/helix-db-sub003/model"
	"github.com/Mu-L/helix-db-sub003/storage"
	"github.com/Mu-L/helix-db-sub003/traversal"
)

// Engine is the embedded graph-and-vector database: one transactional store
// shared by the graph tables and the HNSW index, a traversal pipeline over
// both, and a worker pool for named queries.
//
// Engine is safe for concurrent use. Reads run against their own snapshots;
// writes are serialized internally, one write transaction at a time.
type Engine struct {
	store  *storage.Store
	index  *hnsw.Index
	pool   *dispatch.Pool
	logger *Logger
}

// QueryFunc is a named query executed on the dispatch pool.
type QueryFunc func(ctx context.Context, e *Engine, arg any) (any, error)

// Open opens (or creates) an engine at the given directory.
func Open(path string, optFns ...Option) (*Engine, error) {
	opts := applyOptions(optFns)

	store, err := storage.Open(path, opts.storeOptions())
	if err != nil {
		return nil, translateError(err)
	}

	e := &Engine{
		store:  store,
		index:  hnsw.New(store, opts.indexOptions()),
		pool:   dispatch.New(opts.poolOptions()),
		logger: opts.logger,
	}
	return e, nil
}

// Close shuts down the worker pool and closes the store. Outstanding
// traversals must be finished first.
func (e *Engine) Close() error {
	if err := e.pool.Close(); err != nil {
		_ = e.store.Close()
		return err
	}
	return translateError(e.store.Close())
}

// Store exposes the underlying store for callers that need raw access.
func (e *Engine) Store() *storage.Store { return e.store }

// ReadTraversal starts a pipeline over a read-only snapshot. Any number of
// read traversals run concurrently. Finish it with Close.
func (e *Engine) ReadTraversal() (*traversal.Traversal, error) {
	txn, err := e.store.NewTxn(false)
	if err != nil {
		return nil, translateError(err)
	}
	return traversal.New(e.store, e.index, txn), nil
}

// WriteTraversal starts a pipeline over the single write transaction,
// blocking until it is the only writer. Finish it with Commit or Close;
// nothing it writes is visible to readers before Commit.
func (e *Engine) WriteTraversal() (*traversal.Traversal, error) {
	txn, err := e.store.NewTxn(true)
	if err != nil {
		return nil, translateError(err)
	}
	return traversal.New(e.store, e.index, txn), nil
}

// CreateNode inserts a node in its own write transaction.
func (e *Engine) CreateNode(ctx context.Context, label string, props model.Properties) (*model.Node, error) {
	var n *model.Node
	err := e.store.Update(func(txn *storage.Txn) error {
		var err error
		n, err = e.store.CreateNode(txn, label, props)
		return err
	})
	if err != nil {
		e.logger.LogCreate(ctx, "node", "", label, err)
		return nil, translateError(err)
	}
	e.logger.LogCreate(ctx, "node", n.ID.String(), label, nil)
	return n, nil
}

// GetNode fetches a node by id.
func (e *Engine) GetNode(ctx context.Context, id model.ID) (*model.Node, error) {
	var n *model.Node
	err := e.store.View(func(txn *storage.Txn) error {
		var err error
		n, err = e.store.GetNode(txn, id)
		return err
	})
	return n, translateError(err)
}

// NodesByLabel returns every node carrying the label, in creation order.
// A label no node carries fails with ErrNotFound.
func (e *Engine) NodesByLabel(ctx context.Context, label string) ([]*model.Node, error) {
	var out []*model.Node
	err := e.store.View(func(txn *storage.Txn) error {
		scan := e.store.ScanNodesByLabel(txn, label)
		defer scan.Close()
		for {
			n, ok := scan.Next()
			if !ok {
				break
			}
			out = append(out, n)
		}
		if err := scan.Err(); err != nil {
			return err
		}
		if len(out) == 0 {
			return &storage.ErrLabelNotFound{Label: label}
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// UpdateNode replaces a node's properties, repairing its secondary-index
// entries in the same transaction.
func (e *Engine) UpdateNode(ctx context.Context, id model.ID, props model.Properties) (*model.Node, error) {
	var n *model.Node
	err := e.store.Update(func(txn *storage.Txn) error {
		var err error
		n, err = e.store.UpdateNode(txn, id, props)
		return err
	})
	return n, translateError(err)
}

// DropNode removes a node and everything hanging off it: both adjacency
// directions, every incident edge, every secondary-index entry.
func (e *Engine) DropNode(ctx context.Context, id model.ID) error {
	err := e.store.Update(func(txn *storage.Txn) error {
		return e.store.DropNode(txn, id)
	})
	e.logger.LogDrop(ctx, "node", id.String(), err)
	return translateError(err)
}

// CreateEdge inserts an edge between two existing nodes. A missing endpoint
// fails with ErrNotFound.
func (e *Engine) CreateEdge(ctx context.Context, label string, from, to model.ID, props model.Properties) (*model.Edge, error) {
	var ed *model.Edge
	err := e.store.Update(func(txn *storage.Txn) error {
		var err error
		ed, err = e.store.CreateEdge(txn, label, from, to, props)
		return err
	})
	if err != nil {
		e.logger.LogCreate(ctx, "edge", "", label, err)
		return nil, translateError(err)
	}
	e.logger.LogCreate(ctx, "edge", ed.ID.String(), label, nil)
	return ed, nil
}

// GetEdge fetches an edge by id.
func (e *Engine) GetEdge(ctx context.Context, id model.ID) (*model.Edge, error) {
	var ed *model.Edge
	err := e.store.View(func(txn *storage.Txn) error {
		var err error
		ed, err = e.store.GetEdge(txn, id)
		return err
	})
	return ed, translateError(err)
}

// DropEdge removes an edge and its out/in adjacency pair.
func (e *Engine) DropEdge(ctx context.Context, id model.ID) error {
	err := e.store.Update(func(txn *storage.Txn) error {
		return e.store.DropEdge(txn, id)
	})
	e.logger.LogDrop(ctx, "edge", id.String(), err)
	return translateError(err)
}

// InsertVector inserts a vector into the index in its own write
// transaction and returns it.
func (e *Engine) InsertVector(ctx context.Context, label string, data []float32, props model.Properties) (*model.Vector, error) {
	var v *model.Vector
	err := e.store.Update(func(txn *storage.Txn) error {
		var err error
		v, err = e.index.Insert(txn, label, data, props)
		return err
	})
	if err != nil {
		e.logger.LogCreate(ctx, "vector", "", label, err)
		return nil, translateError(err)
	}
	e.logger.LogCreate(ctx, "vector", v.ID.String(), label, nil)
	return v, nil
}

// GetVector fetches a vector by id, payload included.
func (e *Engine) GetVector(ctx context.Context, id model.ID) (*model.Vector, error) {
	var v *model.Vector
	err := e.store.View(func(txn *storage.Txn) error {
		var err error
		v, err = e.index.Get(txn, id)
		return err
	})
	return v, translateError(err)
}

// SearchVectors returns the approximate k nearest vectors under the label,
// ascending by distance.
func (e *Engine) SearchVectors(ctx context.Context, label string, query []float32, k int) ([]*model.Vector, error) {
	var out []*model.Vector
	err := e.store.View(func(txn *storage.Txn) error {
		var err error
		out, err = e.index.Search(txn, label, query, k)
		return err
	})
	e.logger.LogSearch(ctx, label, k, len(out), err)
	return out, translateError(err)
}

// DropVector soft-deletes a vector. Its payload and index links stay; every
// search path filters the flag. Dropping twice is an error.
func (e *Engine) DropVector(ctx context.Context, id model.ID) error {
	err := e.store.Update(func(txn *storage.Txn) error {
		return e.index.Delete(txn, id)
	})
	e.logger.LogDrop(ctx, "vector", id.String(), err)
	return translateError(err)
}

// CreateSecondaryIndex declares an index over the named node property and
// backfills it from existing nodes.
func (e *Engine) CreateSecondaryIndex(name string, unique bool) error {
	return translateError(e.store.CreateSecondaryIndex(name, unique))
}

// DropSecondaryIndex removes an index declaration and all of its entries.
func (e *Engine) DropSecondaryIndex(name string) error {
	return translateError(e.store.DropSecondaryIndex(name))
}

// Backup streams a compressed snapshot of the whole store to w.
func (e *Engine) Backup(ctx context.Context, w io.Writer) error {
	err := e.store.Backup(w)
	e.logger.LogBackup(ctx, "backup", err)
	return translateError(err)
}

// Restore loads a compressed snapshot from r into the store. The engine
// must be otherwise idle.
func (e *Engine) Restore(ctx context.Context, r io.Reader) error {
	err := e.store.Restore(r)
	e.logger.LogBackup(ctx, "restore", err)
	return translateError(err)
}

// RegisterQuery binds a named query to the dispatch pool. Register every
// query before the first Query call.
func (e *Engine) RegisterQuery(name string, fn QueryFunc) {
	e.pool.Register(name, func(ctx context.Context, arg any) (any, error) {
		return fn(ctx, e, arg)
	})
}

// Query runs a registered query on the worker pool and waits for its
// result. An unknown name is reported as an error, not a panic.
func (e *Engine) Query(ctx context.Context, name string, arg any) (any, error) {
	reply, err := e.pool.Submit(ctx, name, arg)
	if err != nil {
		return nil, translateError(err)
	}
	select {
	case res := <-reply:
		return res.Value, translateError(res.Err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
