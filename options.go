package helixdb

import (
	"log/slog"

	"github.com/Mu-L/helix-db-sub003/dispatch"
	"github.com/Mu-L/helix-db-sub003/hnsw"
	"github.com/Mu-L/helix-db-sub003/storage"
)

type options struct {
	m                int
	efConstruction   int
	efSearch         int
	secondaryIndexes []string
	uniqueIndexes    []string
	maxStoreSize     int64
	syncWrites       bool
	inMemory         bool
	dispatchWorkers  int
	logger           *Logger
}

// Option configures Engine constructor behavior.
type Option func(*options)

// WithM configures the HNSW connectivity parameter: the neighbor cap per
// layer (doubled at the base layer). Higher M trades memory and insert cost
// for recall.
func WithM(m int) Option {
	return func(o *options) {
		o.m = m
	}
}

// WithEFConstruction configures the candidate-list size used while linking
// new vectors. Higher values build a better graph, slower.
func WithEFConstruction(ef int) Option {
	return func(o *options) {
		o.efConstruction = ef
	}
}

// WithEFSearch configures the default candidate-list size at search time.
// Raised automatically to k when a query asks for more results.
func WithEFSearch(ef int) Option {
	return func(o *options) {
		o.efSearch = ef
	}
}

// WithSecondaryIndexes declares non-unique secondary indices over the named
// node properties. Missing indices are created and backfilled at open time.
func WithSecondaryIndexes(names ...string) Option {
	return func(o *options) {
		o.secondaryIndexes = append(o.secondaryIndexes, names...)
	}
}

// WithUniqueIndexes declares unique secondary indices over the named node
// properties. A write that would give one value two owners fails with a
// duplicate-key error instead of a storage error.
func WithUniqueIndexes(names ...string) Option {
	return func(o *options) {
		o.uniqueIndexes = append(o.uniqueIndexes, names...)
	}
}

// WithMaxStoreSize caps the size of a single store value-log file in bytes.
// The size must lie within [storage.MinStoreSize, storage.MaxStoreSize];
// anything else makes Open fail with a storage.ErrInvalidStoreSize.
func WithMaxStoreSize(size int64) Option {
	return func(o *options) {
		o.maxStoreSize = size
	}
}

// WithSyncWrites forces an fsync on every commit.
func WithSyncWrites(sync bool) Option {
	return func(o *options) {
		o.syncWrites = sync
	}
}

// WithInMemory runs the engine without a backing directory. Nothing
// survives Close; intended for tests and ephemeral workloads.
func WithInMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithDispatchWorkers configures the size of the query worker pool.
// Defaults to one worker per CPU core.
func WithDispatchWorkers(n int) Option {
	return func(o *options) {
		o.dispatchWorkers = n
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		m:              hnsw.DefaultM,
		efConstruction: hnsw.DefaultEFConstruction,
		efSearch:       hnsw.DefaultEFSearch,
		logger:         NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o options) storeOptions() func(so *storage.Options) {
	return func(so *storage.Options) {
		so.SecondaryIndexes = o.secondaryIndexes
		so.UniqueIndexes = o.uniqueIndexes
		so.MaxStoreSize = o.maxStoreSize
		so.SyncWrites = o.syncWrites
		so.InMemory = o.inMemory
		so.Logger = o.logger.Logger
	}
}

func (o options) indexOptions() func(io *hnsw.Options) {
	return func(io *hnsw.Options) {
		io.M = o.m
		io.EFConstruction = o.efConstruction
		io.EFSearch = o.efSearch
	}
}

func (o options) poolOptions() func(po *dispatch.Options) {
	return func(po *dispatch.Options) {
		po.Workers = o.dispatchWorkers
	}
}
