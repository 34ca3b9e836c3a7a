package storage

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
)

// Options configures a Store.
type Options struct {
	// SecondaryIndexes declares the property names to maintain non-unique
	// secondary indices for. Missing indices are created (and backfilled)
	// at open time.
	SecondaryIndexes []string

	// UniqueIndexes declares property names indexed with a uniqueness
	// constraint. Violations surface as ErrDuplicateKey.
	UniqueIndexes []string

	// MaxStoreSize caps the size of a single value-log file. Zero keeps
	// Badger's default.
	MaxStoreSize int64

	// SyncWrites forces an fsync on every commit.
	SyncWrites bool

	// InMemory runs the store without a backing directory. Used by tests.
	InMemory bool

	// Logger receives structured engine logs. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions are the options used when none are given.
var DefaultOptions = Options{}

// Bounds for Options.MaxStoreSize, inherited from Badger's value-log file
// size limits. Values outside the range are rejected at open time with
// ErrInvalidStoreSize.
const (
	MinStoreSize int64 = 1 << 20
	MaxStoreSize int64 = 2<<30 - 1
)

// Store is the transactional persistent store shared by the graph tables
// and the vector index.
//
// It follows single-writer/multiple-reader semantics: exactly one write
// transaction may be open at a time (enforced by an internal gate), while
// any number of read transactions run concurrently against their own
// snapshots. A writer's changes become visible to new readers only after
// commit.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	closed atomic.Bool

	// writeGate serializes write transactions.
	writeGate sync.Mutex

	// mu guards the secondary-index registry.
	mu      sync.RWMutex
	indexes map[string]bool // name -> unique
}

// Open opens (or creates) a store at the given directory, runs any pending
// format migrations and ensures all declared secondary indices exist.
func Open(path string, optFns ...func(o *Options)) (*Store, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	bopts := badger.DefaultOptions(path).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	if opts.SyncWrites {
		bopts = bopts.WithSyncWrites(true)
	}
	if opts.MaxStoreSize != 0 {
		if opts.MaxStoreSize < MinStoreSize || opts.MaxStoreSize > MaxStoreSize {
			return nil, &ErrInvalidStoreSize{Size: opts.MaxStoreSize}
		}
		bopts = bopts.WithValueLogFileSize(opts.MaxStoreSize)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		db:      db,
		logger:  logger,
		indexes: make(map[string]bool),
	}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.loadIndexRegistry(); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, name := range opts.SecondaryIndexes {
		if err := s.ensureIndex(name, false); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	for _, name := range opts.UniqueIndexes {
		if err := s.ensureIndex(name, true); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	s.logger.Debug("store opened", "path", path, "indexes", len(s.indexes))
	return s, nil
}

// Close closes the store. Outstanding transactions must be finished first.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureOpen() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Logger returns the store's structured logger.
func (s *Store) Logger() *slog.Logger { return s.logger }
