// Package arena provides a bulk-allocated, bulk-freed byte region scoped to
// one traversal operation.
//
// Every top-level traversal borrows exactly one Arena: records decoded
// during the traversal copy their bytes into it, and Release returns all
// chunks at once when the operation ends. In a garbage-collected runtime the
// arena buys allocation locality and pooling rather than manual lifetime
// control, but the "freed in bulk at operation end" lifecycle is kept: a
// slice handed out by an Arena must not outlive Release.
package arena

import (
	"sync"
	"unsafe"
)

// DefaultChunkSize is the size of each backing chunk (256 KiB).
const DefaultChunkSize = 256 * 1024

var chunkPool = sync.Pool{
	New: func() any {
		b := make([]byte, DefaultChunkSize)
		return &b
	},
}

// Stats tracks arena usage.
type Stats struct {
	BytesUsed   uint64
	ChunksInUse int
	TotalAllocs uint64
}

// Arena is a chunked bump allocator. It is not safe for concurrent use;
// a traversal is single-threaded by design.
type Arena struct {
	chunks   []*[]byte
	cur      []byte
	off      int
	released bool
	stats    Stats
}

// New returns an empty arena. The first chunk is claimed lazily.
func New() *Arena {
	return &Arena{}
}

// AllocBytes returns a zeroed slice of the given length backed by the arena.
// Requests larger than the chunk size get a dedicated chunk.
func (a *Arena) AllocBytes(n int) []byte {
	if a.released {
		panic("arena: allocation after Release")
	}
	if n <= 0 {
		return nil
	}
	a.stats.TotalAllocs++
	a.stats.BytesUsed += uint64(n)

	if n > DefaultChunkSize {
		big := make([]byte, n)
		a.chunks = append(a.chunks, &big)
		a.stats.ChunksInUse++
		return big
	}
	if a.cur == nil || a.off+n > len(a.cur) {
		a.grow()
	}
	b := a.cur[a.off : a.off+n : a.off+n]
	a.off += n
	clear(b)
	return b
}

// Copy copies src into arena-owned memory.
func (a *Arena) Copy(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := a.AllocBytes(len(src))
	copy(dst, src)
	return dst
}

// String interns src into arena-owned memory and returns a zero-copy string
// view of it. The string is invalid after Release.
func (a *Arena) String(src []byte) string {
	b := a.Copy(src)
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

func (a *Arena) grow() {
	c := chunkPool.Get().(*[]byte)
	a.chunks = append(a.chunks, c)
	a.cur = *c
	a.off = 0
	a.stats.ChunksInUse++
}

// Stats returns current usage counters.
func (a *Arena) Stats() Stats {
	return a.stats
}

// Release returns every chunk to the pool in one pass. All slices handed
// out by the arena are invalid afterwards. Release is idempotent.
func (a *Arena) Release() {
	if a.released {
		return
	}
	a.released = true
	for _, c := range a.chunks {
		if len(*c) == DefaultChunkSize {
			chunkPool.Put(c)
		}
	}
	a.chunks = nil
	a.cur = nil
	a.off = 0
	a.stats.ChunksInUse = 0
}
