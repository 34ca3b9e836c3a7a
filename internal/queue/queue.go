// Package queue provides the distance-ordered priority queues used by the
// HNSW index. Value-based storage keeps search loops allocation-free.
package queue

import "github.com/Mu-L/helix-db-sub003/model"

// Item is a candidate in a distance queue.
type Item struct {
	ID       model.ID
	Distance float64
}

// PriorityQueue is a binary heap over Items, either min- or max-ordered by
// distance.
type PriorityQueue struct {
	isMaxHeap bool
	items     []Item
}

// NewMin returns a min-heap (closest candidate on top).
func NewMin(capacity int) *PriorityQueue {
	return &PriorityQueue{items: make([]Item, 0, capacity)}
}

// NewMax returns a max-heap (worst candidate on top).
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{isMaxHeap: true, items: make([]Item, 0, capacity)}
}

// Len returns the number of queued items.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Reset clears the queue for reuse.
func (pq *PriorityQueue) Reset() { pq.items = pq.items[:0] }

// TopItem returns the heap top without removing it.
func (pq *PriorityQueue) TopItem() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// PushItem inserts an item while keeping the heap invariant.
func (pq *PriorityQueue) PushItem(item Item) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// PopItem removes and returns the heap top.
func (pq *PriorityQueue) PopItem() (Item, bool) {
	n := len(pq.items)
	if n == 0 {
		return Item{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items[n-1] = Item{}
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

// MinItem returns the item with the smallest distance. For min-heaps this
// is the top; for max-heaps it scans the backing slice.
func (pq *PriorityQueue) MinItem() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	if !pq.isMaxHeap {
		return pq.items[0], true
	}
	min := pq.items[0]
	for i := 1; i < len(pq.items); i++ {
		if pq.items[i].Distance < min.Distance {
			min = pq.items[i]
		}
	}
	return min, true
}

func (pq *PriorityQueue) less(i, j int) bool {
	if pq.isMaxHeap {
		return pq.items[i].Distance > pq.items[j].Distance
	}
	return pq.items[i].Distance < pq.items[j].Distance
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !pq.less(i, p) {
			return
		}
		pq.items[i], pq.items[p] = pq.items[p], pq.items[i]
		i = p
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && pq.less(r, l) {
			best = r
		}
		if !pq.less(best, i) {
			return
		}
		pq.items[i], pq.items[best] = pq.items[best], pq.items[i]
		i = best
	}
}
