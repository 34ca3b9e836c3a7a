// Package hnsw implements the Hierarchical Navigable Small World proximity
// graph for approximate nearest neighbor search, layered on the same
// transactional store as the graph data. Structural mutation happens inside
// the caller's write transaction, so the store's single-writer rule
// serializes index updates without any extra lock.
package hnsw

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/Mu-L/helix-db-sub003/internal/queue"
	"github.com/Mu-L/helix-db-sub003/internal/visited"
	"github.com/Mu-L/helix-db-sub003/model"
	"github.com/Mu-L/helix-db-sub003/storage"
)

const (
	// DefaultM is the default number of bidirectional links per layer.
	DefaultM = 16

	// DefaultEFConstruction is the default candidate-list size at insert.
	DefaultEFConstruction = 128

	// DefaultEFSearch is the default candidate-list size at search.
	DefaultEFSearch = 64

	// mmax0Multiplier widens the neighbor cap at the base layer.
	mmax0Multiplier = 2
)

// Options configures the index.
type Options struct {
	M              int
	EFConstruction int
	EFSearch       int
	RandomSeed     *int64
}

// DefaultOptions are the options used when none are given.
var DefaultOptions = Options{
	M:              DefaultM,
	EFConstruction: DefaultEFConstruction,
	EFSearch:       DefaultEFSearch,
}

// Index is the HNSW index bound to a store. All state lives in the store's
// tables; the Index itself only carries configuration.
type Index struct {
	store *storage.Store
	opts  Options

	layerMultiplier float64
	maxConns        int
	maxConnsLayer0  int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates an index over the given store.
func New(store *storage.Store, optFns ...func(o *Options)) *Index {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.M < 2 {
		opts.M = 2
	}
	if opts.EFConstruction <= 0 {
		opts.EFConstruction = DefaultEFConstruction
	}
	if opts.EFSearch <= 0 {
		opts.EFSearch = DefaultEFSearch
	}

	var rng *rand.Rand
	if opts.RandomSeed != nil {
		rng = rand.New(rand.NewSource(*opts.RandomSeed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Index{
		store:           store,
		opts:            opts,
		layerMultiplier: 1 / math.Log(float64(opts.M)),
		maxConns:        opts.M,
		maxConnsLayer0:  mmax0Multiplier * opts.M,
		rng:             rng,
	}
}

// randomLevel draws the maximum participating layer for a new vector from
// the standard exponential layer distribution.
func (ix *Index) randomLevel() int {
	ix.rngMu.Lock()
	r := ix.rng.Float64()
	ix.rngMu.Unlock()
	if r == 0 {
		r = math.SmallestNonzeroFloat64
	}
	return int(math.Floor(-math.Log(r) * ix.layerMultiplier))
}

// searchCtx caches vector payloads fetched during one insert or search so
// repeated distance computations against the same node hit memory.
type searchCtx struct {
	txn   *storage.Txn
	store *storage.Store
	cache map[model.ID][]float32
}

func (ix *Index) newSearchCtx(txn *storage.Txn) *searchCtx {
	return &searchCtx{txn: txn, store: ix.store, cache: make(map[model.ID][]float32, 256)}
}

func (sc *searchCtx) vector(id model.ID) ([]float32, error) {
	if v, ok := sc.cache[id]; ok {
		return v, nil
	}
	v, err := sc.store.GetVectorData(sc.txn, id)
	if err != nil {
		return nil, err
	}
	sc.cache[id] = v
	return v, nil
}

func (sc *searchCtx) dist(query []float32, id model.ID) (float64, error) {
	v, err := sc.vector(id)
	if err != nil {
		return 0, err
	}
	return CosineDistance(query, v), nil
}

// Insert stores data under a fresh id, links it into the proximity graph
// and returns the resulting vector. Must run inside a write transaction.
func (ix *Index) Insert(txn *storage.Txn, label string, data []float32, props model.Properties) (*model.Vector, error) {
	if len(data) == 0 {
		return nil, ErrInvalidVectorData
	}

	level := ix.randomLevel()
	v := &model.Vector{
		ID:         model.NewID(),
		Label:      label,
		Version:    storage.FormatVersion,
		Level:      level,
		Data:       data,
		Properties: props,
	}

	epID, epLevel, err := ix.store.EntryPoint(txn)
	if errors.Is(err, storage.ErrNotFound) {
		// First vector: it becomes the entry point, no links yet.
		if err := ix.store.PutVector(txn, v); err != nil {
			return nil, err
		}
		if err := ix.store.SetEntryPoint(txn, v.ID, level); err != nil {
			return nil, err
		}
		return v, nil
	}
	if err != nil {
		return nil, err
	}

	sc := ix.newSearchCtx(txn)
	epData, err := sc.vector(epID)
	if err != nil {
		return nil, err
	}
	if len(data) != len(epData) {
		return nil, &ErrInvalidVectorLength{Expected: len(epData), Actual: len(data)}
	}

	if err := ix.store.PutVector(txn, v); err != nil {
		return nil, err
	}
	sc.cache[v.ID] = data

	// Greedy descent from the top layer down to just above the new
	// vector's assigned layer: single locally-best successor steps.
	currID := epID
	currDist := CosineDistance(data, epData)
	for level := epLevel; level > v.Level; level-- {
		currID, currDist, err = ix.greedyStep(sc, data, currID, currDist, level)
		if err != nil {
			return nil, err
		}
	}

	// From the assigned layer down to 0: bounded best-first search, link
	// bidirectionally, re-prune overflowing neighbor lists.
	vis := visited.New(ix.opts.EFConstruction * 4)
	for level := min(v.Level, epLevel); level >= 0; level-- {
		results, err := ix.searchLayer(sc, data, currID, currDist, level, ix.opts.EFConstruction, nil, vis)
		if err != nil {
			return nil, err
		}

		if best, ok := results.MinItem(); ok {
			currID = best.ID
			currDist = best.Distance
		}

		neighbors, err := ix.selectNeighbors(sc, results, ix.maxConnsAt(level))
		if err != nil {
			return nil, err
		}
		if err := ix.store.SetLinks(txn, v.ID, level, neighbors); err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if err := ix.addLink(sc, n, v.ID, level); err != nil {
				return nil, err
			}
		}
	}

	if v.Level > epLevel {
		if err := ix.store.SetEntryPoint(txn, v.ID, v.Level); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (ix *Index) maxConnsAt(level int) int {
	if level == 0 {
		return ix.maxConnsLayer0
	}
	return ix.maxConns
}

// greedyStep moves to the locally nearest neighbor until no neighbor
// improves on the current distance.
func (ix *Index) greedyStep(sc *searchCtx, query []float32, currID model.ID, currDist float64, level int) (model.ID, float64, error) {
	for {
		improved := false
		links, err := ix.store.GetLinks(sc.txn, currID, level)
		if err != nil {
			return model.ZeroID, 0, err
		}
		for _, next := range links {
			d, err := sc.dist(query, next)
			if err != nil {
				return model.ZeroID, 0, err
			}
			if d < currDist {
				currID = next
				currDist = d
				improved = true
			}
		}
		if !improved {
			return currID, currDist, nil
		}
	}
}

// searchLayer runs the bounded best-first search of one layer. The filter,
// when set, keeps nodes out of the result set but never out of the
// traversal: deleted nodes still route.
func (ix *Index) searchLayer(sc *searchCtx, query []float32, epID model.ID, epDist float64, level, ef int, filter func(model.ID) (bool, error), vis *visited.Set) (*queue.PriorityQueue, error) {
	vis.Reset()
	vis.Visit(epID)

	candidates := queue.NewMin(ef)
	results := queue.NewMax(ef)

	candidates.PushItem(queue.Item{ID: epID, Distance: epDist})
	ok, err := passes(filter, epID)
	if err != nil {
		return nil, err
	}
	if ok {
		results.PushItem(queue.Item{ID: epID, Distance: epDist})
	}

	for candidates.Len() > 0 {
		curr, _ := candidates.PopItem()
		if results.Len() >= ef {
			if worst, ok := results.TopItem(); ok && curr.Distance > worst.Distance {
				break
			}
		}

		links, err := ix.store.GetLinks(sc.txn, curr.ID, level)
		if err != nil {
			return nil, err
		}
		for _, next := range links {
			if !vis.Visit(next) {
				continue
			}
			d, err := sc.dist(query, next)
			if err != nil {
				return nil, err
			}
			if results.Len() >= ef {
				if worst, ok := results.TopItem(); ok && d > worst.Distance && filter == nil {
					continue
				}
			}
			candidates.PushItem(queue.Item{ID: next, Distance: d})
			ok, err := passes(filter, next)
			if err != nil {
				return nil, err
			}
			if ok {
				results.PushItem(queue.Item{ID: next, Distance: d})
				if results.Len() > ef {
					_, _ = results.PopItem()
				}
			}
		}
	}
	return results, nil
}

func passes(filter func(model.ID) (bool, error), id model.ID) (bool, error) {
	if filter == nil {
		return true, nil
	}
	return filter(id)
}

// selectNeighbors applies the closest-with-diversity heuristic: a candidate
// is kept only if it is closer to the query than to every already-kept
// neighbor, then remaining slots are filled closest-first.
func (ix *Index) selectNeighbors(sc *searchCtx, candidates *queue.PriorityQueue, m int) ([]model.ID, error) {
	sorted := make([]queue.Item, candidates.Len())
	for i := len(sorted) - 1; i >= 0; i-- {
		sorted[i], _ = candidates.PopItem()
	}

	if len(sorted) <= m {
		out := make([]model.ID, len(sorted))
		for i, it := range sorted {
			out[i] = it.ID
		}
		return out, nil
	}

	result := make([]model.ID, 0, m)
	resultVecs := make([][]float32, 0, m)
	for _, cand := range sorted {
		if len(result) >= m {
			break
		}
		candVec, err := sc.vector(cand.ID)
		if err != nil {
			return nil, err
		}
		diverse := true
		for _, kept := range resultVecs {
			if CosineDistance(candVec, kept) < cand.Distance {
				diverse = false
				break
			}
		}
		if diverse {
			result = append(result, cand.ID)
			resultVecs = append(resultVecs, candVec)
		}
	}

	// Fill up with the nearest skipped candidates.
	for _, cand := range sorted {
		if len(result) >= m {
			break
		}
		seen := false
		for _, id := range result {
			if id == cand.ID {
				seen = true
				break
			}
		}
		if !seen {
			result = append(result, cand.ID)
		}
	}
	return result, nil
}

// addLink connects target into source's neighbor list at the given level,
// re-pruning with the diversity heuristic when the list exceeds its cap.
func (ix *Index) addLink(sc *searchCtx, sourceID, targetID model.ID, level int) error {
	links, err := ix.store.GetLinks(sc.txn, sourceID, level)
	if err != nil {
		return err
	}
	for _, l := range links {
		if l == targetID {
			return nil
		}
	}

	maxM := ix.maxConnsAt(level)
	if len(links) < maxM {
		return ix.store.SetLinks(sc.txn, sourceID, level, append(links, targetID))
	}

	sourceVec, err := sc.vector(sourceID)
	if err != nil {
		return err
	}
	candidates := queue.NewMax(len(links) + 1)
	for _, l := range append(links, targetID) {
		d, err := sc.dist(sourceVec, l)
		if err != nil {
			return err
		}
		candidates.PushItem(queue.Item{ID: l, Distance: d})
	}
	pruned, err := ix.selectNeighbors(sc, candidates, maxM)
	if err != nil {
		return err
	}
	return ix.store.SetLinks(sc.txn, sourceID, level, pruned)
}

// Search performs approximate nearest-neighbor search: greedy descent with
// single best-successor steps down to layer 1, then a bounded best-first
// search of layer 0. Soft-deleted and label-mismatched candidates are
// filtered after their metadata record is fetched; their graph positions
// still route the search.
func (ix *Index) Search(txn *storage.Txn, label string, query []float32, k int) ([]*model.Vector, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(query) == 0 {
		return nil, ErrInvalidVectorData
	}

	epID, epLevel, err := ix.store.EntryPoint(txn)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrEntryPointNotFound
	}
	if err != nil {
		return nil, err
	}

	sc := ix.newSearchCtx(txn)
	epData, err := sc.vector(epID)
	if err != nil {
		return nil, err
	}
	if len(query) != len(epData) {
		return nil, &ErrInvalidVectorLength{Expected: len(epData), Actual: len(query)}
	}

	currID := epID
	currDist := CosineDistance(query, epData)
	for level := epLevel; level > 0; level-- {
		currID, currDist, err = ix.greedyStep(sc, query, currID, currDist, level)
		if err != nil {
			return nil, err
		}
	}

	ef := ix.opts.EFSearch
	if ef < k {
		ef = k
	}
	filter := func(id model.ID) (bool, error) {
		meta, err := ix.store.GetVectorMeta(txn, id)
		if err != nil {
			return false, err
		}
		return !meta.Deleted && meta.Label == label, nil
	}
	vis := visited.New(ef * 4)
	results, err := ix.searchLayer(sc, query, currID, currDist, 0, ef, filter, vis)
	if err != nil {
		return nil, err
	}

	for results.Len() > k {
		_, _ = results.PopItem()
	}
	out := make([]*model.Vector, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		item, _ := results.PopItem()
		v, err := ix.store.GetVector(txn, item.ID)
		if err != nil {
			return nil, err
		}
		v.Distance = item.Distance
		out[i] = v
	}
	return out, nil
}

// BruteSearch performs an exact linear scan over every stored vector,
// ranking strictly by ascending distance. Used for validation, small
// collections and labels without useful recall requirements.
func (ix *Index) BruteSearch(txn *storage.Txn, label string, query []float32, k int) ([]*model.Vector, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(query) == 0 {
		return nil, ErrInvalidVectorData
	}

	scan := ix.store.ScanVectors(txn)
	defer scan.Close()

	best := queue.NewMax(k)
	for {
		meta, ok := scan.Next()
		if !ok {
			break
		}
		if meta.Deleted || meta.Label != label {
			continue
		}
		data, err := scan.Data(meta.ID)
		if err != nil {
			return nil, err
		}
		if len(data) != len(query) {
			return nil, &ErrInvalidVectorLength{Expected: len(data), Actual: len(query)}
		}
		d := CosineDistance(query, data)
		if best.Len() < k {
			best.PushItem(queue.Item{ID: meta.ID, Distance: d})
		} else if worst, ok := best.TopItem(); ok && d < worst.Distance {
			_, _ = best.PopItem()
			best.PushItem(queue.Item{ID: meta.ID, Distance: d})
		}
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}

	out := make([]*model.Vector, best.Len())
	for i := best.Len() - 1; i >= 0; i-- {
		item, _ := best.PopItem()
		v, err := ix.store.GetVector(txn, item.ID)
		if err != nil {
			return nil, err
		}
		v.Distance = item.Distance
		out[i] = v
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

// Get fetches a stored vector by id.
func (ix *Index) Get(txn *storage.Txn, id model.ID) (*model.Vector, error) {
	v, err := ix.store.GetVector(txn, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &ErrVectorNotFound{ID: id.String(), cause: err}
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Delete soft-deletes a vector. Its payload and graph links stay in place;
// physical removal would require re-linking every neighbor, so the flag is
// filtered out of every search path instead. There is no compaction pass
// reclaiming deleted graph positions.
func (ix *Index) Delete(txn *storage.Txn, id model.ID) error {
	already, err := ix.store.DropVector(txn, id)
	if errors.Is(err, storage.ErrNotFound) {
		return &ErrVectorNotFound{ID: id.String(), cause: err}
	}
	if err != nil {
		return err
	}
	if already {
		return ErrVectorAlreadyDeleted
	}
	return nil
}
