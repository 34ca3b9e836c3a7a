package traversal

import (
	"sort"

	"github.com/Mu-L/helix-db-sub003/model"
)

// nodeID extracts the node id a graph step fans out from.
func nodeID(step string, item model.Item) (model.ID, error) {
	switch item.Kind {
	case model.KindNode, model.KindNodeWithScore:
		return item.Node.ID, nil
	case model.KindVector, model.KindVectorWithoutData:
		// Vectors are addressable graph endpoints too.
		id, _ := item.EntityID()
		return id, nil
	default:
		return model.ZeroID, &ErrUnexpectedKind{Step: step, Kind: item.Kind}
	}
}

const (
	dirOut = iota
	dirIn
)

// adjacency fans each upstream node out over its adjacency entries of one
// direction under one label. The label is mandatory: adjacency keys are
// (node, label hash) prefixed, so an unlabeled step would need a full-table
// scan and an ambiguous result type.
func (t *Traversal) adjacency(step string, dir int, label string, edges bool) *Traversal {
	return t.step(func(up pullFn) pullFn {
		var pending []model.ID
		return func() (model.Item, bool) {
			for {
				if len(pending) > 0 {
					id := pending[0]
					pending = pending[1:]
					if edges {
						e, err := t.store.GetEdge(t.txn, id)
						if err != nil {
							return model.ErrItem(err), true
						}
						return model.EdgeItem(e), true
					}
					n, err := t.store.GetNode(t.txn, id)
					if err != nil {
						return model.ErrItem(err), true
					}
					return model.NodeItem(n), true
				}

				item, ok := up()
				if !ok {
					return model.EmptyItem(), false
				}
				if item.IsErr() {
					return item, true
				}
				id, err := nodeID(step, item)
				if err != nil {
					return model.ErrItem(err), true
				}

				collect := func(edgeID, otherID model.ID) (bool, error) {
					if edges {
						pending = append(pending, edgeID)
					} else {
						pending = append(pending, otherID)
					}
					return true, nil
				}
				if dir == dirOut {
					err = t.store.IterOutEdges(t.txn, id, label, collect)
				} else {
					err = t.store.IterInEdges(t.txn, id, label, collect)
				}
				if err != nil {
					return model.ErrItem(err), true
				}
			}
		}
	})
}

// OutEdges maps each node to its outgoing edges under the label.
func (t *Traversal) OutEdges(label string) *Traversal {
	return t.adjacency("OutEdges", dirOut, label, true)
}

// InEdges maps each node to its incoming edges under the label.
func (t *Traversal) InEdges(label string) *Traversal {
	return t.adjacency("InEdges", dirIn, label, true)
}

// OutNodes maps each node to the destinations of its outgoing edges under
// the label. The adjacency value carries the far node id, so the edge
// record is never fetched.
func (t *Traversal) OutNodes(label string) *Traversal {
	return t.adjacency("OutNodes", dirOut, label, false)
}

// InNodes maps each node to the sources of its incoming edges under the
// label, without fetching the edge records.
func (t *Traversal) InNodes(label string) *Traversal {
	return t.adjacency("InNodes", dirIn, label, false)
}

// edgeEndpoint maps each edge to one of its endpoint nodes.
func (t *Traversal) edgeEndpoint(step string, from bool) *Traversal {
	return t.step(func(up pullFn) pullFn {
		return func() (model.Item, bool) {
			for {
				item, ok := up()
				if !ok {
					return model.EmptyItem(), false
				}
				if item.IsErr() {
					return item, true
				}
				if item.Kind != model.KindEdge {
					return model.ErrItem(&ErrUnexpectedKind{Step: step, Kind: item.Kind}), true
				}
				id := item.Edge.To
				if from {
					id = item.Edge.From
				}
				n, err := t.store.GetNode(t.txn, id)
				if err != nil {
					return model.ErrItem(err), true
				}
				return model.NodeItem(n), true
			}
		}
	})
}

// FromNode maps each edge to its source node.
func (t *Traversal) FromNode() *Traversal { return t.edgeEndpoint("FromNode", true) }

// ToNode maps each edge to its destination node.
func (t *Traversal) ToNode() *Traversal { return t.edgeEndpoint("ToNode", false) }

// Range keeps the items with ordinal in [start, end), counting non-error
// items only. Error items inside the window pass through.
func (t *Traversal) Range(start, end int) *Traversal {
	return t.step(func(up pullFn) pullFn {
		i := 0
		return func() (model.Item, bool) {
			for {
				if i >= end {
					return model.EmptyItem(), false
				}
				item, ok := up()
				if !ok {
					return model.EmptyItem(), false
				}
				if item.IsErr() {
					return item, true
				}
				ord := i
				i++
				if ord < start {
					continue
				}
				return item, true
			}
		}
	})
}

// Dedup drops repeated entities, keeping the first occurrence in stream
// order. The seen set is interned in the traversal's arena.
func (t *Traversal) Dedup() *Traversal {
	return t.step(func(up pullFn) pullFn {
		seen := make(map[string]struct{})
		return func() (model.Item, bool) {
			for {
				item, ok := up()
				if !ok {
					return model.EmptyItem(), false
				}
				if item.IsErr() {
					return item, true
				}
				id, ok := item.EntityID()
				if !ok {
					return item, true
				}
				key := t.ar.String(id[:])
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				return item, true
			}
		}
	})
}

// FilterRef keeps the items the predicate accepts. The predicate must not
// mutate the item.
func (t *Traversal) FilterRef(pred func(item *model.Item) (bool, error)) *Traversal {
	return t.filter("FilterRef", pred)
}

// FilterMut keeps the items the function accepts, allowing it to rewrite
// the item in place (e.g. project properties).
func (t *Traversal) FilterMut(fn func(item *model.Item) (bool, error)) *Traversal {
	return t.filter("FilterMut", fn)
}

func (t *Traversal) filter(step string, fn func(item *model.Item) (bool, error)) *Traversal {
	return t.step(func(up pullFn) pullFn {
		return func() (model.Item, bool) {
			for {
				item, ok := up()
				if !ok {
					return model.EmptyItem(), false
				}
				if item.IsErr() {
					return item, true
				}
				keep, err := fn(&item)
				if err != nil {
					return model.ErrItem(err), true
				}
				if keep {
					return item, true
				}
			}
		}
	})
}

// OrderByAsc materializes the stream and re-emits it sorted ascending by
// the named property. Items without the property sort last; error items
// come first so a failing stream still fails fast at the terminal.
func (t *Traversal) OrderByAsc(key string) *Traversal {
	return t.orderBy(key, true)
}

// OrderByDesc sorts descending by the named property.
func (t *Traversal) OrderByDesc(key string) *Traversal {
	return t.orderBy(key, false)
}

func (t *Traversal) orderBy(key string, asc bool) *Traversal {
	return t.step(func(up pullFn) pullFn {
		var out pullFn
		return func() (model.Item, bool) {
			if out == nil {
				var errs, items []model.Item
				for {
					item, ok := up()
					if !ok {
						break
					}
					if item.IsErr() {
						errs = append(errs, item)
						continue
					}
					items = append(items, item)
				}
				sort.SliceStable(items, func(i, j int) bool {
					vi, oki := items[i].Property(key)
					vj, okj := items[j].Property(key)
					if oki != okj {
						return oki
					}
					if !oki {
						return false
					}
					c := compareValues(vi, vj)
					if asc {
						return c < 0
					}
					return c > 0
				})
				out = fromSlice(append(errs, items...))
			}
			return out()
		}
	})
}

// Intersect keeps the items whose entity id appears in every one of the
// other pipelines. The other pipelines must share this traversal's
// transaction; they are drained on the first pull and then settled, so any
// scanners they hold are closed before this traversal's own Commit or
// Close. Id sets are intersected smallest-first and the step short-circuits
// to empty as soon as any set (or the running intersection) is empty.
func (t *Traversal) Intersect(others ...*Traversal) *Traversal {
	return t.step(func(up pullFn) pullFn {
		var (
			member map[model.ID]struct{}
			ready  bool
			dead   bool
			failed error
		)
		build := func() {
			ready = true
			defer func() {
				for _, o := range others {
					o.settle()
				}
			}()
			sets := make([]map[model.ID]struct{}, 0, len(others))
			for _, o := range others {
				set, err := o.drainIDs()
				if err != nil {
					failed = err
					return
				}
				if len(set) == 0 {
					dead = true
					return
				}
				sets = append(sets, set)
			}
			sort.Slice(sets, func(i, j int) bool { return len(sets[i]) < len(sets[j]) })
			member = sets[0]
			for _, s := range sets[1:] {
				next := make(map[model.ID]struct{}, len(member))
				for id := range member {
					if _, ok := s[id]; ok {
						next[id] = struct{}{}
					}
				}
				member = next
				if len(member) == 0 {
					dead = true
					return
				}
			}
		}
		return func() (model.Item, bool) {
			if !ready {
				build()
				if failed != nil {
					err := failed
					failed = nil
					dead = true
					return model.ErrItem(err), true
				}
			}
			if dead {
				return model.EmptyItem(), false
			}
			for {
				item, ok := up()
				if !ok {
					return model.EmptyItem(), false
				}
				if item.IsErr() {
					return item, true
				}
				id, ok := item.EntityID()
				if !ok {
					continue
				}
				if _, ok := member[id]; ok {
					return item, true
				}
			}
		}
	})
}

// drainIDs runs the pipeline to completion and returns the set of entity
// ids it produced. An error item aborts the drain.
func (t *Traversal) drainIDs() (map[model.ID]struct{}, error) {
	src, err := t.pull()
	if err != nil {
		return nil, err
	}
	set := make(map[model.ID]struct{})
	for {
		item, ok := src()
		if !ok {
			return set, nil
		}
		if item.IsErr() {
			return nil, item.Err
		}
		if id, ok := item.EntityID(); ok {
			set[id] = struct{}{}
		}
	}
}

// Group is one bucket produced by GroupBy, emitted as a value item.
type Group struct {
	Key   model.Properties
	Items []model.Item
}

// GroupBy materializes the stream and buckets items by the values of the
// named properties, emitting one value item per group in first-seen order.
// Items missing a key group under its nil value.
func (t *Traversal) GroupBy(keys ...string) *Traversal {
	return t.step(func(up pullFn) pullFn {
		var out pullFn
		return func() (model.Item, bool) {
			if out == nil {
				var (
					errs   []model.Item
					order  []string
					groups = make(map[string]*Group)
				)
				for {
					item, ok := up()
					if !ok {
						break
					}
					if item.IsErr() {
						errs = append(errs, item)
						continue
					}
					gkey, keyProps, err := groupKey(t, item, keys)
					if err != nil {
						errs = append(errs, model.ErrItem(err))
						continue
					}
					g, ok := groups[gkey]
					if !ok {
						g = &Group{Key: keyProps}
						groups[gkey] = g
						order = append(order, gkey)
					}
					g.Items = append(g.Items, item)
				}
				items := make([]model.Item, 0, len(errs)+len(order))
				items = append(items, errs...)
				for _, k := range order {
					items = append(items, model.ValueItem(groups[k]))
				}
				out = fromSlice(items)
			}
			return out()
		}
	})
}

// groupKey builds a stable byte key from the item's values of the grouping
// properties, interned in the arena.
func groupKey(t *Traversal, item model.Item, keys []string) (string, model.Properties, error) {
	props := make(model.Properties, len(keys))
	var buf []byte
	for _, k := range keys {
		v, _ := item.Property(k)
		props[k] = v
		enc, err := model.EncodeValue(v)
		if err != nil {
			return "", nil, err
		}
		buf = append(buf, byte(len(k)))
		buf = append(buf, k...)
		buf = append(buf, enc...)
	}
	return t.ar.String(buf), props, nil
}

// Aggregate folds the whole stream into one value item. An error item
// aborts the fold and is emitted instead.
func (t *Traversal) Aggregate(init any, fn func(acc any, item model.Item) (any, error)) *Traversal {
	return t.step(func(up pullFn) pullFn {
		return once(func() model.Item {
			acc := init
			for {
				item, ok := up()
				if !ok {
					return model.ValueItem(acc)
				}
				if item.IsErr() {
					return item
				}
				next, err := fn(acc, item)
				if err != nil {
					return model.ErrItem(err)
				}
				acc = next
			}
		})
	})
}

// Update overlays props onto each surviving node's property map, repairing
// the affected secondary indices in the same transaction, and emits the
// updated node. Requires a write traversal.
func (t *Traversal) Update(props model.Properties) *Traversal {
	return t.step(func(up pullFn) pullFn {
		return func() (model.Item, bool) {
			for {
				item, ok := up()
				if !ok {
					return model.EmptyItem(), false
				}
				if item.IsErr() {
					return item, true
				}
				if item.Kind != model.KindNode && item.Kind != model.KindNodeWithScore {
					return model.ErrItem(&ErrUnexpectedKind{Step: "Update", Kind: item.Kind}), true
				}
				merged := item.Node.Properties.Clone()
				if merged == nil {
					merged = make(model.Properties, len(props))
				}
				for k, v := range props {
					merged[k] = v
				}
				n, err := t.store.UpdateNode(t.txn, item.Node.ID, merged)
				if err != nil {
					return model.ErrItem(err), true
				}
				return model.NodeItem(n), true
			}
		}
	})
}
