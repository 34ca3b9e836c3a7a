package model

import "fmt"

// ItemKind discriminates the traversal item union.
type ItemKind uint8

const (
	KindEmpty ItemKind = iota
	KindNode
	KindEdge
	KindVector
	KindVectorWithoutData
	KindPath
	KindValue
	KindNodeWithScore
	KindError
)

func (k ItemKind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindNode:
		return "Node"
	case KindEdge:
		return "Edge"
	case KindVector:
		return "Vector"
	case KindVectorWithoutData:
		return "VectorWithoutData"
	case KindPath:
		return "Path"
	case KindValue:
		return "Value"
	case KindNodeWithScore:
		return "NodeWithScore"
	case KindError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Item is the tagged union flowing through a traversal pipeline.
//
// A step that fails for one upstream item emits a KindError item instead of
// aborting the pull loop; the terminal decides whether to stop at the first
// error or skip failed items.
type Item struct {
	Kind       ItemKind
	Node       *Node
	Edge       *Edge
	Vector     *Vector
	VectorMeta *VectorWithoutData
	Path       *Path
	Value      any
	Score      float64
	Err        error
}

// EmptyItem is the item carrying nothing.
func EmptyItem() Item { return Item{Kind: KindEmpty} }

// NodeItem wraps a node.
func NodeItem(n *Node) Item { return Item{Kind: KindNode, Node: n} }

// EdgeItem wraps an edge.
func EdgeItem(e *Edge) Item { return Item{Kind: KindEdge, Edge: e} }

// VectorItem wraps a full vector.
func VectorItem(v *Vector) Item { return Item{Kind: KindVector, Vector: v} }

// VectorMetaItem wraps a payload-free vector projection.
func VectorMetaItem(v *VectorWithoutData) Item {
	return Item{Kind: KindVectorWithoutData, VectorMeta: v}
}

// PathItem wraps a path.
func PathItem(p *Path) Item { return Item{Kind: KindPath, Path: p} }

// ValueItem wraps a scalar value.
func ValueItem(v any) Item { return Item{Kind: KindValue, Value: v} }

// ScoredNodeItem wraps a node with a score.
func ScoredNodeItem(n *Node, score float64) Item {
	return Item{Kind: KindNodeWithScore, Node: n, Score: score}
}

// ErrItem wraps a per-item failure.
func ErrItem(err error) Item { return Item{Kind: KindError, Err: err} }

// IsErr reports whether the item is a failed item.
func (i Item) IsErr() bool { return i.Kind == KindError }

// EntityID returns the id of the entity the item carries, if it has one.
func (i Item) EntityID() (ID, bool) {
	switch i.Kind {
	case KindNode, KindNodeWithScore:
		if i.Node != nil {
			return i.Node.ID, true
		}
	case KindEdge:
		if i.Edge != nil {
			return i.Edge.ID, true
		}
	case KindVector:
		if i.Vector != nil {
			return i.Vector.ID, true
		}
	case KindVectorWithoutData:
		if i.VectorMeta != nil {
			return i.VectorMeta.ID, true
		}
	}
	return ZeroID, false
}

// Property returns the named property of the carried entity.
func (i Item) Property(key string) (any, bool) {
	var props Properties
	switch i.Kind {
	case KindNode, KindNodeWithScore:
		if i.Node != nil {
			props = i.Node.Properties
		}
	case KindEdge:
		if i.Edge != nil {
			props = i.Edge.Properties
		}
	case KindVector:
		if i.Vector != nil {
			props = i.Vector.Properties
		}
	case KindVectorWithoutData:
		if i.VectorMeta != nil {
			props = i.VectorMeta.Properties
		}
	}
	if props == nil {
		return nil, false
	}
	v, ok := props[key]
	return v, ok
}
