package model

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// ID is the 128-bit identifier used for nodes, edges and vectors.
// IDs are UUIDv7, so they are globally unique and time-ordered: ids sort
// ascending in creation order.
type ID [16]byte

// ZeroID is the invalid/absent id.
var ZeroID ID

// NewID returns a fresh time-ordered id.
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source is broken.
		panic(fmt.Sprintf("model: id generation failed: %v", err))
	}
	return ID(id)
}

// ParseID parses the canonical string form of an id.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ZeroID, fmt.Errorf("model: invalid id %q: %w", s, err)
	}
	return ID(u), nil
}

// String returns the canonical UUID string form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the id is the zero id.
func (id ID) IsZero() bool {
	return id == ZeroID
}

// Compare orders ids byte-wise, which for UUIDv7 is creation order.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// Bytes returns the raw 16-byte form.
func (id ID) Bytes() []byte {
	return id[:]
}

// IDFromBytes converts a 16-byte slice into an ID.
func IDFromBytes(b []byte) (ID, error) {
	if len(b) != 16 {
		return ZeroID, fmt.Errorf("model: id must be 16 bytes, got %d", len(b))
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// Node is a labeled vertex with an optional property map.
type Node struct {
	ID         ID
	Label      string
	Version    uint8
	Properties Properties
}

// Edge is a directed, labeled connection between two nodes.
// From/To reference ids that existed when the edge was created; the store
// does not enforce the reference afterwards, cascade on node drop does.
type Edge struct {
	ID         ID
	Label      string
	Version    uint8
	From       ID
	To         ID
	Properties Properties
}

// Vector is a stored embedding participating in the HNSW graph.
//
// Level is the highest HNSW layer the vector is a member of. Distance is
// transient: it is only meaningful on vectors produced by a search. Deleted
// is a soft-delete flag; once set it is never cleared and the vector keeps
// its graph position.
type Vector struct {
	ID         ID
	Label      string
	Version    uint8
	Level      int
	Data       []float32
	Properties Properties
	Distance   float64
	Deleted    bool
}

// WithoutData returns the metadata-only projection of the vector.
func (v *Vector) WithoutData() *VectorWithoutData {
	return &VectorWithoutData{
		ID:         v.ID,
		Label:      v.Label,
		Version:    v.Version,
		Level:      v.Level,
		Properties: v.Properties,
		Distance:   v.Distance,
		Deleted:    v.Deleted,
	}
}

// VectorWithoutData carries a vector's identity and properties but not its
// payload. Used when only metadata is needed, so the raw vector (possibly
// large) is never loaded.
type VectorWithoutData struct {
	ID         ID
	Label      string
	Version    uint8
	Level      int
	Properties Properties
	Distance   float64
	Deleted    bool
}

// Path is a node/edge sequence produced by path-producing traversals.
type Path struct {
	Nodes []*Node
	Edges []*Edge
}
