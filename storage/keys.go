package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/Mu-L/helix-db-sub003/model"
)

// Table prefixes. Every key in the store starts with exactly one of these.
const (
	prefixNode       byte = 0x01
	prefixEdge       byte = 0x02
	prefixOut        byte = 0x03
	prefixIn         byte = 0x04
	prefixVectorData byte = 0x05
	prefixVectorMeta byte = 0x06
	prefixVectorLink byte = 0x07
	prefixSecondary  byte = 0x08
	prefixMeta       byte = 0x09
)

const (
	idLen        = 16
	labelHashLen = 8
)

// Metadata table keys.
var (
	metaStorageKey = metaKey("storage")
	metaEntryKey   = metaKey("hnsw_entry")
	metaIndexesKey = metaKey("secondary_indexes")
)

func metaKey(name string) []byte {
	k := make([]byte, 0, 1+len(name))
	k = append(k, prefixMeta)
	return append(k, name...)
}

// hashLabel hashes a label for adjacency and index key material.
func hashLabel(label string) uint64 {
	return xxhash.Sum64String(label)
}

func nodeKey(id model.ID) []byte {
	k := make([]byte, 0, 1+idLen)
	k = append(k, prefixNode)
	return append(k, id[:]...)
}

func edgeKey(id model.ID) []byte {
	k := make([]byte, 0, 1+idLen)
	k = append(k, prefixEdge)
	return append(k, id[:]...)
}

func vectorDataKey(id model.ID) []byte {
	k := make([]byte, 0, 1+idLen)
	k = append(k, prefixVectorData)
	return append(k, id[:]...)
}

func vectorMetaKey(id model.ID) []byte {
	k := make([]byte, 0, 1+idLen)
	k = append(k, prefixVectorMeta)
	return append(k, id[:]...)
}

// vectorLinkKey addresses the neighbor list of a vector at one HNSW layer.
func vectorLinkKey(id model.ID, level int) []byte {
	k := make([]byte, 0, 1+idLen+1)
	k = append(k, prefixVectorLink)
	k = append(k, id[:]...)
	return append(k, byte(level))
}

// adjacencyKey builds an out- or in-adjacency key:
// prefix | node id | label hash | edge id. The edge id makes the key unique
// while keeping (node id, label hash) as the duplicate-key scan prefix.
func adjacencyKey(prefix byte, node model.ID, labelHash uint64, edge model.ID) []byte {
	k := make([]byte, 0, 1+idLen+labelHashLen+idLen)
	k = append(k, prefix)
	k = append(k, node[:]...)
	k = binary.BigEndian.AppendUint64(k, labelHash)
	return append(k, edge[:]...)
}

// adjacencyLabelPrefix is the scan prefix for one node's adjacency entries
// under one label.
func adjacencyLabelPrefix(prefix byte, node model.ID, labelHash uint64) []byte {
	k := make([]byte, 0, 1+idLen+labelHashLen)
	k = append(k, prefix)
	k = append(k, node[:]...)
	return binary.BigEndian.AppendUint64(k, labelHash)
}

// adjacencyNodePrefix is the scan prefix for all of a node's adjacency
// entries regardless of label. Used by cascade delete.
func adjacencyNodePrefix(prefix byte, node model.ID) []byte {
	k := make([]byte, 0, 1+idLen)
	k = append(k, prefix)
	return append(k, node[:]...)
}

// adjacencyValue packs (edge id, other node id) into one 32-byte value.
func adjacencyValue(edge, other model.ID) []byte {
	v := make([]byte, 0, 2*idLen)
	v = append(v, edge[:]...)
	return append(v, other[:]...)
}

func decodeAdjacencyValue(v []byte) (edge, other model.ID, err error) {
	if len(v) != 2*idLen {
		return model.ZeroID, model.ZeroID, &DecodeError{What: "adjacency entry"}
	}
	copy(edge[:], v[:idLen])
	copy(other[:], v[idLen:])
	return edge, other, nil
}

// adjacencyKeyLabelHash extracts the label hash back out of an adjacency
// key. Cascade delete needs it to remove the paired entry on the other
// side without decoding the edge record. A key too short to carry the hash
// means the key space itself is broken; like decodeHeader, that is fatal
// structural corruption and panics.
func adjacencyKeyLabelHash(key []byte) uint64 {
	if len(key) < 1+idLen+labelHashLen {
		panic(fmt.Sprintf("storage: corrupt adjacency key: %d bytes, need at least %d", len(key), 1+idLen+labelHashLen))
	}
	return binary.BigEndian.Uint64(key[1+idLen : 1+idLen+labelHashLen])
}

// indexEntryKey builds a secondary-index entry key:
// prefix | index name hash | serialized value | 0x00 | node id.
// Many nodes may share the same serialized value; the trailing node id keeps
// entries distinct.
func indexEntryKey(name string, value []byte, node model.ID) []byte {
	k := indexValuePrefix(name, value)
	return append(k, node[:]...)
}

// indexValuePrefix is the scan prefix for all entries of one index with one
// exact serialized value.
func indexValuePrefix(name string, value []byte) []byte {
	k := make([]byte, 0, 1+labelHashLen+len(value)+1+idLen)
	k = append(k, prefixSecondary)
	k = binary.BigEndian.AppendUint64(k, hashLabel(name))
	k = append(k, value...)
	return append(k, 0x00)
}

// indexPrefix is the scan prefix for every entry of one index.
func indexPrefix(name string) []byte {
	k := make([]byte, 0, 1+labelHashLen)
	k = append(k, prefixSecondary)
	return binary.BigEndian.AppendUint64(k, hashLabel(name))
}

// indexEntryNodeID recovers the owning node id from an index entry key.
func indexEntryNodeID(key []byte) (model.ID, error) {
	if len(key) < idLen {
		return model.ZeroID, &DecodeError{What: "index entry key"}
	}
	return model.IDFromBytes(key[len(key)-idLen:])
}
