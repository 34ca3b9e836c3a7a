package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Mu-L/helix-db-sub003/model"
)

// FormatVersion is the version byte written into every stored record.
const FormatVersion uint8 = 1

// Record layout shared by nodes, edges and vector metadata:
//
//	u16  label length (little endian)
//	...  label bytes
//	u8   format version
//	...  type-specific body
//
// The length-prefixed label header is what allows forward-compatible schema
// evolution: readers skip the header and dispatch on the version byte.

const headerMinLen = 2 + 1

func appendHeader(buf []byte, label string, version uint8) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(label)))
	buf = append(buf, label...)
	return append(buf, version)
}

// decodeHeader splits a stored record into label, version and body.
//
// A label length that runs past the value bounds means the on-disk format
// itself is broken, not that one record is bad; that is fatal structural
// corruption and panics rather than returning a typed error.
func decodeHeader(b []byte) (label string, version uint8, body []byte) {
	if len(b) < headerMinLen {
		panic(fmt.Sprintf("storage: corrupt record: %d bytes, need at least %d", len(b), headerMinLen))
	}
	n := int(binary.LittleEndian.Uint16(b))
	if 2+n+1 > len(b) {
		panic(fmt.Sprintf("storage: corrupt record: label length %d exceeds value bounds %d", n, len(b)))
	}
	return string(b[2 : 2+n]), b[2+n], b[2+n+1:]
}

func encodeNode(n *model.Node) ([]byte, error) {
	props, err := n.Properties.Encode()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, headerMinLen+len(n.Label)+len(props))
	buf = appendHeader(buf, n.Label, n.Version)
	return append(buf, props...), nil
}

func decodeNode(id model.ID, b []byte) (*model.Node, error) {
	label, version, body := decodeHeader(b)
	props, err := model.DecodeProperties(body)
	if err != nil {
		return nil, &DecodeError{What: "node properties", cause: err}
	}
	return &model.Node{ID: id, Label: label, Version: version, Properties: props}, nil
}

func encodeEdge(e *model.Edge) ([]byte, error) {
	props, err := e.Properties.Encode()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, headerMinLen+len(e.Label)+2*idLen+len(props))
	buf = appendHeader(buf, e.Label, e.Version)
	buf = append(buf, e.From[:]...)
	buf = append(buf, e.To[:]...)
	return append(buf, props...), nil
}

func decodeEdge(id model.ID, b []byte) (*model.Edge, error) {
	label, version, body := decodeHeader(b)
	if len(body) < 2*idLen {
		return nil, &DecodeError{What: "edge endpoints"}
	}
	var from, to model.ID
	copy(from[:], body[:idLen])
	copy(to[:], body[idLen:2*idLen])
	props, err := model.DecodeProperties(body[2*idLen:])
	if err != nil {
		return nil, &DecodeError{What: "edge properties", cause: err}
	}
	return &model.Edge{ID: id, Label: label, Version: version, From: from, To: to, Properties: props}, nil
}

// Vector metadata body: u8 level | u8 deleted flag | property map.
func encodeVectorMeta(v *model.VectorWithoutData) ([]byte, error) {
	props, err := v.Properties.Encode()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, headerMinLen+len(v.Label)+2+len(props))
	buf = appendHeader(buf, v.Label, v.Version)
	buf = append(buf, byte(v.Level))
	var deleted byte
	if v.Deleted {
		deleted = 1
	}
	buf = append(buf, deleted)
	return append(buf, props...), nil
}

func decodeVectorMeta(id model.ID, b []byte) (*model.VectorWithoutData, error) {
	label, version, body := decodeHeader(b)
	if len(body) < 2 {
		return nil, &DecodeError{What: "vector metadata"}
	}
	props, err := model.DecodeProperties(body[2:])
	if err != nil {
		return nil, &DecodeError{What: "vector properties", cause: err}
	}
	return &model.VectorWithoutData{
		ID:         id,
		Label:      label,
		Version:    version,
		Level:      int(body[0]),
		Deleted:    body[1] == 1,
		Properties: props,
	}, nil
}

// Vector payloads are stored as raw float32 in the byte order recorded in
// the storage metadata; since the v1->v2 migration that is always the
// host-native (little endian) order.

func encodeVectorData(data []float32) []byte {
	buf := make([]byte, 0, 4*len(data))
	for _, f := range data {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decodeVectorData(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, &DecodeError{What: "vector payload"}
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// encodeIDList packs neighbor ids for HNSW link lists.
func encodeIDList(ids []model.ID) []byte {
	buf := make([]byte, 0, idLen*len(ids))
	for _, id := range ids {
		buf = append(buf, id[:]...)
	}
	return buf
}

func decodeIDList(b []byte) ([]model.ID, error) {
	if len(b)%idLen != 0 {
		return nil, &DecodeError{What: "id list"}
	}
	out := make([]model.ID, len(b)/idLen)
	for i := range out {
		copy(out[i][:], b[i*idLen:])
	}
	return out, nil
}
