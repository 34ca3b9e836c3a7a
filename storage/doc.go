// Package storage implements the persistent storage core: durable tables
// for nodes, edges, adjacency, vectors and secondary indices inside one
// transactional Badger store, plus the format-version metadata used for
// one-shot migrations at open time.
//
// All tables live in a single keyspace separated by one-byte prefixes.
// Stored values are label-length-prefixed binary blobs so the schema can
// evolve without a full rewrite. Adjacency is kept as two duplicate-key
// tables keyed by (node id, label hash), one for outgoing and one for
// incoming edges, so neighbor lookup by label never scans unrelated edges.
package storage
