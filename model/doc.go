// Package model defines the data model shared by the storage core, the
// traversal engine and the vector index: ids, nodes, edges, vectors, paths
// and the tagged item union that flows through traversal pipelines.
package model
