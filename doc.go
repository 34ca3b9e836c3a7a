// Package helixdb provides an embedded graph-and-vector database for Go.
//
// One transactional store holds nodes, edges, adjacency, secondary indices
// and HNSW-indexed vectors side by side, so a graph hop and a similarity
// search run in the same snapshot and commit in the same transaction.
//
// # Quick Start
//
//	ctx := context.Background()
//	db, _ := helixdb.Open("./data",
//	    helixdb.WithSecondaryIndexes("name"),
//	)
//	defer db.Close()
//
//	alice, _ := db.CreateNode(ctx, "person", model.Properties{"name": "alice"})
//	bob, _ := db.CreateNode(ctx, "person", model.Properties{"name": "bob"})
//	db.CreateEdge(ctx, "knows", alice.ID, bob.ID, nil)
//
// # Traversals
//
// A traversal is a lazy pipeline bound to one transaction. Chain a source,
// any steps, and one terminal, then settle the transaction:
//
//	tr, _ := db.ReadTraversal()
//	defer tr.Close()
//	friends, _ := tr.NFromID(alice.ID).OutNodes("knows").Dedup().Collect()
//
// Write traversals mutate through the same pipeline and become visible at
// Commit:
//
//	tr, _ := db.WriteTraversal()
//	tr.NFromLabel("person").Update(model.Properties{"active": true}).Collect()
//	tr.Commit()
//
// # Vectors
//
// Vectors live in the same store and the same transactions:
//
//	db.InsertVector(ctx, "doc", embedding, model.Properties{"title": "..."})
//	hits, _ := db.SearchVectors(ctx, "doc", query, 10)
//
// # Concurrency Model
//
// Single writer, many readers. Read traversals run concurrently against
// their own snapshots; at most one write transaction is open at a time, and
// its effects are invisible until commit.
package helixdb
