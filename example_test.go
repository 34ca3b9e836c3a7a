package helixdb_test

import (
	"context"
	"fmt"
	"log"

	helixdb "github.com/Mu-L/helix-db-sub003"
	"github.com/Mu-L/helix-db-sub003/model"
)

func Example() {
	ctx := context.Background()

	db, err := helixdb.Open("", helixdb.WithInMemory())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	alice, err := db.CreateNode(ctx, "person", model.Properties{"name": "alice"})
	if err != nil {
		log.Fatal(err)
	}
	bob, err := db.CreateNode(ctx, "person", model.Properties{"name": "bob"})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := db.CreateEdge(ctx, "knows", alice.ID, bob.ID, nil); err != nil {
		log.Fatal(err)
	}

	tr, err := db.ReadTraversal()
	if err != nil {
		log.Fatal(err)
	}
	defer tr.Close()

	items, err := tr.NFromID(alice.ID).OutNodes("knows").Collect()
	if err != nil {
		log.Fatal(err)
	}
	for _, item := range items {
		name, _ := item.Property("name")
		fmt.Println(name)
	}
	// Output: bob
}

func Example_vectorSearch() {
	ctx := context.Background()

	db, err := helixdb.Open("", helixdb.WithInMemory())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	docs := map[string][]float32{
		"intro":    {1, 0, 0},
		"appendix": {0, 1, 0},
	}
	for title, embedding := range docs {
		if _, err := db.InsertVector(ctx, "doc", embedding, model.Properties{"title": title}); err != nil {
			log.Fatal(err)
		}
	}

	hits, err := db.SearchVectors(ctx, "doc", []float32{0.9, 0.1, 0}, 1)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(hits[0].Properties["title"])
	// Output: intro
}
