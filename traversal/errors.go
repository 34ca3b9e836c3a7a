package traversal

import (
	"errors"
	"fmt"

	"github.com/Mu-L/helix-db-sub003/model"
)

var (
	// ErrNoSource is returned when a step or terminal runs on a pipeline
	// without a source.
	ErrNoSource = errors.New("traversal: no source")

	// ErrSourceAlreadySet is returned when a second source is chained.
	ErrSourceAlreadySet = errors.New("traversal: source already set")

	// ErrNoResults is returned by First on an empty stream.
	ErrNoResults = errors.New("traversal: no results")
)

// ErrUnexpectedKind indicates a step applied to an item kind it cannot
// consume, e.g. OutEdges on an edge item.
type ErrUnexpectedKind struct {
	Step string
	Kind model.ItemKind
}

func (e *ErrUnexpectedKind) Error() string {
	return fmt.Sprintf("traversal: %s: unexpected item kind %s", e.Step, e.Kind)
}
