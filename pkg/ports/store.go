package ports

import (
	"context"
	"errors"
)

// ErrDocumentNotFound is returned when a document ID cannot be found in the store.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore persists serialized documents (the plain nested form produced
// by state.Serialize). Implementations must be safe for concurrent use.
type DocumentStore interface {
	Save(ctx context.Context, id string, doc map[string]any) error
	Load(ctx context.Context, id string) (map[string]any, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}
