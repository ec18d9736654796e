// Package registry tracks live documents by ID for embedding hosts such as
// the HTTP adapter.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/ports"
)

// Registry manages open documents. Lookups and opens are safe for concurrent
// use; mutations on an individual document remain the caller's single-threaded
// responsibility.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]*arbor.Document

	store  ports.DocumentStore
	logger *slog.Logger
	onOpen func(doc *arbor.Document)
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for the registry and its documents.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithOnOpen runs a hook on every document the registry creates or opens,
// e.g. to attach metrics or subscribers before the first mutation arrives.
func WithOnOpen(fn func(doc *arbor.Document)) Option {
	return func(r *Registry) {
		r.onOpen = fn
	}
}

// New creates a registry backed by the given persistence store.
func New(store ports.DocumentStore, opts ...Option) *Registry {
	r := &Registry{
		docs:   make(map[string]*arbor.Document),
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create opens a fresh document with the given initial data and registers it.
func (r *Registry) Create(value map[string]any, opts ...arbor.Option) *arbor.Document {
	opts = append([]arbor.Option{arbor.WithLogger(r.logger)}, opts...)
	doc := arbor.New(value, opts...)

	r.mu.Lock()
	r.docs[doc.ID()] = doc
	r.mu.Unlock()

	if r.onOpen != nil {
		r.onOpen(doc)
	}
	r.logger.Info("document created", "id", doc.ID())
	return doc
}

// Get returns the live document registered under id.
func (r *Registry) Get(id string) (*arbor.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	return doc, ok
}

// GetOrOpen returns the live document, loading it from the store when it is
// not yet open.
func (r *Registry) GetOrOpen(ctx context.Context, id string) (*arbor.Document, error) {
	if doc, ok := r.Get(id); ok {
		return doc, nil
	}

	doc, err := arbor.Open(ctx, r.store, id, arbor.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// A concurrent open may have won the race; keep the registered instance.
	if existing, ok := r.docs[id]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.docs[id] = doc
	r.mu.Unlock()

	if r.onOpen != nil {
		r.onOpen(doc)
	}
	r.logger.Info("document opened", "id", id)
	return doc, nil
}

// Save persists the live document registered under id.
func (r *Registry) Save(ctx context.Context, id string) error {
	doc, ok := r.Get(id)
	if !ok {
		return ports.ErrDocumentNotFound
	}
	return doc.Save(ctx, r.store)
}

// Close drops the live document without touching its stored form. The tree
// is destroyed so stray references stop emitting.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	doc, ok := r.docs[id]
	delete(r.docs, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	doc.Tree().Destroy()
	r.logger.Info("document closed", "id", id)
	return true
}

// Delete closes the live document (if open) and removes its stored form.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.Close(id)
	return r.store.Delete(ctx, id)
}

// Open returns the IDs of the currently open documents.
func (r *Registry) Open() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	return ids
}

// List returns the IDs known to the persistence store.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	return r.store.List(ctx)
}

// Store returns the underlying document store.
func (r *Registry) Store() ports.DocumentStore {
	return r.store
}
