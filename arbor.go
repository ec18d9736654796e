package arbor

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/arbor/pkg/history"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/state"
	"github.com/google/uuid"
)

// Version is the library version reported by the CLI and the HTTP adapter.
var Version = "0.1.0"

// Document is the high-level entry point for the Arbor library.
// It wires an observable state tree to an undo/redo stack through a recording
// binding, and persists its serialized form through a ports.DocumentStore.
type Document struct {
	id      string
	tree    *state.Tree
	stack   *history.Stack
	binding *history.Binding
	logger  *slog.Logger

	historyOff  bool
	prefix      string
	combine     bool
	dupPaths    []string
	initialData map[string]any
}

// Option defines a functional option for configuring a Document.
type Option func(*Document)

// WithLogger sets a custom structured logger for the document.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		d.logger = logger
	}
}

// WithID fixes the document ID instead of generating one.
func WithID(id string) Option {
	return func(d *Document) {
		d.id = id
	}
}

// WithoutHistory disables undo/redo recording entirely.
func WithoutHistory() Option {
	return func(d *Document) {
		d.historyOff = true
	}
}

// WithHistoryPrefix labels every recorded action name.
func WithHistoryPrefix(prefix string) Option {
	return func(d *Document) {
		d.prefix = prefix
	}
}

// WithCombinedHistory coalesces rapid successive edits of the same path into
// a single undo step.
func WithCombinedHistory() Option {
	return func(d *Document) {
		d.combine = true
	}
}

// WithAllowDuplicates exempts array paths from the duplicate-primitive
// rejection on Insert.
func WithAllowDuplicates(paths ...string) Option {
	return func(d *Document) {
		d.dupPaths = paths
	}
}

// New creates a document holding the given initial data. A nil value starts
// an empty document. Initial loading records no history and emits no events.
func New(value map[string]any, opts ...Option) *Document {
	d := &Document{initialData: value}
	for _, opt := range opts {
		opt(d)
	}
	if d.id == "" {
		d.id = uuid.NewString()
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d.logger = d.logger.With("document", d.id)

	d.tree = d.newTree(value)
	if !d.historyOff {
		d.stack = history.NewStack(history.WithLogger(d.logger))
		bindOpts := []history.BindOption{history.WithBindingLogger(d.logger)}
		if d.prefix != "" {
			bindOpts = append(bindOpts, history.WithPrefix(d.prefix))
		}
		if d.combine {
			bindOpts = append(bindOpts, history.WithCombine())
		}
		d.binding = history.Bind(d.tree, d.stack, bindOpts...)
	}
	return d
}

// newTree builds a tree whose replay resolver always yields the document's
// current tree, so history closures never hold a stale pointer.
func (d *Document) newTree(value map[string]any) *state.Tree {
	opts := []state.Option{
		state.WithLogger(d.logger),
		state.WithResolver(func() *state.Tree { return d.tree }),
	}
	if len(d.dupPaths) > 0 {
		opts = append(opts, state.WithAllowDuplicates(d.dupPaths...))
	}
	return state.New(value, opts...)
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Tree exposes the underlying state tree.
func (d *Document) Tree() *state.Tree { return d.tree }

// History exposes the undo/redo stack, nil when history is disabled.
func (d *Document) History() *history.Stack { return d.stack }

// Set writes a value at path. See state.Tree.Set.
func (d *Document) Set(path string, value any, opts ...state.MutateOption) bool {
	return d.tree.Set(path, value, opts...)
}

// Get returns the serialized value at path. See state.Tree.Get.
func (d *Document) Get(path string) (any, bool) {
	return d.tree.Get(path)
}

// Has reports whether path resolves. See state.Tree.Has.
func (d *Document) Has(path string) bool {
	return d.tree.Has(path)
}

// Serialize materializes the document into plain nested containers.
func (d *Document) Serialize() map[string]any {
	return d.tree.Serialize()
}

// Undo reverts the most recent recorded mutation.
func (d *Document) Undo(ctx context.Context) bool {
	if d.stack == nil {
		return false
	}
	return d.stack.Undo(ctx)
}

// Redo reapplies the most recently undone mutation.
func (d *Document) Redo(ctx context.Context) bool {
	if d.stack == nil {
		return false
	}
	return d.stack.Redo(ctx)
}

// CanUndo reports whether Undo would act.
func (d *Document) CanUndo() bool {
	return d.stack != nil && d.stack.CanUndo()
}

// CanRedo reports whether Redo would act.
func (d *Document) CanRedo() bool {
	return d.stack != nil && d.stack.CanRedo()
}

// Save persists the document's serialized form.
func (d *Document) Save(ctx context.Context, store ports.DocumentStore) error {
	if err := store.Save(ctx, d.id, d.tree.Serialize()); err != nil {
		return fmt.Errorf("failed to save document %s: %w", d.id, err)
	}
	d.logger.Debug("document saved")
	return nil
}

// Reload replaces the document's content with the stored version. The tree
// instance and its subscriptions survive: content is patched in place under a
// silence window, and the history is cleared since its actions no longer
// describe the tree.
func (d *Document) Reload(ctx context.Context, store ports.DocumentStore) error {
	doc, err := store.Load(ctx, d.id)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", d.id, err)
	}
	d.tree.Patch(doc, true, state.Silent())
	if d.stack != nil {
		d.stack.Clear()
	}
	d.logger.Debug("document reloaded")
	return nil
}

// Open loads a stored document into a fresh Document. The returned document
// carries the store's content as its silent initial state.
func Open(ctx context.Context, store ports.DocumentStore, id string, opts ...Option) (*Document, error) {
	data, err := store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to open document %s: %w", id, err)
	}
	opts = append([]Option{WithID(id)}, opts...)
	return New(data, opts...), nil
}
