package history

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/aretw0/arbor/pkg/events"
	"github.com/aretw0/arbor/pkg/state"
)

// ErrNoTarget is returned by a replay closure when the latest-resolver
// yields no live tree.
var ErrNoTarget = errors.New("history replay target not resolvable")

// Binding turns tree mutations into reversible history actions.
//
// It subscribes to the five wildcard mutation events of a tree and, while
// enabled, pushes an action per mutation whose closures replay the inverse
// and forward mutation. Closures resolve the current tree instance at replay
// time through the tree's latest-resolver, never through a captured pointer:
// an intervening undo may have destroyed and recreated the node. Replay runs
// inside a silence window so it does not record itself.
//
// Binding implements ports.Recorder: SetEnabled(false) mutes recording only;
// the tree's own event emission is unaffected.
type Binding struct {
	stack   *Stack
	resolve func() *state.Tree
	prefix  string
	enabled bool
	combine bool
	logger  *slog.Logger
	subs    []*events.Subscription[state.Mutation]
	tree    *state.Tree
}

// BindOption configures a Binding.
type BindOption func(*Binding)

// WithPrefix prepends a label to every recorded action name.
func WithPrefix(prefix string) BindOption {
	return func(b *Binding) {
		b.prefix = prefix
	}
}

// WithCombine records actions with the Combine flag set, coalescing
// successive same-path mutations into one undo step.
func WithCombine() BindOption {
	return func(b *Binding) {
		b.combine = true
	}
}

// WithBindingLogger sets the structured logger. Defaults to a no-op logger.
func WithBindingLogger(logger *slog.Logger) BindOption {
	return func(b *Binding) {
		b.logger = logger
	}
}

// Bind wires a tree's mutation events into the stack and registers the
// binding as a recorder on the tree, so silence windows suppress it.
func Bind(tree *state.Tree, stack *Stack, opts ...BindOption) *Binding {
	b := &Binding{
		stack:   stack,
		tree:    tree,
		resolve: tree.Latest,
		enabled: true,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}

	tree.AttachRecorder(b)
	for _, verb := range state.Verbs {
		sub := tree.Events().On(state.WildcardName(verb), b.record)
		b.subs = append(b.subs, sub)
	}
	return b
}

// Enabled implements ports.Recorder.
func (b *Binding) Enabled() bool { return b.enabled }

// SetEnabled implements ports.Recorder.
func (b *Binding) SetEnabled(enabled bool) { b.enabled = enabled }

// Unbind detaches the binding from the tree. Recorded actions remain on the
// stack but no further mutations are captured.
func (b *Binding) Unbind() {
	for _, sub := range b.subs {
		b.tree.Events().Unbind(sub)
	}
	b.subs = nil
	b.tree.DetachRecorder(b)
}

func (b *Binding) record(_ string, m state.Mutation) {
	if !b.enabled {
		return
	}
	action, ok := b.action(m)
	if !ok {
		b.logger.Warn("unrecordable mutation", "verb", string(m.Verb), "path", m.Path)
		return
	}
	b.stack.Add(action)
}

// action builds the inverse/forward closure pair for a mutation.
func (b *Binding) action(m state.Mutation) (Action, bool) {
	a := Action{Name: b.prefix + m.Path, Combine: b.combine}

	switch m.Verb {
	case state.VerbSet:
		a.Undo = b.replay(func(t *state.Tree) {
			if m.HasOld {
				t.Set(m.Path, m.Old, state.Force())
			} else {
				t.Unset(m.Path)
			}
		})
		a.Redo = b.replay(func(t *state.Tree) {
			t.Set(m.Path, m.Value, state.Force())
		})

	case state.VerbUnset:
		a.Undo = b.replay(func(t *state.Tree) {
			t.Set(m.Path, m.Old, state.Force())
		})
		a.Redo = b.replay(func(t *state.Tree) {
			t.Unset(m.Path)
		})

	case state.VerbInsert:
		a.Undo = b.replay(func(t *state.Tree) {
			t.RemoveValue(m.Path, m.Value)
		})
		a.Redo = b.replay(func(t *state.Tree) {
			t.Insert(m.Path, m.Value, state.AtIndex(m.Index))
		})

	case state.VerbRemove:
		a.Undo = b.replay(func(t *state.Tree) {
			t.Insert(m.Path, m.Value, state.AtIndex(m.Index))
		})
		a.Redo = b.replay(func(t *state.Tree) {
			t.RemoveValue(m.Path, m.Value)
		})

	case state.VerbMove:
		a.Undo = b.replay(func(t *state.Tree) {
			t.Move(m.Path, m.Index, m.OldIndex)
		})
		a.Redo = b.replay(func(t *state.Tree) {
			t.Move(m.Path, m.OldIndex, m.Index)
		})

	default:
		return Action{}, false
	}
	return a, true
}

// replay wraps a mutation in resolution and a silence window: the target is
// resolved at execution time and recording is disabled while the replay
// mutation runs, then restored.
func (b *Binding) replay(fn func(t *state.Tree)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		t := b.resolve()
		if t == nil || t.Destroyed() {
			return ErrNoTarget
		}
		token := t.Silence()
		defer t.Unsilence(token)
		fn(t)
		return nil
	}
}
