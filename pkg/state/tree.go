package state

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/events"
	"github.com/aretw0/arbor/pkg/ports"
)

// Tree is a hierarchical, path-addressable mutable store.
//
// A Tree node is an insertion-ordered branch: a key list and a key→value map
// that always agree in membership. Values are scalars, arrays ([]any, whose
// map elements are wrapped as child trees), or child *Tree instances (nested
// maps are wrapped on construction or on first Set/Insert).
//
// All mutation is synchronous and single-threaded by contract: the data
// change and its event emission happen within one call, so a listener always
// observes a consistent tree.
type Tree struct {
	channel *events.Channel[Mutation]
	logger  *slog.Logger

	keys   []string
	values map[string]any

	// Non-owning back-reference; ownership flows strictly root→descendant.
	parent *Tree
	// parentKey is set for children stored under a fixed branch key.
	// parentField is set for children embedded in an array under that key;
	// their index is recomputed by identity at every use, since siblings
	// may have shifted.
	parentKey   string
	parentField string

	// Paths (root-relative) exempt from the duplicate-primitive rejection on
	// Insert. Shared by reference with every descendant.
	allowDuplicates map[string]struct{}

	// Recording subsystems toggled as a group by Silence/Unsilence.
	// Only populated on the root.
	recorders []ports.Recorder

	// latest resolves the current instance for history replay after this
	// tree has been destroyed and recreated.
	latest func() *Tree

	destroyed bool
}

// Option configures a Tree at construction.
type Option func(*Tree)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// WithAllowDuplicates exempts the given root-relative array paths from the
// duplicate-primitive rejection on Insert.
func WithAllowDuplicates(paths ...string) Option {
	return func(t *Tree) {
		for _, p := range paths {
			t.allowDuplicates[p] = struct{}{}
		}
	}
}

// WithResolver installs the stable-identity resolver used by history replay.
// Replay closures call it at execution time instead of capturing the tree
// pointer, because an intervening undo may have destroyed and recreated the
// instance.
func WithResolver(resolve func() *Tree) Option {
	return func(t *Tree) {
		t.latest = resolve
	}
}

func withAttachment(parent *Tree, key, field string) Option {
	return func(t *Tree) {
		t.parent = parent
		t.parentKey = key
		t.parentField = field
		t.logger = parent.logger
		t.allowDuplicates = parent.allowDuplicates
	}
}

// New creates a tree from a plain nested value. Nested maps become child
// trees; arrays are shallow-copied with their map elements wrapped. Initial
// loading emits no events.
func New(value map[string]any, opts ...Option) *Tree {
	t := &Tree{
		values:          make(map[string]any),
		allowDuplicates: make(map[string]struct{}),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.channel = events.New(events.WithLogger[Mutation](t.logger))
	if t.latest == nil {
		t.latest = func() *Tree { return t }
	}

	for _, k := range sortedKeys(value) {
		t.loadKey(k, value[k])
	}
	return t
}

func (t *Tree) loadKey(k string, v any) {
	switch val := v.(type) {
	case map[string]any:
		t.values[k] = t.newChild(k, val)
	case []any:
		t.values[k] = t.wrapArray(k, val)
	default:
		t.values[k] = val
	}
	t.keys = append(t.keys, k)
}

// newChild wraps a nested map as a child tree stored under a fixed key and
// hooks upward event forwarding.
func (t *Tree) newChild(key string, value map[string]any) *Tree {
	child := New(value, withAttachment(t, key, ""))
	t.adopt(child)
	return child
}

// newArrayChild wraps a map embedded in the array stored under field.
func (t *Tree) newArrayChild(field string, value map[string]any) *Tree {
	child := New(value, withAttachment(t, "", field))
	t.adopt(child)
	return child
}

// wrapArray shallow-copies an incoming slice, wrapping top-level map elements
// as array-embedded children. Nested slices are copied as plain values.
func (t *Tree) wrapArray(field string, src []any) []any {
	out := make([]any, len(src))
	for i, el := range src {
		if m, ok := el.(map[string]any); ok {
			out[i] = t.newArrayChild(field, m)
			continue
		}
		out[i] = el
	}
	return out
}

// adopt forwards the child's wildcard events upward with the path rewritten
// through the child's resolved position. The resolution happens per event,
// not at adoption time, because array members shift index.
func (t *Tree) adopt(child *Tree) {
	for _, verb := range Verbs {
		child.channel.On(WildcardName(verb), func(_ string, m Mutation) {
			key, ok := child.resolveKey()
			if !ok {
				return
			}
			m.Path = joinPath(key, m.Path)
			t.emit(m)
		})
	}
}

// resolveKey computes this tree's key within its parent at the moment of
// use: the fixed parentKey, or "<field>.<index>" for array members with the
// index found by identity lookup.
func (t *Tree) resolveKey() (string, bool) {
	if t.parent == nil {
		return "", false
	}
	if t.parentField == "" {
		return t.parentKey, true
	}
	arr, _ := t.parent.values[t.parentField].([]any)
	for i, el := range arr {
		if el == any(t) {
			return t.parentField + "." + strconv.Itoa(i), true
		}
	}
	return "", false
}

func (t *Tree) emit(m Mutation) {
	t.channel.Emit(EventName(m.Path, m.Verb), m)
	t.channel.Emit(WildcardName(m.Verb), m)
}

// Events exposes the tree's event channel. Subscribe on the root to observe
// the entire tree: descendants forward their events upward with rewritten
// paths.
func (t *Tree) Events() *events.Channel[Mutation] {
	return t.channel
}

// Root walks the parent chain to the topmost tree.
func (t *Tree) Root() *Tree {
	for t.parent != nil {
		t = t.parent
	}
	return t
}

// Parent returns the non-owning parent back-reference, nil at the root.
func (t *Tree) Parent() *Tree {
	return t.parent
}

// Path returns the dotted root-relative path of this tree, recomputed live
// (array members resolve their current index). Empty at the root.
func (t *Tree) Path() string {
	if t.parent == nil {
		return ""
	}
	key, ok := t.resolveKey()
	if !ok {
		return ""
	}
	return joinPath(t.parent.Path(), key)
}

// Latest resolves the current instance for this tree's identity. Defaults to
// the receiver; see WithResolver.
func (t *Tree) Latest() *Tree {
	return t.latest()
}

// Keys returns a copy of the branch's key list in insertion order.
func (t *Tree) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Destroyed reports whether this tree has been detached and torn down.
func (t *Tree) Destroyed() bool {
	return t.destroyed
}

// AttachRecorder registers a recording subsystem on the root so silence
// windows can toggle it.
func (t *Tree) AttachRecorder(r ports.Recorder) {
	root := t.Root()
	root.recorders = append(root.recorders, r)
}

// DetachRecorder removes a previously attached recorder.
func (t *Tree) DetachRecorder(r ports.Recorder) {
	root := t.Root()
	for i, rec := range root.recorders {
		if rec == r {
			root.recorders = append(root.recorders[:i:i], root.recorders[i+1:]...)
			return
		}
	}
}

// SilenceToken captures recorder states so Unsilence can restore them.
type SilenceToken map[ports.Recorder]bool

// Silence disables every recorder attached to the root and returns a token
// holding their prior states. Events still emit during a silence window;
// only recording is suppressed.
func (t *Tree) Silence() SilenceToken {
	token := make(SilenceToken)
	for _, r := range t.Root().recorders {
		token[r] = r.Enabled()
		r.SetEnabled(false)
	}
	return token
}

// Unsilence restores recorder states captured by Silence.
func (t *Tree) Unsilence(token SilenceToken) {
	for r, enabled := range token {
		r.SetEnabled(enabled)
	}
}

// Destroy detaches this tree: the parent link is cleared, all listeners are
// unbound, and every descendant tree is destroyed. Mutations on a destroyed
// tree are no-ops.
func (t *Tree) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.parent = nil
	t.parentKey, t.parentField = "", ""
	t.channel.Reset()
	for _, k := range t.keys {
		switch v := t.values[k].(type) {
		case *Tree:
			v.Destroy()
		case []any:
			for _, el := range v {
				if et, ok := el.(*Tree); ok {
					et.Destroy()
				}
			}
		}
	}
}

// GetRaw returns the internal value at path without serialization: a scalar,
// a []any (possibly holding child trees), or a *Tree. The empty path returns
// the tree itself.
func (t *Tree) GetRaw(path string) (any, bool) {
	if path == "" {
		return t, true
	}
	var cur any = t
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case *Tree:
			next, ok := v.values[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Get returns the serialized value at path. Traversal through a missing
// intermediate segment yields ok=false, never an error.
func (t *Tree) Get(path string) (any, bool) {
	v, ok := t.GetRaw(path)
	if !ok {
		return nil, false
	}
	return Serialize(v), true
}

// Has reports whether path resolves, with the same traversal rules as Get.
func (t *Tree) Has(path string) bool {
	_, ok := t.GetRaw(path)
	return ok
}

// Serialize materializes the whole tree into plain nested containers, in key
// insertion order for event enumeration but returned as an ordinary map.
func (t *Tree) Serialize() map[string]any {
	out := make(map[string]any, len(t.keys))
	for _, k := range t.keys {
		out[k] = Serialize(t.values[k])
	}
	return out
}
