package state_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_SetGet(t *testing.T) {
	tree := state.New(nil)

	assert.True(t, tree.Set("name", "cube"))

	got, ok := tree.Get("name")
	require.True(t, ok)
	assert.Equal(t, "cube", got)
}

func TestTree_AutoCreateIntermediates(t *testing.T) {
	tree := state.New(nil)

	assert.True(t, tree.Set("a.b.c", 42))

	got, ok := tree.Get("a.b.c")
	require.True(t, ok)
	assert.Equal(t, 42, got)
	assert.True(t, tree.Has("a.b"))
}

func TestTree_GetMissing(t *testing.T) {
	tree := state.New(map[string]any{"a": map[string]any{"b": 1}})

	_, ok := tree.Get("a.x.y")
	assert.False(t, ok)
	assert.False(t, tree.Has("a.x"))
	assert.False(t, tree.Unset("a.x"))
}

func TestTree_SetNoOpOnEqualValue(t *testing.T) {
	tree := state.New(map[string]any{"count": 7})

	events := 0
	tree.Events().On(state.WildcardName(state.VerbSet), func(name string, m state.Mutation) {
		events++
	})

	assert.False(t, tree.Set("count", 7), "value-equal set must be a no-op")
	assert.Zero(t, events)

	assert.True(t, tree.Set("count", 7, state.Force()), "force must emit even when unchanged")
	assert.Equal(t, 1, events)
}

// Scenario from the event contract: tree {a:{b:1}}, subscribe to "a.b:set",
// set a.b to 2.
func TestTree_TargetedEvent(t *testing.T) {
	tree := state.New(map[string]any{"a": map[string]any{"b": 1}})

	var got []state.Mutation
	tree.Events().On("a.b:set", func(name string, m state.Mutation) {
		got = append(got, m)
	})

	assert.True(t, tree.Set("a.b", 2))

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Value)
	assert.Equal(t, 1, got[0].Old)
	assert.True(t, got[0].HasOld)
	assert.False(t, got[0].Remote)

	v, _ := tree.Get("a.b")
	assert.Equal(t, 2, v)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": 2}}, tree.Serialize())
}

func TestTree_WildcardEventCarriesPath(t *testing.T) {
	tree := state.New(map[string]any{"a": map[string]any{"b": 1}})

	var paths []string
	tree.Events().On(state.WildcardName(state.VerbSet), func(name string, m state.Mutation) {
		paths = append(paths, m.Path)
	})

	tree.Set("a.b", 2)
	tree.Set("top", true)

	assert.Equal(t, []string{"a.b", "top"}, paths)
}

func TestTree_RemoteFlagForwarded(t *testing.T) {
	tree := state.New(map[string]any{"a": map[string]any{"b": 1}})

	var remote bool
	tree.Events().On("a.b:set", func(name string, m state.Mutation) {
		remote = m.Remote
	})

	tree.Set("a.b", 2, state.Remote())
	assert.True(t, remote)
}

func TestTree_UnsetRecursive(t *testing.T) {
	tree := state.New(map[string]any{
		"a": map[string]any{
			"b": 1,
			"c": map[string]any{"d": 2},
		},
	})

	var order []string
	for _, verb := range state.Verbs {
		tree.Events().On(state.WildcardName(verb), func(name string, m state.Mutation) {
			order = append(order, m.Path)
		})
	}

	assert.True(t, tree.Unset("a"))

	// Descendants first, reverse insertion order at each level.
	assert.Equal(t, []string{"a.c.d", "a.c", "a.b", "a"}, order)
	assert.False(t, tree.Has("a"))
}

func TestTree_UnsetReturnsOldValue(t *testing.T) {
	tree := state.New(map[string]any{"a": map[string]any{"b": 1}})

	var old any
	tree.Events().On("a:unset", func(name string, m state.Mutation) {
		old = m.Old
	})

	tree.Unset("a")
	assert.Equal(t, map[string]any{"b": 1}, old)
}

func TestTree_SerializeRoundTrip(t *testing.T) {
	src := map[string]any{
		"name": "scene",
		"camera": map[string]any{
			"fov":      45.0,
			"position": []any{0.0, 1.5, 4.0},
		},
		"objects": []any{
			map[string]any{"id": "cube", "visible": true},
			map[string]any{"id": "light"},
		},
	}

	tree := state.New(src)
	out := tree.Serialize()
	assert.Equal(t, src, out)

	again := state.New(out)
	assert.Equal(t, out, again.Serialize())
}

func TestTree_TypeChangeUnsetsThenSets(t *testing.T) {
	tree := state.New(map[string]any{"a": 1})

	var verbs []state.Verb
	for _, verb := range state.Verbs {
		tree.Events().On(state.WildcardName(verb), func(name string, m state.Mutation) {
			verbs = append(verbs, m.Verb)
		})
	}

	assert.True(t, tree.Set("a", map[string]any{"b": 2}))

	assert.Equal(t, []state.Verb{state.VerbUnset, state.VerbSet}, verbs)
	v, _ := tree.Get("a.b")
	assert.Equal(t, 2, v)
}

func TestTree_PatchRemoveMissing(t *testing.T) {
	tree := state.New(map[string]any{"keep": 1, "drop": 2})

	changed := tree.Patch(map[string]any{"keep": 1, "added": 3}, true)

	assert.True(t, changed)
	assert.False(t, tree.Has("drop"))
	v, _ := tree.Get("added")
	assert.Equal(t, 3, v)
	v, _ = tree.Get("keep")
	assert.Equal(t, 1, v)
}

func TestTree_DestroyedTreeRejectsMutation(t *testing.T) {
	tree := state.New(map[string]any{"a": map[string]any{"b": 1}})

	raw, ok := tree.GetRaw("a")
	require.True(t, ok)
	child := raw.(*state.Tree)

	tree.Unset("a")

	assert.True(t, child.Destroyed())
	assert.Nil(t, child.Parent())
	assert.False(t, child.Set("b", 2))
}

func TestTree_PathResolution(t *testing.T) {
	tree := state.New(map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}},
	})

	raw, ok := tree.GetRaw("a.b")
	require.True(t, ok)
	child := raw.(*state.Tree)

	assert.Equal(t, "a.b", child.Path())
	assert.Equal(t, "", tree.Path())
	assert.Same(t, tree, child.Root())
}

type fakeRecorder struct {
	enabled bool
}

func (r *fakeRecorder) Enabled() bool           { return r.enabled }
func (r *fakeRecorder) SetEnabled(enabled bool) { r.enabled = enabled }

func TestTree_SilenceRestoresRecorderState(t *testing.T) {
	tree := state.New(nil)
	on := &fakeRecorder{enabled: true}
	off := &fakeRecorder{enabled: false}
	tree.AttachRecorder(on)
	tree.AttachRecorder(off)

	token := tree.Silence()
	assert.False(t, on.Enabled())
	assert.False(t, off.Enabled())

	tree.Unsilence(token)
	assert.True(t, on.Enabled())
	assert.False(t, off.Enabled(), "previously disabled recorder must stay disabled")
}

func TestTree_SilentOptionStillEmits(t *testing.T) {
	tree := state.New(nil)
	rec := &fakeRecorder{enabled: true}
	tree.AttachRecorder(rec)

	emitted := 0
	disabledDuringEmit := false
	tree.Events().On("x:set", func(name string, m state.Mutation) {
		emitted++
		disabledDuringEmit = !rec.Enabled()
	})

	tree.Set("x", 1, state.Silent())

	assert.Equal(t, 1, emitted, "silent mutations still emit events")
	assert.True(t, disabledDuringEmit, "recorders are off inside the silence window")
	assert.True(t, rec.Enabled(), "recorder state restored afterwards")
}
