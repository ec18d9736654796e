package history_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/history"
	"github.com/aretw0/arbor/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinding_RecordsSet(t *testing.T) {
	tree := state.New(map[string]any{"color": "red"})
	stack := history.NewStack()
	history.Bind(tree, stack)

	tree.Set("color", "blue")

	require.Equal(t, 1, stack.Len())
	assert.Equal(t, []string{"color"}, stack.Names())
}

func TestBinding_UndoRestoresOldValue(t *testing.T) {
	tree := state.New(map[string]any{"color": "red"})
	stack := history.NewStack()
	history.Bind(tree, stack)
	ctx := context.Background()

	tree.Set("color", "blue")

	require.True(t, stack.Undo(ctx))
	v, _ := tree.Get("color")
	assert.Equal(t, "red", v)

	require.True(t, stack.Redo(ctx))
	v, _ = tree.Get("color")
	assert.Equal(t, "blue", v)
}

func TestBinding_UndoOfFreshSetUnsets(t *testing.T) {
	tree := state.New(nil)
	stack := history.NewStack()
	history.Bind(tree, stack)
	ctx := context.Background()

	tree.Set("color", "blue")
	require.True(t, stack.Undo(ctx))

	assert.False(t, tree.Has("color"))
}

func TestBinding_UndoOfUnsetRestores(t *testing.T) {
	tree := state.New(map[string]any{"color": "red"})
	stack := history.NewStack()
	history.Bind(tree, stack)
	ctx := context.Background()

	tree.Unset("color")
	require.False(t, tree.Has("color"))

	require.True(t, stack.Undo(ctx))
	v, ok := tree.Get("color")
	require.True(t, ok)
	assert.Equal(t, "red", v)
}

func TestBinding_ReplayDoesNotRecordItself(t *testing.T) {
	tree := state.New(map[string]any{"color": "red"})
	stack := history.NewStack()
	history.Bind(tree, stack)
	ctx := context.Background()

	tree.Set("color", "blue")
	require.Equal(t, 1, stack.Len())

	stack.Undo(ctx)
	stack.Redo(ctx)

	assert.Equal(t, 1, stack.Len(), "replay mutations must not append actions")
	assert.Equal(t, 0, stack.Cursor())
}

func TestBinding_InsertRoundTrip(t *testing.T) {
	tree := state.New(map[string]any{"tags": []any{"a", "c"}})
	stack := history.NewStack()
	history.Bind(tree, stack)
	ctx := context.Background()

	tree.Insert("tags", "b", state.AtIndex(1))
	v, _ := tree.Get("tags")
	require.Equal(t, []any{"a", "b", "c"}, v)

	stack.Undo(ctx)
	v, _ = tree.Get("tags")
	assert.Equal(t, []any{"a", "c"}, v)

	stack.Redo(ctx)
	v, _ = tree.Get("tags")
	assert.Equal(t, []any{"a", "b", "c"}, v)
}

func TestBinding_RemoveRoundTrip(t *testing.T) {
	tree := state.New(map[string]any{"tags": []any{"a", "b", "c"}})
	stack := history.NewStack()
	history.Bind(tree, stack)
	ctx := context.Background()

	tree.Remove("tags", 1)
	v, _ := tree.Get("tags")
	require.Equal(t, []any{"a", "c"}, v)

	stack.Undo(ctx)
	v, _ = tree.Get("tags")
	assert.Equal(t, []any{"a", "b", "c"}, v, "undo reinserts at the original index")

	stack.Redo(ctx)
	v, _ = tree.Get("tags")
	assert.Equal(t, []any{"a", "c"}, v)
}

func TestBinding_MoveRoundTrip(t *testing.T) {
	tree := state.New(map[string]any{"tags": []any{"a", "b", "c"}})
	stack := history.NewStack()
	history.Bind(tree, stack)
	ctx := context.Background()

	tree.Move("tags", 0, 2)
	v, _ := tree.Get("tags")
	require.Equal(t, []any{"b", "c", "a"}, v)

	stack.Undo(ctx)
	v, _ = tree.Get("tags")
	assert.Equal(t, []any{"a", "b", "c"}, v)

	stack.Redo(ctx)
	v, _ = tree.Get("tags")
	assert.Equal(t, []any{"b", "c", "a"}, v)
}

func TestBinding_NestedPathRecordedRootRelative(t *testing.T) {
	tree := state.New(map[string]any{
		"scene": map[string]any{"camera": map[string]any{"fov": 45}},
	})
	stack := history.NewStack()
	history.Bind(tree, stack)
	ctx := context.Background()

	tree.Set("scene.camera.fov", 60)
	assert.Equal(t, []string{"scene.camera.fov"}, stack.Names())

	stack.Undo(ctx)
	v, _ := tree.Get("scene.camera.fov")
	assert.Equal(t, 45, v)
}

func TestBinding_Prefix(t *testing.T) {
	tree := state.New(nil)
	stack := history.NewStack()
	history.Bind(tree, stack, history.WithPrefix("doc/"))

	tree.Set("color", "blue")

	assert.Equal(t, []string{"doc/color"}, stack.Names())
}

func TestBinding_CombineCoalescesSamePath(t *testing.T) {
	tree := state.New(map[string]any{"x": 0})
	stack := history.NewStack()
	history.Bind(tree, stack, history.WithCombine())
	ctx := context.Background()

	tree.Set("x", 1)
	tree.Set("x", 2)
	tree.Set("x", 3)

	require.Equal(t, 1, stack.Len())

	stack.Undo(ctx)
	v, _ := tree.Get("x")
	assert.Equal(t, 0, v, "undoing the combined step restores the first old value")

	stack.Redo(ctx)
	v, _ = tree.Get("x")
	assert.Equal(t, 3, v, "redo replays the last write")
}

func TestBinding_DisabledRecorderSkipsRecording(t *testing.T) {
	tree := state.New(nil)
	stack := history.NewStack()
	b := history.Bind(tree, stack)

	b.SetEnabled(false)
	tree.Set("color", "blue")
	assert.Equal(t, 0, stack.Len())

	b.SetEnabled(true)
	tree.Set("color", "green")
	assert.Equal(t, 1, stack.Len())
}

func TestBinding_SilentMutationNotRecorded(t *testing.T) {
	tree := state.New(nil)
	stack := history.NewStack()
	history.Bind(tree, stack)

	fired := false
	tree.Events().On("color:set", func(name string, m state.Mutation) {
		fired = true
	})

	tree.Set("color", "blue", state.Silent())

	assert.True(t, fired, "silence suppresses recording, not events")
	assert.Equal(t, 0, stack.Len())
}

func TestBinding_UnbindStopsRecording(t *testing.T) {
	tree := state.New(nil)
	stack := history.NewStack()
	b := history.Bind(tree, stack)

	tree.Set("a", 1)
	b.Unbind()
	tree.Set("b", 2)

	assert.Equal(t, []string{"a"}, stack.Names())
}

func TestBinding_ReplayAgainstRecreatedTree(t *testing.T) {
	// The resolver indirection: history closures must find the current
	// instance even after the original tree was torn down and rebuilt.
	var current *state.Tree
	resolve := func() *state.Tree { return current }

	current = state.New(map[string]any{"color": "red"}, state.WithResolver(resolve))
	stack := history.NewStack()
	history.Bind(current, stack)
	ctx := context.Background()

	current.Set("color", "blue")

	snapshot := current.Serialize()
	current.Destroy()
	current = state.New(snapshot, state.WithResolver(resolve))

	require.True(t, stack.Undo(ctx))
	v, _ := current.Get("color")
	assert.Equal(t, "red", v)
}

func TestBinding_ReplayWithoutTargetFails(t *testing.T) {
	tree := state.New(nil)
	stack := history.NewStack()
	history.Bind(tree, stack)
	ctx := context.Background()

	tree.Set("color", "blue")
	tree.Destroy()

	// The closure errors internally; the cursor still moves.
	assert.True(t, stack.Undo(ctx))
	assert.Equal(t, -1, stack.Cursor())
}
