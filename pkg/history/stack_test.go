package history_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context) error { return nil }

func action(name string, log *[]string) history.Action {
	return history.Action{
		Name: name,
		Undo: func(ctx context.Context) error {
			*log = append(*log, "undo "+name)
			return nil
		},
		Redo: func(ctx context.Context) error {
			*log = append(*log, "redo "+name)
			return nil
		},
	}
}

func TestStack_AddMovesCursor(t *testing.T) {
	s := history.NewStack()
	var log []string

	assert.Equal(t, -1, s.Cursor())
	assert.False(t, s.CanUndo())

	require.True(t, s.Add(action("a", &log)))
	require.True(t, s.Add(action("b", &log)))

	assert.Equal(t, 1, s.Cursor())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	assert.Equal(t, []string{"a", "b"}, s.Names())
}

func TestStack_RejectsMalformedAction(t *testing.T) {
	s := history.NewStack()

	assert.False(t, s.Add(history.Action{Name: "", Undo: noop, Redo: noop}))
	assert.False(t, s.Add(history.Action{Name: "x", Redo: noop}))
	assert.False(t, s.Add(history.Action{Name: "x", Undo: noop}))
	assert.Equal(t, 0, s.Len())
}

func TestStack_UndoRedoRoundTrip(t *testing.T) {
	s := history.NewStack()
	var log []string
	ctx := context.Background()

	s.Add(action("a", &log))
	s.Add(action("b", &log))

	assert.True(t, s.Undo(ctx))
	assert.True(t, s.Undo(ctx))
	assert.False(t, s.Undo(ctx), "cursor is before the first action")

	assert.True(t, s.Redo(ctx))
	assert.True(t, s.Redo(ctx))
	assert.False(t, s.Redo(ctx), "cursor is at the tail")

	assert.Equal(t, []string{"undo b", "undo a", "redo a", "redo b"}, log)
}

func TestStack_AddAfterUndoDiscardsRedoTail(t *testing.T) {
	s := history.NewStack()
	var log []string
	ctx := context.Background()

	s.Add(action("a", &log))
	s.Add(action("b", &log))
	s.Undo(ctx)

	s.Add(action("c", &log))

	assert.Equal(t, []string{"a", "c"}, s.Names())
	assert.False(t, s.CanRedo())
}

func TestStack_CombineReplacesTopRedoOnly(t *testing.T) {
	s := history.NewStack()
	var log []string
	ctx := context.Background()

	first := action("slider", &log)
	s.Add(first)

	second := history.Action{
		Name:    "slider",
		Combine: true,
		Undo: func(ctx context.Context) error {
			log = append(log, "undo second")
			return nil
		},
		Redo: func(ctx context.Context) error {
			log = append(log, "redo second")
			return nil
		},
	}
	s.Add(second)

	assert.Equal(t, 1, s.Len(), "combined action must not grow the log")

	s.Undo(ctx)
	s.Redo(ctx)
	// Undo stays the original's, Redo is the replacement's.
	assert.Equal(t, []string{"undo slider", "redo second"}, log)
}

func TestStack_CombineDifferentNameAppends(t *testing.T) {
	s := history.NewStack()
	var log []string

	s.Add(action("a", &log))
	c := action("b", &log)
	c.Combine = true
	s.Add(c)

	assert.Equal(t, []string{"a", "b"}, s.Names())
}

func TestStack_InFlightReplayBlocksSecondEntry(t *testing.T) {
	s := history.NewStack()
	ctx := context.Background()

	entered := make(chan struct{})
	unblock := make(chan struct{})

	s.Add(history.Action{
		Name: "slow",
		Undo: func(ctx context.Context) error {
			close(entered)
			<-unblock
			return nil
		},
		Redo: noop,
	})

	done := make(chan struct{})
	go func() {
		s.Undo(ctx)
		close(done)
	}()

	<-entered
	assert.False(t, s.CanUndo(), "replay in flight")
	assert.False(t, s.CanRedo(), "replay in flight")
	assert.False(t, s.Redo(ctx), "second replay must be rejected")

	close(unblock)
	<-done

	assert.True(t, s.CanRedo())
}

func TestStack_ClosureErrorStillMovesCursor(t *testing.T) {
	s := history.NewStack()
	ctx := context.Background()

	s.Add(history.Action{
		Name: "flaky",
		Undo: func(ctx context.Context) error { return assert.AnError },
		Redo: noop,
	})

	assert.True(t, s.Undo(ctx))
	assert.Equal(t, -1, s.Cursor())
	assert.True(t, s.CanRedo(), "slot must be released after a failing closure")
}

func TestStack_ClosurePanicReleasesSlot(t *testing.T) {
	s := history.NewStack()
	ctx := context.Background()

	s.Add(history.Action{
		Name: "boom",
		Undo: func(ctx context.Context) error { panic("boom") },
		Redo: noop,
	})

	assert.NotPanics(t, func() { s.Undo(ctx) })
	assert.True(t, s.CanRedo())
}

func TestStack_Clear(t *testing.T) {
	s := history.NewStack()
	var log []string

	cleared := 0
	s.Events().On(string(history.EventClear), func(name string, ev history.StackEvent) {
		cleared++
	})

	s.Clear()
	assert.Zero(t, cleared, "clearing an empty stack emits nothing")

	s.Add(action("a", &log))
	s.Clear()

	assert.Equal(t, 1, cleared)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, -1, s.Cursor())
	assert.False(t, s.CanUndo())
}

func TestStack_Events(t *testing.T) {
	s := history.NewStack()
	var log []string
	ctx := context.Background()

	var kinds []history.EventKind
	s.Events().On("change", func(name string, ev history.StackEvent) {
		kinds = append(kinds, ev.Kind)
	})

	s.Add(action("a", &log))
	s.Undo(ctx)
	s.Redo(ctx)
	s.Clear()

	assert.Equal(t, []history.EventKind{
		history.EventAdd, history.EventUndo, history.EventRedo, history.EventClear,
	}, kinds)
}

func TestStack_AddAndExecute(t *testing.T) {
	s := history.NewStack()
	ctx := context.Background()

	ran := false
	ok := s.AddAndExecute(ctx, history.Action{
		Name: "apply",
		Undo: noop,
		Redo: func(ctx context.Context) error {
			ran = true
			return nil
		},
	})

	assert.True(t, ok)
	assert.True(t, ran)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.Cursor())
}
