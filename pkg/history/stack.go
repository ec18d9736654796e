package history

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/arbor/pkg/events"
)

// Action is a named, reversible closure pair. Closures may perform
// asynchronous work (I/O through external collaborators); the stack
// serializes their execution.
type Action struct {
	Name string
	// Combine merges this action into the current top action when the names
	// match, replacing only the top's Redo closure. Used to coalesce rapid
	// successive edits of the same path into a single undo step.
	Combine bool
	Undo    func(ctx context.Context) error
	Redo    func(ctx context.Context) error
}

// EventKind classifies stack change notifications.
type EventKind string

const (
	EventAdd   EventKind = "add"
	EventUndo  EventKind = "undo"
	EventRedo  EventKind = "redo"
	EventClear EventKind = "clear"
)

// StackEvent is emitted whenever the stack changes shape or the cursor moves.
type StackEvent struct {
	Kind   EventKind
	Name   string
	Cursor int
	Length int
}

// Stack is a linear, cursor-based undo/redo log.
//
// The cursor points at the "current" action (−1 before the first). Undo and
// Redo move the cursor and invoke the stored closure under a size-1
// in-flight slot: while a replay is running, CanUndo and CanRedo both report
// false, so a second invocation is rejected at the guard instead of
// corrupting the cursor.
type Stack struct {
	mu      sync.Mutex
	actions []*Action
	cursor  int

	// slot is the in-flight guard: at most one undo/redo executes at a time.
	slot chan struct{}

	channel *events.Channel[StackEvent]
	logger  *slog.Logger
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) StackOption {
	return func(s *Stack) {
		s.logger = logger
	}
}

// NewStack creates an empty history stack.
func NewStack(opts ...StackOption) *Stack {
	s := &Stack{
		cursor: -1,
		slot:   make(chan struct{}, 1),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.channel = events.New(events.WithLogger[StackEvent](s.logger))
	return s
}

// Events exposes the stack's change channel. Every event is emitted under
// its kind name and under "change".
func (s *Stack) Events() *events.Channel[StackEvent] {
	return s.channel
}

// Len returns the number of recorded actions.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions)
}

// Cursor returns the index of the current action, −1 when before the first.
func (s *Stack) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Names returns the action names in log order.
func (s *Stack) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.actions))
	for i, a := range s.actions {
		names[i] = a.Name
	}
	return names
}

// CanUndo reports whether Undo would act. Always false while a replay is in
// flight.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor >= 0 && len(s.slot) == 0
}

// CanRedo reports whether Redo would act. Always false while a replay is in
// flight.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor < len(s.actions)-1 && len(s.slot) == 0
}

// Add appends an action. Actions missing a name or either closure are
// rejected (logged, returns false). If earlier undos left the cursor behind
// the tail, the alternate future is discarded. A Combine action whose name
// matches the current top replaces only the top's Redo closure.
func (s *Stack) Add(action Action) bool {
	if action.Name == "" || action.Undo == nil || action.Redo == nil {
		s.logger.Error("rejecting malformed history action", "name", action.Name)
		return false
	}

	s.mu.Lock()
	if s.cursor < len(s.actions)-1 {
		s.actions = s.actions[:s.cursor+1]
	}
	if action.Combine && s.cursor >= 0 && s.actions[s.cursor].Name == action.Name {
		s.actions[s.cursor].Redo = action.Redo
		cursor, length := s.cursor, len(s.actions)
		s.mu.Unlock()
		s.emit(StackEvent{Kind: EventAdd, Name: action.Name, Cursor: cursor, Length: length})
		return true
	}
	s.actions = append(s.actions, &action)
	s.cursor = len(s.actions) - 1
	cursor, length := s.cursor, len(s.actions)
	s.mu.Unlock()

	s.emit(StackEvent{Kind: EventAdd, Name: action.Name, Cursor: cursor, Length: length})
	return true
}

// AddAndExecute appends the action and immediately runs its Redo closure
// under the same in-flight discipline as Redo.
func (s *Stack) AddAndExecute(ctx context.Context, action Action) bool {
	if !s.Add(action) {
		return false
	}
	if !s.acquire() {
		// An in-flight replay is running; the action stays recorded but its
		// effect must be applied by the caller retrying Redo.
		s.logger.Warn("history busy, recorded action without executing", "name", action.Name)
		return false
	}
	s.run(ctx, action.Redo, action.Name, "redo")
	return true
}

// Undo moves the cursor back and invokes the current action's Undo closure.
// Returns false when there is nothing to undo or a replay is in flight.
func (s *Stack) Undo(ctx context.Context) bool {
	if !s.acquire() {
		return false
	}

	s.mu.Lock()
	if s.cursor < 0 {
		s.mu.Unlock()
		s.release()
		return false
	}
	action := s.actions[s.cursor]
	s.cursor--
	cursor, length := s.cursor, len(s.actions)
	s.mu.Unlock()

	s.run(ctx, action.Undo, action.Name, "undo")
	s.emit(StackEvent{Kind: EventUndo, Name: action.Name, Cursor: cursor, Length: length})
	return true
}

// Redo advances the cursor and invokes the next action's Redo closure.
// Returns false when there is nothing to redo or a replay is in flight.
func (s *Stack) Redo(ctx context.Context) bool {
	if !s.acquire() {
		return false
	}

	s.mu.Lock()
	if s.cursor >= len(s.actions)-1 {
		s.mu.Unlock()
		s.release()
		return false
	}
	s.cursor++
	action := s.actions[s.cursor]
	cursor, length := s.cursor, len(s.actions)
	s.mu.Unlock()

	s.run(ctx, action.Redo, action.Name, "redo")
	s.emit(StackEvent{Kind: EventRedo, Name: action.Name, Cursor: cursor, Length: length})
	return true
}

// Clear empties the log. Emits only when there was something to clear.
func (s *Stack) Clear() {
	s.mu.Lock()
	if len(s.actions) == 0 {
		s.mu.Unlock()
		return
	}
	s.actions = nil
	s.cursor = -1
	s.mu.Unlock()

	s.emit(StackEvent{Kind: EventClear, Cursor: -1})
}

func (s *Stack) acquire() bool {
	select {
	case s.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Stack) release() {
	<-s.slot
}

// run invokes a replay closure with guaranteed slot release: neither an
// error nor a panic may leave the stack locked.
func (s *Stack) run(ctx context.Context, fn func(context.Context) error, name, op string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("history closure panicked", "action", name, "op", op, "panic", r)
		}
		s.release()
	}()
	if err := fn(ctx); err != nil {
		s.logger.Error("history closure failed", "action", name, "op", op, "err", err)
	}
}

func (s *Stack) emit(ev StackEvent) {
	s.channel.Emit(string(ev.Kind), ev)
	s.channel.Emit("change", ev)
}
