package collection

import (
	"io"
	"log/slog"

	"github.com/aretw0/arbor/pkg/events"
	"github.com/aretw0/arbor/pkg/state"
)

// ItemEvent is the payload of the list's "add" and "remove" notifications.
type ItemEvent struct {
	Item  any
	Index int
}

// List is an ordered collection of tree or map items with optional secondary
// lookup and ordering.
//
// Modes compose from construction options: WithKeyField enables indexed mode
// (a key→item map read through a uniform accessor, duplicate keys rejected);
// WithComparator enables sorted mode (binary-search insertion). Without
// either, the list is plain ordered with append insertion and duplicate
// rejection by reference.
//
// The list tracks membership and position only; it never owns an item's
// lifecycle.
type List struct {
	items    []any
	index    map[any]any
	keyField string
	cmp      func(a, b any) int
	channel  *events.Channel[ItemEvent]
	logger   *slog.Logger
}

// ListOption configures a List.
type ListOption func(*List)

// WithKeyField enables indexed mode: items are additionally tracked in a
// key→item map, keyed by the named field. Items missing the field and items
// whose key is already present are rejected by Add.
func WithKeyField(field string) ListOption {
	return func(l *List) {
		l.keyField = field
		l.index = make(map[any]any)
	}
}

// WithComparator enables sorted mode. cmp follows the usual contract:
// negative when a orders before b, zero when equal, positive otherwise.
func WithComparator(cmp func(a, b any) int) ListOption {
	return func(l *List) {
		l.cmp = cmp
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) ListOption {
	return func(l *List) {
		l.logger = logger
	}
}

// NewList creates an empty list.
func NewList(opts ...ListOption) *List {
	l := &List{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.channel = events.New(events.WithLogger[ItemEvent](l.logger))
	return l
}

// Events exposes the list's "add"/"remove" channel.
func (l *List) Events() *events.Channel[ItemEvent] {
	return l.channel
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.items)
}

// At returns the item at position i.
func (l *List) At(i int) (any, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

// Items returns a copy of the ordered item slice.
func (l *List) Items() []any {
	return append([]any(nil), l.items...)
}

// keyOf reads the designated key field out of an item through the uniform
// accessor: tree items via path lookup, map items via key lookup.
func (l *List) keyOf(item any) (any, bool) {
	if l.keyField == "" {
		return nil, false
	}
	switch it := item.(type) {
	case *state.Tree:
		return it.Get(l.keyField)
	case map[string]any:
		k, ok := it[l.keyField]
		return k, ok
	default:
		return nil, false
	}
}

// Add inserts an item: at the binary-search position in sorted mode,
// appended otherwise. Duplicates are rejected, by key in indexed mode and by
// reference otherwise. Returns false on rejection.
func (l *List) Add(item any) bool {
	if l.index != nil {
		key, ok := l.keyOf(item)
		if !ok {
			l.logger.Warn("rejecting item without key field", "field", l.keyField)
			return false
		}
		if _, dup := l.index[key]; dup {
			return false
		}
		l.index[key] = item
	} else if l.contains(item) {
		return false
	}

	i := len(l.items)
	if l.cmp != nil {
		if p := l.PositionNextClosest(item); p >= 0 {
			i = p
		}
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = item

	l.channel.Emit("add", ItemEvent{Item: item, Index: i})
	return true
}

func (l *List) contains(item any) bool {
	for _, el := range l.items {
		if el == item {
			return true
		}
	}
	return false
}

// Has reports membership: by key in indexed mode, by reference otherwise.
func (l *List) Has(item any) bool {
	if l.index != nil {
		key, ok := l.keyOf(item)
		if !ok {
			return false
		}
		_, present := l.index[key]
		return present
	}
	return l.contains(item)
}

// Get looks an item up by key. Only meaningful in indexed mode.
func (l *List) Get(key any) (any, bool) {
	if l.index == nil {
		return nil, false
	}
	item, ok := l.index[key]
	return item, ok
}

// Position locates value by exact binary search under the list comparator.
// Returns −1 when absent or when the list is not sorted.
func (l *List) Position(value any) int {
	if l.cmp == nil {
		return -1
	}
	lo, hi := 0, len(l.items)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch c := l.cmp(l.items[mid], value); {
		case c == 0:
			return mid
		case c < 0:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1
}

// PositionNextClosest returns the insertion point for a value under the list
// comparator: 0 when it orders before every element, −1 when it orders after
// every element (append signal), the comparator-driven midpoint otherwise.
func (l *List) PositionNextClosest(value any) int {
	if l.cmp == nil || len(l.items) == 0 {
		return -1
	}
	if l.cmp(value, l.items[0]) <= 0 {
		return 0
	}
	if l.cmp(value, l.items[len(l.items)-1]) > 0 {
		return -1
	}
	lo, hi := 0, len(l.items)
	for lo < hi {
		mid := (lo + hi) / 2
		if l.cmp(l.items[mid], value) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Remove drops the item, located by reference. Returns false when absent.
func (l *List) Remove(item any) bool {
	for i, el := range l.items {
		if el == item {
			l.removeAt(i)
			return true
		}
	}
	return false
}

// RemoveByKey drops the item registered under key in indexed mode.
func (l *List) RemoveByKey(key any) bool {
	if l.index == nil {
		return false
	}
	item, ok := l.index[key]
	if !ok {
		return false
	}
	return l.Remove(item)
}

// RemoveBy drops every item matching the predicate and returns how many were
// removed.
func (l *List) RemoveBy(pred func(item any) bool) int {
	n := 0
	for i := 0; i < len(l.items); {
		if pred(l.items[i]) {
			l.removeAt(i)
			n++
			continue
		}
		i++
	}
	return n
}

// removeAt splices position i out and keeps the secondary index consistent.
func (l *List) removeAt(i int) {
	item := l.items[i]
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	if l.index != nil {
		if key, ok := l.keyOf(item); ok {
			delete(l.index, key)
		}
	}
	l.channel.Emit("remove", ItemEvent{Item: item, Index: i})
}
