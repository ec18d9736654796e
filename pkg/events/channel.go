package events

import (
	"io"
	"log/slog"
	"sync"
)

// Handler receives the event name it was dispatched under and the payload.
// The name is passed explicitly because a single handler may be bound to
// several names (e.g. wildcard names).
type Handler[T any] func(name string, payload T)

// Subscription is the handle returned by On/Once. It is the only way to
// unbind a specific handler, since function values are not comparable.
type Subscription[T any] struct {
	name    string
	handler Handler[T]
	once    bool
	active  bool
}

// Name returns the event name this subscription is bound to.
func (s *Subscription[T]) Name() string { return s.name }

// Channel is a named publish/subscribe primitive.
//
// Dispatch is synchronous: Emit invokes every matching handler before
// returning. The handler list is snapshotted before iteration, so a handler
// may unbind itself (or others) and register new handlers without corrupting
// the in-progress dispatch. Handlers registered during a dispatch do not
// receive the event that triggered their registration.
type Channel[T any] struct {
	mu        sync.Mutex
	handlers  map[string][]*Subscription[T]
	emitters  []*Channel[T]
	suspended bool
	logger    *slog.Logger
}

// Option configures a Channel.
type Option[T any] func(*Channel[T])

// WithLogger sets the logger used to report recovered handler panics.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(c *Channel[T]) {
		c.logger = logger
	}
}

// New creates an empty channel.
func New[T any](opts ...Option[T]) *Channel[T] {
	c := &Channel[T]{
		handlers: make(map[string][]*Subscription[T]),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// On registers a handler for the given event name.
func (c *Channel[T]) On(name string, fn Handler[T]) *Subscription[T] {
	return c.subscribe(name, fn, false)
}

// Once registers a handler that is unbound after its first invocation.
func (c *Channel[T]) Once(name string, fn Handler[T]) *Subscription[T] {
	return c.subscribe(name, fn, true)
}

func (c *Channel[T]) subscribe(name string, fn Handler[T], once bool) *Subscription[T] {
	sub := &Subscription[T]{name: name, handler: fn, once: once, active: true}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = append(c.handlers[name], sub)
	return sub
}

// Unbind removes a single subscription. Unbinding twice is a no-op.
func (c *Channel[T]) Unbind(sub *Subscription[T]) {
	if sub == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(sub)
}

// UnbindAll removes every handler bound to the given name.
func (c *Channel[T]) UnbindAll(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.handlers[name] {
		sub.active = false
	}
	delete(c.handlers, name)
}

// Reset removes all handlers and forward targets.
func (c *Channel[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, subs := range c.handlers {
		for _, sub := range subs {
			sub.active = false
		}
	}
	c.handlers = make(map[string][]*Subscription[T])
	c.emitters = nil
}

func (c *Channel[T]) remove(sub *Subscription[T]) {
	sub.active = false
	subs := c.handlers[sub.name]
	for i, s := range subs {
		if s == sub {
			c.handlers[sub.name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(c.handlers[sub.name]) == 0 {
		delete(c.handlers, sub.name)
	}
}

// AddEmitter attaches a secondary channel that receives every emission.
func (c *Channel[T]) AddEmitter(target *Channel[T]) {
	if target == nil || target == c {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitters = append(c.emitters, target)
}

// RemoveEmitter detaches a previously attached forward target.
func (c *Channel[T]) RemoveEmitter(target *Channel[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.emitters {
		if e == target {
			c.emitters = append(c.emitters[:i:i], c.emitters[i+1:]...)
			return
		}
	}
}

// Suspend makes Emit drop events. Events are not queued for later delivery.
func (c *Channel[T]) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = true
}

// Resume re-enables dispatch after Suspend.
func (c *Channel[T]) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = false
}

// Emit dispatches the payload to every handler bound to name, then to every
// attached forward channel. A panicking handler is recovered and logged;
// dispatch continues with the remaining handlers.
func (c *Channel[T]) Emit(name string, payload T) {
	c.mu.Lock()
	if c.suspended {
		c.mu.Unlock()
		return
	}

	snapshot := append([]*Subscription[T](nil), c.handlers[name]...)
	// One-shot handlers are removed before invocation so a re-entrant Emit
	// cannot fire them twice.
	for _, sub := range snapshot {
		if sub.once {
			c.remove(sub)
			sub.active = true // still due for this dispatch
		}
	}
	forwards := append([]*Channel[T](nil), c.emitters...)
	c.mu.Unlock()

	for _, sub := range snapshot {
		if !sub.active {
			continue
		}
		c.invoke(sub, name, payload)
		if sub.once {
			sub.active = false
		}
	}

	for _, target := range forwards {
		target.Emit(name, payload)
	}
}

func (c *Channel[T]) invoke(sub *Subscription[T], name string, payload T) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panicked", "event", name, "panic", r)
		}
	}()
	sub.handler(name, payload)
}
