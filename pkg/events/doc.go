/*
Package events provides the typed publish/subscribe primitive the rest of
Arbor is built on.

A Channel dispatches synchronously under string event names. It supports
one-shot subscriptions (Once), safe unsubscription from inside a handler,
fan-out to attached secondary channels (AddEmitter), and a suspend flag that
drops emissions entirely.

The payload type is a type parameter so each subsystem defines one event
struct instead of variadic positional arguments: the state tree uses
Channel[state.Mutation], the history stack Channel[history.StackEvent].
*/
package events
