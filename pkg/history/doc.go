/*
Package history provides the undo/redo log and the binding that records
state tree mutations as reversible actions.

Stack is independent of the tree: it stores named {Undo, Redo} closure pairs
behind a cursor and serializes replay through a size-1 in-flight slot.
Binding subscribes to a tree's wildcard mutation events and synthesizes the
inverse closure for each one, replaying through the tree's own mutation API
with recording suppressed for the duration.
*/
package history
