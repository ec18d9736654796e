/*
Package state implements the hierarchical observable store at the core of
Arbor.

A Tree is addressed by dot-separated paths ("scene.objects.2.name") where
numeric segments index into arrays. Nested maps are wrapped as child trees;
mutations anywhere in the hierarchy emit both a targeted event
("<path>:<verb>") and a wildcard event ("*:<verb>") that propagate to the
root with the path rewritten through each ancestor, so a single root
subscription observes the whole document.

Mutation is synchronous and returns plain booleans for expected failures:
missing paths, value-equal no-ops and out-of-range indices never raise.
*/
package state
