/*
Package arbor is a hierarchical, observable state container with typed events
and automatic undo/redo, designed as the state engine under document editors,
UIs, and automation tools.

It separates the data (a path-addressable tree), the notifications (typed
publish/subscribe events), and the history (a cursor-based action log),
letting each be used alone or wired together through the Document facade.

# Concept

State lives in a tree of branches and leaves addressed by dot-separated paths
such as "scene.camera.fov". Every mutation emits a targeted event
("scene.camera.fov:set") and a wildcard event ("*:set") synchronously, so a
listener always observes a consistent tree. A history binding listens to the
wildcard events and records each mutation as a reversible action; undo and
redo replay those actions back through the tree's own mutation API.

# Usage

	package main

	import (
		"context"
		"fmt"

		"github.com/aretw0/arbor"
		"github.com/aretw0/arbor/pkg/state"
	)

	func main() {
		doc := arbor.New(map[string]any{
			"scene": map[string]any{"name": "untitled"},
		})

		doc.Tree().Events().On("scene.name:set", func(name string, m state.Mutation) {
			fmt.Println("renamed to", m.Value)
		})

		doc.Set("scene.name", "draft-1")
		doc.Undo(context.Background())

		v, _ := doc.Get("scene.name")
		fmt.Println(v) // untitled
	}

Persistence goes through ports.DocumentStore; the pkg/adapters tree ships an
in-memory store and a Redis store, plus an HTTP adapter exposing documents
over REST.
*/
package arbor
