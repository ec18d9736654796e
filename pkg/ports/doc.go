/*
Package ports defines the driven ports (interfaces) for the Arbor state engine.

These interfaces decouple the core tree/history logic from external
implementations, allowing documents to be persisted to various backends and
mutation recording to be toggled uniformly across subsystems.

# Key Interfaces

  - DocumentStore: persisting and loading serialized documents.
  - Recorder: mutation-recording subsystems (history, sync) that a tree can
    silence as a group.
*/
package ports
