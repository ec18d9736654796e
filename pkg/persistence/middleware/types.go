// Package middleware provides composable wrappers around a DocumentStore,
// adding behavior such as encryption at rest or field masking without the
// store knowing.
package middleware

import "github.com/aretw0/arbor/pkg/ports"

// Middleware allows wrapping a DocumentStore to add behavior.
type Middleware func(ports.DocumentStore) ports.DocumentStore
