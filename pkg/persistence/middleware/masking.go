package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/arbor/pkg/ports"
)

type maskingMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewMaskingMiddleware creates a middleware that masks values of keys
// matching the patterns before they reach the underlying store. The live
// document is untouched; only the persisted form is redacted.
func NewMaskingMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &maskingMiddleware{next: next, patterns: patterns}
	}
}

func (m *maskingMiddleware) Save(ctx context.Context, id string, doc map[string]any) error {
	// Deep clone so masking never leaks back into the caller's document.
	cloned := deepCopyMap(doc)
	maskMap(cloned, m.patterns)
	return m.next.Save(ctx, id, cloned)
}

func (m *maskingMiddleware) Load(ctx context.Context, id string) (map[string]any, error) {
	return m.next.Load(ctx, id)
}

func (m *maskingMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *maskingMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
