package state

import (
	"reflect"
	"sort"
	"strings"
)

// Kind tags the three value shapes a tree can hold. Values are classified
// explicitly instead of duck-typed on structure.
type Kind int

const (
	KindScalar Kind = iota
	KindArray
	KindBranch
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindBranch:
		return "branch"
	default:
		return "scalar"
	}
}

// KindOf classifies a value. Maps and child trees are branches, []any slices
// are arrays, everything else is a scalar leaf.
func KindOf(v any) Kind {
	switch v.(type) {
	case map[string]any, *Tree:
		return KindBranch
	case []any:
		return KindArray
	default:
		return KindScalar
	}
}

// Serialize materializes a stored value into plain nested containers,
// recursing into arrays and child trees and stopping at scalars. The result
// carries no internal bookkeeping and round-trips with New.
func Serialize(v any) any {
	switch val := v.(type) {
	case *Tree:
		return val.Serialize()
	case []any:
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = Serialize(el)
		}
		return out
	default:
		return v
	}
}

// valueEqual implements the shallow equality used by the no-op check:
// deep compare for arrays, identity for child trees, == for comparable
// scalars. Branch-vs-map comparison is handled separately via serialization.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Tree:
		bt, ok := b.(*Tree)
		return ok && av == bt
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !ra.Comparable() || !rb.Comparable() {
		return false
	}
	return a == b
}

// sameValue is the full no-op check for Set: branches and arrays compare by
// serialized deep equality, scalars by valueEqual.
func sameValue(current, incoming any) bool {
	switch cur := current.(type) {
	case *Tree:
		m, ok := incoming.(map[string]any)
		return ok && reflect.DeepEqual(cur.Serialize(), m)
	case []any:
		arr, ok := incoming.([]any)
		return ok && reflect.DeepEqual(Serialize(cur), Serialize(arr))
	default:
		return valueEqual(current, incoming)
	}
}

// matchValue compares a stored element against a caller-supplied value,
// matching child trees either by identity or by serialized equality. Used by
// RemoveValue and the duplicate-primitive check.
func matchValue(stored, value any) bool {
	if st, ok := stored.(*Tree); ok {
		if vt, ok := value.(*Tree); ok {
			return st == vt
		}
		if m, ok := value.(map[string]any); ok {
			return reflect.DeepEqual(st.Serialize(), m)
		}
		return false
	}
	if KindOf(stored) != KindScalar || KindOf(value) != KindScalar {
		return reflect.DeepEqual(Serialize(stored), Serialize(value))
	}
	return valueEqual(stored, value)
}

func isPrimitive(v any) bool {
	return v != nil && KindOf(v) == KindScalar
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitPath(path string) (head, rest string, nested bool) {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:], true
	}
	return path, "", false
}

func joinPath(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "." + b
	}
}
