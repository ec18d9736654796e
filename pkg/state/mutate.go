package state

import (
	"strconv"
)

// MutateOption adjusts a single mutation call.
type MutateOption func(*mutateOptions)

type mutateOptions struct {
	silent bool
	remote bool
	force  bool
	index  int
}

// Silent wraps the call in a silence window: attached recorders are disabled
// for the duration, then restored. Events still emit.
func Silent() MutateOption {
	return func(o *mutateOptions) { o.silent = true }
}

// Remote tags the emitted events as remotely originated. Opaque to the tree.
func Remote() MutateOption {
	return func(o *mutateOptions) { o.remote = true }
}

// Force emits a set event even when the new value equals the current one.
func Force() MutateOption {
	return func(o *mutateOptions) { o.force = true }
}

// AtIndex positions an Insert. Out-of-range indices append.
func AtIndex(i int) MutateOption {
	return func(o *mutateOptions) { o.index = i }
}

func applyMutateOptions(opts []MutateOption) mutateOptions {
	o := mutateOptions{index: -1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// enter applies the silence window for a mutation entry point and hands back
// the cleanup to run after the mutation.
func (t *Tree) enter(o mutateOptions) func() {
	if !o.silent {
		return func() {}
	}
	token := t.Silence()
	return func() { t.Unsilence(token) }
}

// Set writes a value at path, auto-creating intermediate branches. It is a
// no-op (returns false, emits nothing) when the new value equals the current
// one, unless Force is given.
//
// Map values are merged, not replaced: keys missing from the new value are
// unset, differing keys are set recursively, new keys are set. This yields
// one granular event per changed leaf plus one aggregate event at the
// subtree's root. A key changing kind (scalar/array vs branch) is unset and
// then re-set.
func (t *Tree) Set(path string, value any, opts ...MutateOption) bool {
	if t.destroyed || path == "" {
		return false
	}
	o := applyMutateOptions(opts)
	defer t.enter(o)()
	return t.set(path, value, o)
}

func (t *Tree) set(path string, value any, o mutateOptions) bool {
	head, rest, nested := splitPath(path)
	if !nested {
		return t.setKey(head, value, o)
	}

	// Direct array element assignment: "items.2".
	if arr, ok := t.values[head].([]any); ok {
		idxSeg, tail, _ := splitPath(rest)
		if tail == "" {
			i, err := strconv.Atoi(idxSeg)
			if err != nil {
				return false
			}
			return t.setArrayElement(head, arr, i, value, o)
		}
	}

	child, remaining, ok := t.stepInto(head, rest, true)
	if !ok {
		return false
	}
	return child.set(remaining, value, o)
}

// stepInto resolves one nested segment for a recursive operation, descending
// into a child tree or through an array element that is itself a tree.
// With autoCreate, a missing key becomes an empty branch.
func (t *Tree) stepInto(head, rest string, autoCreate bool) (*Tree, string, bool) {
	next, ok := t.values[head]
	if !ok {
		if !autoCreate {
			return nil, "", false
		}
		child := t.newChild(head, nil)
		t.keys = append(t.keys, head)
		t.values[head] = child
		return child, rest, true
	}

	switch n := next.(type) {
	case *Tree:
		return n, rest, true
	case []any:
		idxSeg, tail, _ := splitPath(rest)
		i, err := strconv.Atoi(idxSeg)
		if err != nil || i < 0 || i >= len(n) || tail == "" {
			return nil, "", false
		}
		elem, isTree := n[i].(*Tree)
		if !isTree {
			return nil, "", false
		}
		return elem, tail, true
	default:
		return nil, "", false
	}
}

func (t *Tree) setKey(k string, value any, o mutateOptions) bool {
	old, hadOld := t.values[k]
	if hadOld && !o.force && sameValue(old, value) {
		return false
	}

	var oldSer any
	if hadOld {
		oldSer = Serialize(old)
	}

	// Kind transition: tear the old value down first, then set fresh.
	if hadOld && KindOf(old) != KindOf(value) {
		t.unsetKey(k, o)
		old, hadOld, oldSer = nil, false, nil
	}

	switch v := value.(type) {
	case map[string]any:
		if hadOld {
			child := old.(*Tree)
			child.merge(v, o)
			t.emit(Mutation{Verb: VerbSet, Path: k, Value: child.Serialize(), Old: oldSer, HasOld: true, Remote: o.remote})
			return true
		}
		child := t.newChild(k, v)
		t.keys = append(t.keys, k)
		t.values[k] = child
		t.emit(Mutation{Verb: VerbSet, Path: k, Value: child.Serialize(), Remote: o.remote})
		return true

	case []any:
		if hadOld {
			destroyArrayChildren(old.([]any))
		} else {
			t.keys = append(t.keys, k)
		}
		arr := t.wrapArray(k, v)
		t.values[k] = arr
		t.emit(Mutation{Verb: VerbSet, Path: k, Value: Serialize(arr), Old: oldSer, HasOld: hadOld, Remote: o.remote})
		return true

	default:
		if !hadOld {
			t.keys = append(t.keys, k)
		}
		t.values[k] = value
		t.emit(Mutation{Verb: VerbSet, Path: k, Value: value, Old: oldSer, HasOld: hadOld, Remote: o.remote})
		return true
	}
}

// merge applies the three-way key diff of an incoming map onto this branch:
// removed keys are unset, remaining keys set (each a no-op if unchanged).
func (t *Tree) merge(m map[string]any, o mutateOptions) {
	for _, k := range append([]string(nil), t.keys...) {
		if _, keep := m[k]; !keep {
			t.unsetKey(k, o)
		}
	}
	for _, k := range sortedKeys(m) {
		t.setKey(k, m[k], o)
	}
}

func (t *Tree) setArrayElement(field string, arr []any, i int, value any, o mutateOptions) bool {
	if i < 0 || i >= len(arr) {
		return false
	}
	old := arr[i]
	if !o.force && sameValue(old, value) {
		return false
	}
	oldSer := Serialize(old)
	if ot, ok := old.(*Tree); ok {
		ot.Destroy()
	}

	var stored any = value
	// Duplicate-primitive rejection does not apply to replacement.
	if m, ok := value.(map[string]any); ok {
		stored = t.newArrayChild(field, m)
	}
	arr[i] = stored
	path := field + "." + strconv.Itoa(i)
	t.emit(Mutation{Verb: VerbSet, Path: path, Value: Serialize(stored), Old: oldSer, HasOld: true, Remote: o.remote})
	return true
}

// Unset removes a key. Descendant keys are unset first, in reverse insertion
// order (the list mutates during the walk), each emitting its own event.
// Returns false if the key does not exist.
func (t *Tree) Unset(path string, opts ...MutateOption) bool {
	if t.destroyed || path == "" {
		return false
	}
	o := applyMutateOptions(opts)
	defer t.enter(o)()
	return t.unset(path, o)
}

func (t *Tree) unset(path string, o mutateOptions) bool {
	head, rest, nested := splitPath(path)
	if !nested {
		return t.unsetKey(head, o)
	}
	child, remaining, ok := t.stepInto(head, rest, false)
	if !ok {
		return false
	}
	return child.unset(remaining, o)
}

func (t *Tree) unsetKey(k string, o mutateOptions) bool {
	v, ok := t.values[k]
	if !ok {
		return false
	}
	oldSer := Serialize(v)

	switch val := v.(type) {
	case *Tree:
		for i := len(val.keys) - 1; i >= 0; i-- {
			val.unsetKey(val.keys[i], o)
		}
	case []any:
		destroyArrayChildren(val)
	}

	t.removeKey(k)
	if child, isTree := v.(*Tree); isTree {
		child.Destroy()
	}
	t.emit(Mutation{Verb: VerbUnset, Path: k, Old: oldSer, HasOld: true, Remote: o.remote})
	return true
}

func (t *Tree) removeKey(k string) {
	delete(t.values, k)
	for i, key := range t.keys {
		if key == k {
			t.keys = append(t.keys[:i:i], t.keys[i+1:]...)
			return
		}
	}
}

func destroyArrayChildren(arr []any) {
	for _, el := range arr {
		if et, ok := el.(*Tree); ok {
			et.Destroy()
		}
	}
}

// Insert adds a value to the array at path, appending unless AtIndex is
// given. A missing key auto-creates an empty array. Primitive values already
// present are rejected unless the path is exempted via WithAllowDuplicates;
// map values are wrapped as array-embedded child trees.
func (t *Tree) Insert(path string, value any, opts ...MutateOption) bool {
	if t.destroyed || path == "" {
		return false
	}
	o := applyMutateOptions(opts)
	defer t.enter(o)()
	return t.insert(path, value, o)
}

func (t *Tree) insert(path string, value any, o mutateOptions) bool {
	head, rest, nested := splitPath(path)
	if nested {
		child, remaining, ok := t.stepInto(head, rest, true)
		if !ok {
			return false
		}
		return child.insert(remaining, value, o)
	}

	arr, isArr := t.values[head].([]any)
	if !isArr {
		if _, exists := t.values[head]; exists {
			return false
		}
		arr = []any{}
		t.keys = append(t.keys, head)
	}

	if isPrimitive(value) && !t.duplicatesAllowed(head) {
		for _, el := range arr {
			if valueEqual(el, value) {
				return false
			}
		}
	}

	var stored any = value
	if m, ok := value.(map[string]any); ok {
		stored = t.newArrayChild(head, m)
	}

	i := o.index
	if i < 0 || i > len(arr) {
		i = len(arr)
	}
	arr = append(arr, nil)
	copy(arr[i+1:], arr[i:])
	arr[i] = stored
	t.values[head] = arr

	t.emit(Mutation{Verb: VerbInsert, Path: head, Value: Serialize(stored), Index: i, Remote: o.remote})
	return true
}

func (t *Tree) duplicatesAllowed(field string) bool {
	_, ok := t.allowDuplicates[joinPath(t.Path(), field)]
	return ok
}

// Remove deletes the array element at the given position. A removed child
// tree is destroyed.
func (t *Tree) Remove(path string, index int, opts ...MutateOption) bool {
	if t.destroyed || path == "" {
		return false
	}
	o := applyMutateOptions(opts)
	defer t.enter(o)()
	return t.removeFrom(path, o, func(arr []any) int { return index })
}

// RemoveValue deletes the first array element matching value, comparing
// child trees by identity or serialized equality.
func (t *Tree) RemoveValue(path string, value any, opts ...MutateOption) bool {
	if t.destroyed || path == "" {
		return false
	}
	o := applyMutateOptions(opts)
	defer t.enter(o)()
	return t.removeFrom(path, o, func(arr []any) int {
		for i, el := range arr {
			if matchValue(el, value) {
				return i
			}
		}
		return -1
	})
}

func (t *Tree) removeFrom(path string, o mutateOptions, pick func([]any) int) bool {
	head, rest, nested := splitPath(path)
	if nested {
		child, remaining, ok := t.stepInto(head, rest, false)
		if !ok {
			return false
		}
		return child.removeFrom(remaining, o, pick)
	}

	arr, isArr := t.values[head].([]any)
	if !isArr {
		return false
	}
	i := pick(arr)
	if i < 0 || i >= len(arr) {
		return false
	}

	removed := arr[i]
	removedSer := Serialize(removed)
	if rt, ok := removed.(*Tree); ok {
		rt.Destroy()
	}
	t.values[head] = append(arr[:i:i], arr[i+1:]...)

	t.emit(Mutation{Verb: VerbRemove, Path: head, Value: removedSer, Index: i, Remote: o.remote})
	return true
}

// Move repositions an array element. No-op when the indices are equal or out
// of range.
func (t *Tree) Move(path string, from, to int, opts ...MutateOption) bool {
	if t.destroyed || path == "" {
		return false
	}
	o := applyMutateOptions(opts)
	defer t.enter(o)()
	return t.move(path, from, to, o)
}

func (t *Tree) move(path string, from, to int, o mutateOptions) bool {
	head, rest, nested := splitPath(path)
	if nested {
		child, remaining, ok := t.stepInto(head, rest, false)
		if !ok {
			return false
		}
		return child.move(remaining, from, to, o)
	}

	arr, isArr := t.values[head].([]any)
	if !isArr {
		return false
	}
	if from == to || from < 0 || from >= len(arr) || to < 0 || to >= len(arr) {
		return false
	}

	elem := arr[from]
	arr = append(arr[:from], arr[from+1:]...)
	arr = append(arr, nil)
	copy(arr[to+1:], arr[to:])
	arr[to] = elem
	t.values[head] = arr

	t.emit(Mutation{Verb: VerbMove, Path: head, Value: Serialize(elem), Index: to, OldIndex: from, Remote: o.remote})
	return true
}

// Patch bulk-sets every key in data. With removeMissing, keys present in the
// tree but absent from data are unset first. Returns true if anything changed.
func (t *Tree) Patch(data map[string]any, removeMissing bool, opts ...MutateOption) bool {
	if t.destroyed {
		return false
	}
	o := applyMutateOptions(opts)
	defer t.enter(o)()

	changed := false
	if removeMissing {
		for _, k := range append([]string(nil), t.keys...) {
			if _, keep := data[k]; !keep {
				if t.unsetKey(k, o) {
					changed = true
				}
			}
		}
	}
	for _, k := range sortedKeys(data) {
		if t.setKey(k, data[k], o) {
			changed = true
		}
	}
	return changed
}
