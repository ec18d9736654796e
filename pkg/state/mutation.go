package state

// Verb identifies the kind of mutation carried by an event.
type Verb string

const (
	VerbSet    Verb = "set"
	VerbUnset  Verb = "unset"
	VerbInsert Verb = "insert"
	VerbRemove Verb = "remove"
	VerbMove   Verb = "move"
)

// Verbs lists every mutation verb, in emission-contract order.
var Verbs = []Verb{VerbSet, VerbUnset, VerbInsert, VerbRemove, VerbMove}

// Mutation is the payload emitted for every effective tree change. It is a
// single typed struct rather than positional arguments, so wildcard and
// targeted subscribers read the same shape.
type Mutation struct {
	Verb Verb
	// Path of the mutated node, relative to the tree the event was observed
	// on. Events forwarded to an ancestor carry the path rewritten through
	// the child's resolved key or current array index.
	Path string
	// Value is the new value (serialized form for branches and arrays).
	Value any
	// Old is the previous value for set/unset. HasOld distinguishes a nil
	// previous value from an absent one.
	Old    any
	HasOld bool
	// Index is the affected position for insert/remove, or the destination
	// for move. OldIndex is the origin for move.
	Index    int
	OldIndex int
	// Remote tags mutations that originated outside this process. It is
	// forwarded unchanged; the tree itself attaches no meaning to it.
	Remote bool
}

// EventName builds the targeted event name for a path and verb, e.g. "a.b:set".
func EventName(path string, verb Verb) string {
	return path + ":" + string(verb)
}

// WildcardName builds the wildcard event name for a verb, e.g. "*:set".
func WildcardName(verb Verb) string {
	return "*:" + string(verb)
}
