package ports

// Recorder is implemented by subsystems that record tree mutations as they
// happen (the history binding, a network sync layer). A tree silences its
// attached recorders for the duration of a silent mutation window; the
// tree's own event emission is never affected.
type Recorder interface {
	// Enabled reports whether the recorder is currently capturing mutations.
	Enabled() bool
	// SetEnabled toggles capturing. Implementations must tolerate redundant calls.
	SetEnabled(enabled bool)
}
