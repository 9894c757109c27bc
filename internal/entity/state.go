package entity

// SourceImageState is the load state of an entity's source image.
type SourceImageState int

const (
	// NotLoaded means no load was ever started.
	NotLoaded SourceImageState = iota
	// Loading means exactly one transport request is running.
	Loading
	// Paused means a suspended request can be resumed.
	Paused
	// Ready means the source image is decoded and its bytes are retained.
	Ready
	// Failed means the last load cycle ended with an error and nothing is retained.
	Failed
)

// String returns a human-readable state name.
func (s SourceImageState) String() string {
	switch s {
	case NotLoaded:
		return "not loaded"
	case Loading:
		return "loading"
	case Paused:
		return "paused"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Busy reports whether a request exists in this state.
func (s SourceImageState) Busy() bool {
	return s == Loading || s == Paused
}
