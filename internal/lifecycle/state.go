package lifecycle

//go:generate go tool stringer -type=State -linecomment -output=state_string.go

// State is the controller's position in its one-way lifecycle.
type State int32

const (
	Uninitialized State = iota // uninitialized
	// Synthesizing covers the synthesis pass and the engine open.
	Synthesizing // synthesizing
	Ready        // ready
	ShuttingDown // shutting down
)
