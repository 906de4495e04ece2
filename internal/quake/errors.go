package quake

import "fmt"

// ValidationError reports a malformed or incomplete inbound record. The
// caller drops the record and continues; it is never fatal to the stream.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: field %q: %s", e.Field, e.Reason)
}

// ComputationError reports an unexpected failure inside the clustering
// math, such as a non-finite coordinate reaching the distance function.
// It is fatal to the affected evaluation pass only: the window buffer
// stays intact and the next event triggers a fresh pass.
type ComputationError struct {
	Stage  string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("clustering %s failed: %s", e.Stage, e.Reason)
}
