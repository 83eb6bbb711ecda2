package impls

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel failures of implementation selection. All of them are fatal to
// the compilation of the node's graph and are never retried internally.
var (
	// ErrNoImplementationFound: the dispatch key has no registered factory.
	ErrNoImplementationFound = errors.New("no implementation found")

	// ErrNoViableKernel: a factory exists but the kernel selector returned
	// no candidate for the concrete shapes/formats.
	ErrNoViableKernel = errors.New("no viable kernel")

	// ErrUnsupportedAxis: an operator axis attribute cannot be mapped into
	// the engine's axis convention.
	ErrUnsupportedAxis = errors.New("unsupported axis")
)

// SelectionError decorates a selection failure with the failing node's
// identifier and dispatch key for diagnosis.
type SelectionError struct {
	NodeID string
	Key    Key
	Err    error
}

// Error implements error.
func (e *SelectionError) Error() string {
	return fmt.Sprintf("node %q, dispatch key %s: %v", e.NodeID, e.Key, e.Err)
}

// Unwrap makes SelectionError transparent to errors.Is/As.
func (e *SelectionError) Unwrap() error { return e.Err }
