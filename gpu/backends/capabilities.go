package backends

import (
	"maps"

	"github.com/gomlx/gopjrt/dtypes"
)

// Capabilities is the coarse support surface an engine advertises: which
// operator families it has implementations for and which element types those
// implementations accept. The dispatch driver consults it before any
// registry lookup, so an engine can reject a node without enumerating its
// per-format registrations.
type Capabilities struct {
	// Operations marks the supported operator families. A missing key
	// means unsupported.
	Operations map[OpType]bool

	// DTypes marks the supported element types. A missing key means
	// unsupported.
	DTypes map[dtypes.DType]bool
}

// Clone returns a deep copy sharing no maps with the original.
func (c Capabilities) Clone() Capabilities {
	var c2 Capabilities
	c2.Operations = make(map[OpType]bool, len(c.Operations))
	maps.Copy(c2.Operations, c.Operations)
	c2.DTypes = make(map[dtypes.DType]bool, len(c.DTypes))
	maps.Copy(c2.DTypes, c.DTypes)
	return c2
}

// SupportsOp reports whether the engine declared support for the operator
// family.
func (c Capabilities) SupportsOp(op OpType) bool {
	return c.Operations[op]
}

// SupportsDType reports whether the engine declared support for the element
// data type.
func (c Capabilities) SupportsDType(dtype dtypes.DType) bool {
	return c.DTypes[dtype]
}
