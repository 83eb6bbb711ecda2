// Package backends enumerates the compute engines that can implement an
// operator, and the capability tables they advertise.
//
// An Engine is only an identifier: the actual implementations are registered
// per operator in package gpu/impls by each engine's attach routine, during
// initialization. After that phase every table in this package is immutable,
// so concurrent readers need no locking.
package backends

import "github.com/gomlx/exceptions"

// Engine identifies a compute-capable execution target.
//
// It is the first component of a dispatch key: one registered factory exists
// per (engine, data type, memory format) triple per operator.
type Engine int

const (
	EngineUnknown Engine = iota

	// EngineCPU runs reference implementations on the host.
	EngineCPU

	// EngineCommon holds engine-agnostic implementations (e.g. no-op views).
	EngineCommon

	// EngineOCL is the generic device-kernel engine.
	EngineOCL

	// EngineOneDNN is the vendor-tuned primitive-library engine.
	EngineOneDNN

	engineCount
)

var engineNames = [engineCount]string{"unknown", "cpu", "common", "ocl", "onednn"}

// String implements fmt.Stringer.
func (e Engine) String() string {
	if e < 0 || e >= engineCount {
		return "invalid"
	}
	return engineNames[e]
}

var capabilitiesPerEngine = map[Engine]Capabilities{}

// RegisterCapabilities publishes the capability table for the given engine.
//
// It must be called during initialization, before any graph compiles; calling
// it twice for the same engine is a bug.
func RegisterCapabilities(e Engine, c Capabilities) {
	if _, found := capabilitiesPerEngine[e]; found {
		exceptions.Panicf("backends.RegisterCapabilities: capabilities for engine %q registered twice", e)
	}
	capabilitiesPerEngine[e] = c
}

// CapabilitiesOf returns the capability table registered for the engine, and
// whether one was registered at all.
func CapabilitiesOf(e Engine) (Capabilities, bool) {
	c, found := capabilitiesPerEngine[e]
	return c, found
}
