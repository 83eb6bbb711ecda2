// Package impls selects the concrete implementation for every operator node
// of a compiled graph.
//
// Each engine registers, at initialization time, one factory per supported
// (engine, data type, memory format) triple per operator family. After the
// explicit Freeze step (performed implicitly at the first selection) the
// registries are immutable: graph compilation may then dispatch from any
// number of goroutines without locking, writing only node-local state.
package impls

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/format"
	"github.com/sungeunk/openvino/gpu/graph"
	"k8s.io/klog/v2"
)

// Key is the dispatch key implementations are registered under. Lookups use
// exact triple match: there is no wildcard or partial matching.
type Key struct {
	Engine backends.Engine
	DType  dtypes.DType
	Format format.Format
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return fmt.Sprintf("(%s, %s, %s)", k.Engine, k.DType, k.Format)
}

// Factory produces the compiled implementation for a node. It is invoked by
// Select after the registry lookup succeeded.
type Factory func(node *graph.Node) (*Compiled, error)

var (
	registries = map[backends.OpType]map[Key]Factory{}
	frozen     bool
)

// Register adds a factory for the operator family under the cross-product of
// the given data types and formats, all against the one engine.
//
// Registration happens during initialization, before any graph compiles, and
// is single-threaded by convention. Registering a key twice is an error, not
// a silent override; so is registering after Freeze.
func Register(op backends.OpType, engine backends.Engine, factory Factory,
	dts []dtypes.DType, fmts []format.Format) {
	if frozen {
		exceptions.Panicf("impls.Register(%s): registries are frozen, registration must happen during initialization", op)
	}
	if factory == nil {
		exceptions.Panicf("impls.Register(%s): nil factory", op)
	}
	reg := registries[op]
	if reg == nil {
		reg = make(map[Key]Factory)
		registries[op] = reg
	}
	for _, dt := range dts {
		for _, f := range fmts {
			key := Key{Engine: engine, DType: dt, Format: f}
			if _, found := reg[key]; found {
				exceptions.Panicf("impls.Register(%s): duplicate registration for key %s", op, key)
			}
			reg[key] = factory
		}
	}
	klog.V(1).Infof("impls: registered %d keys for operator %s on engine %s", len(dts)*len(fmts), op, engine)
}

// Freeze forbids further registration. It is idempotent and is called
// implicitly by the first Select; attach routines that finish later are a
// bug and panic in Register.
func Freeze() {
	frozen = true
}

// keyFor derives the dispatch key from the node's resolved engine assignment
// and its primary output's element type and format.
func keyFor(node *graph.Node) Key {
	out := node.OutputLayout()
	return Key{Engine: node.Engine, DType: out.DType, Format: out.Format}
}

// lookup finds the factory for the node, or nil.
func lookup(op backends.OpType, key Key) Factory {
	reg := registries[op]
	if reg == nil {
		return nil
	}
	return reg[key]
}
