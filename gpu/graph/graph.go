// Package graph holds the compile-time model of a tensor program: nodes with
// resolved engine assignments and input/output layouts, the per-operator
// attribute records attached to them, and the runtime instances that carry
// the actual memory handles at execution time.
//
// This package only models the graph; choosing a concrete implementation for
// each node is done by package gpu/impls.
package graph

import (
	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/layout"
)

// Primitive is the operator-specific attribute record attached to a Node.
type Primitive interface {
	OpType() backends.OpType
}

// Node is one computation step of a compiled tensor program.
//
// A Node is created by the graph-compilation front end with its engine
// assignment and layouts already resolved; implementation selection reads it
// but never mutates it.
type Node struct {
	// ID identifies the node in diagnostics.
	ID string

	// Engine is the node's resolved engine assignment.
	Engine backends.Engine

	// Primitive carries the operator attributes.
	Primitive Primitive

	// Inputs holds the layouts of all node dependencies, mandatory inputs
	// first, in dependency order.
	Inputs []layout.Layout

	// Outputs holds the layouts of the node outputs; Outputs[0] is the
	// primary output that the dispatch key is derived from.
	Outputs []layout.Layout

	// CanBeOptimized marks nodes that are a no-op view (e.g. an in-place
	// concatenation); the execution runtime bypasses them entirely.
	CanBeOptimized bool
}

// OpType returns the operator family of the node.
func (n *Node) OpType() backends.OpType {
	if n.Primitive == nil {
		return backends.OpTypeInvalid
	}
	return n.Primitive.OpType()
}

// InputLayout returns the layout of the idx-th dependency.
func (n *Node) InputLayout(idx int) layout.Layout {
	if idx < 0 || idx >= len(n.Inputs) {
		exceptions.Panicf("node %q: input index %d out of range [0, %d)", n.ID, idx, len(n.Inputs))
	}
	return n.Inputs[idx]
}

// OutputLayout returns the layout of the primary output.
func (n *Node) OutputLayout() layout.Layout {
	if len(n.Outputs) == 0 {
		exceptions.Panicf("node %q has no output layout", n.ID)
	}
	return n.Outputs[0]
}

// Memory is a runtime memory handle bound to a kernel argument slot.
//
// The surrounding execution/allocation runtime owns the underlying buffer;
// argument binding only reads the handle.
type Memory interface {
	Layout() layout.Layout
}

// Instance is the runtime incarnation of a Node: the same topology, with
// concrete memory handles for every dependency and output.
type Instance struct {
	Node *Node

	inputs  []Memory
	outputs []Memory
}

// NewInstance binds runtime memory to a node. The number of handles must
// mirror the node's compile-time dependency and output counts.
func NewInstance(node *Node, inputs, outputs []Memory) *Instance {
	if len(inputs) != len(node.Inputs) {
		exceptions.Panicf("node %q: instance has %d input buffers, node has %d dependencies",
			node.ID, len(inputs), len(node.Inputs))
	}
	if len(outputs) != len(node.Outputs) {
		exceptions.Panicf("node %q: instance has %d output buffers, node has %d outputs",
			node.ID, len(outputs), len(node.Outputs))
	}
	return &Instance{Node: node, inputs: inputs, outputs: outputs}
}

// InputsCount returns the number of bound input buffers.
func (i *Instance) InputsCount() int { return len(i.inputs) }

// InputMemory returns the runtime buffer of the idx-th dependency.
func (i *Instance) InputMemory(idx int) Memory {
	if idx < 0 || idx >= len(i.inputs) {
		exceptions.Panicf("node %q: input memory index %d out of range [0, %d)",
			i.Node.ID, idx, len(i.inputs))
	}
	return i.inputs[idx]
}

// OutputMemory returns the runtime buffer of the idx-th output.
func (i *Instance) OutputMemory(idx int) Memory {
	if idx < 0 || idx >= len(i.outputs) {
		exceptions.Panicf("node %q: output memory index %d out of range [0, %d)",
			i.Node.ID, idx, len(i.outputs))
	}
	return i.outputs[idx]
}

// Program is an ordered collection of nodes compiled together.
type Program struct {
	// ID uniquely identifies this program build, e.g. as the key of its
	// compiled-kernel cache artifact.
	ID    uuid.UUID
	Nodes []*Node
}

// NewProgram creates a Program with a fresh unique id.
func NewProgram(nodes ...*Node) *Program {
	return &Program{ID: uuid.New(), Nodes: nodes}
}
