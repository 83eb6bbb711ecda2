package impls

import (
	"github.com/pkg/errors"
	"github.com/sungeunk/openvino/gpu/graph"
	"github.com/sungeunk/openvino/gpu/kernels"
)

// Compiled wraps the kernel candidate chosen for one graph node, plus the
// state needed to bind runtime memory to the kernel's argument slots.
//
// Each instance is exclusively owned by its graph node; when the node is
// cloned the implementation is duplicated with Clone, never re-selected.
type Compiled struct {
	// NodeID is the owning node, kept for diagnostics.
	NodeID string

	// Kernel is the best candidate returned by the kernel selector. It is
	// the zero value for implementations that are optimized out.
	Kernel kernels.KernelData

	canBeOptimized bool
}

// CanBeOptimized reports whether the execution runtime may bypass this
// implementation entirely (a no-op view). Bypassing is the runtime's call,
// not this package's.
func (c *Compiled) CanBeOptimized() bool { return c.canBeOptimized }

// Clone produces an independent copy safe to own by a duplicated graph node.
// No mutable per-instance state is shared by reference.
func (c *Compiled) Clone() *Compiled {
	return &Compiled{
		NodeID:         c.NodeID,
		Kernel:         c.Kernel.Clone(),
		canBeOptimized: c.canBeOptimized,
	}
}

// Arguments maps the runtime memory handles of the node instance into the
// positional order the compiled kernel expects, by walking the argument
// schema attached to the chosen candidate.
//
// The slot order is the kernel's contract: it was generated from the same
// parameter record the kernel was selected with, so it mirrors the
// compile-time presence flags exactly.
func (c *Compiled) Arguments(inst *graph.Instance) ([]graph.Memory, error) {
	if inst.Node.ID != c.NodeID {
		return nil, errors.Errorf("implementation of node %q asked to bind arguments of node %q",
			c.NodeID, inst.Node.ID)
	}
	args := make([]graph.Memory, 0, len(c.Kernel.Args))
	for _, slot := range c.Kernel.Args {
		switch slot.Kind {
		case kernels.KindOutput:
			args = append(args, inst.OutputMemory(slot.Index))
		default:
			// Inputs, weights, bias and slope are all node dependencies;
			// the kind only tells the kernel which dedicated argument the
			// buffer rides in.
			args = append(args, inst.InputMemory(slot.Index))
		}
	}
	return args, nil
}
