package kernels

import (
	"slices"

	"github.com/pkg/errors"
)

// ArgumentKind names the role of one kernel argument slot.
type ArgumentKind int

const (
	// KindInput binds the node dependency at the slot's Index.
	KindInput ArgumentKind = iota
	// KindOutput binds the node output at the slot's Index.
	KindOutput
	// KindWeights binds the weights tensor (a dependency, flagged so the
	// kernel receives it through its dedicated weights argument).
	KindWeights
	// KindBias binds the optional bias tensor.
	KindBias
	// KindSlope binds an activation's auxiliary parameter tensor.
	KindSlope
)

var argumentKindNames = []string{"input", "output", "weights", "bias", "slope"}

// String implements fmt.Stringer.
func (k ArgumentKind) String() string {
	if k < 0 || int(k) >= len(argumentKindNames) {
		return "invalid"
	}
	return argumentKindNames[k]
}

// ArgumentSlot is one entry of an ArgumentSchema: a role plus the index of
// the node dependency (or output) it binds.
type ArgumentSlot struct {
	Kind  ArgumentKind
	Index int
}

// ArgumentSchema is the ordered list of argument slots a compiled kernel
// expects. It is generated once from the parameter record and later consumed
// verbatim by argument binding, so builder and binder cannot disagree on the
// order.
type ArgumentSchema []ArgumentSlot

// Clone returns an independent copy of the schema.
func (s ArgumentSchema) Clone() ArgumentSchema { return slices.Clone(s) }

// SchemaFromParams derives the argument schema from a parameter record: all
// inputs (mandatory first, conditional ones already appended by the builder
// in their flag order), the operator-specific dedicated slots, then the
// outputs.
func SchemaFromParams(p Params) (ArgumentSchema, error) {
	base := p.Base()
	if len(base.Inputs) == 0 || len(base.Outputs) == 0 {
		return nil, errors.Errorf("%s parameter record misses inputs (%d) or outputs (%d)",
			p.OpType(), len(base.Inputs), len(base.Outputs))
	}

	schema := make(ArgumentSchema, 0, len(base.Inputs)+len(base.Outputs)+2)
	for i := range base.Inputs {
		schema = append(schema, ArgumentSlot{Kind: KindInput, Index: i})
	}

	switch op := p.(type) {
	case *ActivationParams:
		if op.Parameterized {
			// The auxiliary tensor is the last input; rewrite its slot so
			// the kernel binds it through the slope argument.
			schema[len(schema)-1] = ArgumentSlot{Kind: KindSlope, Index: len(base.Inputs) - 1}
		}
	case *DeconvolutionParams:
		// Weights and bias are dependencies 1 and 2 of the node but are not
		// part of base.Inputs; they get dedicated slots after the inputs.
		schema = append(schema, ArgumentSlot{Kind: KindWeights, Index: 1})
		if op.Bias != nil {
			schema = append(schema, ArgumentSlot{Kind: KindBias, Index: 2})
		}
	}

	for i := range base.Outputs {
		schema = append(schema, ArgumentSlot{Kind: KindOutput, Index: i})
	}
	return schema, nil
}
