package kernels

import (
	"sort"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/format"
)

// ParamsKey declares what a kernel can process. A zero key supports nothing;
// kernels enable what they implement, mirroring how they advertise support
// to selection.
type ParamsKey struct {
	inputDTypes   map[dtypes.DType]bool
	outputDTypes  map[dtypes.DType]bool
	inputFormats  map[format.Format]bool
	outputFormats map[format.Format]bool

	allInputFormats  bool
	allOutputFormats bool

	// differentTypes allows inputs and outputs to disagree on dtype.
	differentTypes bool
}

// EnableInputDType declares support for the given input element types.
func (k *ParamsKey) EnableInputDType(dts ...dtypes.DType) *ParamsKey {
	if k.inputDTypes == nil {
		k.inputDTypes = make(map[dtypes.DType]bool)
	}
	for _, dt := range dts {
		k.inputDTypes[dt] = true
	}
	return k
}

// EnableOutputDType declares support for the given output element types.
func (k *ParamsKey) EnableOutputDType(dts ...dtypes.DType) *ParamsKey {
	if k.outputDTypes == nil {
		k.outputDTypes = make(map[dtypes.DType]bool)
	}
	for _, dt := range dts {
		k.outputDTypes[dt] = true
	}
	return k
}

// EnableInputFormat declares support for the given input memory formats.
func (k *ParamsKey) EnableInputFormat(fmts ...format.Format) *ParamsKey {
	if k.inputFormats == nil {
		k.inputFormats = make(map[format.Format]bool)
	}
	for _, f := range fmts {
		k.inputFormats[f] = true
	}
	return k
}

// EnableOutputFormat declares support for the given output memory formats.
func (k *ParamsKey) EnableOutputFormat(fmts ...format.Format) *ParamsKey {
	if k.outputFormats == nil {
		k.outputFormats = make(map[format.Format]bool)
	}
	for _, f := range fmts {
		k.outputFormats[f] = true
	}
	return k
}

// EnableAllInputFormats declares support for any input memory format.
func (k *ParamsKey) EnableAllInputFormats() *ParamsKey {
	k.allInputFormats = true
	return k
}

// EnableAllOutputFormats declares support for any output memory format.
func (k *ParamsKey) EnableAllOutputFormats() *ParamsKey {
	k.allOutputFormats = true
	return k
}

// EnableDifferentTypes allows inputs and outputs of different element types.
func (k *ParamsKey) EnableDifferentTypes() *ParamsKey {
	k.differentTypes = true
	return k
}

// Supports checks the parameter record's tensors against the key.
func (k *ParamsKey) Supports(p Params) bool {
	base := p.Base()
	for _, in := range base.Inputs {
		if !k.inputDTypes[in.DType] {
			return false
		}
		if !k.allInputFormats && !k.inputFormats[in.Format] {
			return false
		}
	}
	for _, out := range base.Outputs {
		if !k.outputDTypes[out.DType] {
			return false
		}
		if !k.allOutputFormats && !k.outputFormats[out.Format] {
			return false
		}
	}
	if !k.differentTypes && len(base.Inputs) > 0 {
		dt := base.Inputs[0].DType
		for _, out := range base.Outputs {
			if out.DType != dt {
				return false
			}
		}
	}
	return true
}

// Kernel is one low-level implementation a selector can choose: its name,
// its static rank among siblings, and what it declares to support.
type Kernel struct {
	Name     string
	Priority int
	Key      *ParamsKey

	// Validate, when set, vetoes shapes the key alone cannot express.
	Validate func(p Params) bool
}

// KernelData is one ranked candidate returned by a Selector: the chosen
// kernel plus the argument schema a compiled implementation binds against.
type KernelData struct {
	Name string
	Args ArgumentSchema

	// KernelPerInput is carried over from the selection Options: the
	// execution runtime enqueues one kernel instance per input instead of
	// one for the whole node.
	KernelPerInput bool
}

// Clone returns an independent copy of the candidate.
func (kd KernelData) Clone() KernelData {
	kd.Args = kd.Args.Clone()
	return kd
}

// Selector ranks candidate kernels for a parameter record, best first. An
// empty result means no registered kernel is viable for these concrete
// shapes and formats.
type Selector interface {
	BestKernels(p Params, opts Options) []KernelData
}

var selectors = map[backends.OpType]*tableSelector{}

// RegisterKernel adds a kernel to the selector of the given operator family.
// It must only be called during initialization.
func RegisterKernel(op backends.OpType, k Kernel) {
	if k.Key == nil {
		exceptions.Panicf("kernels.RegisterKernel(%s, %q): kernel has no ParamsKey", op, k.Name)
	}
	s := selectors[op]
	if s == nil {
		s = &tableSelector{op: op}
		selectors[op] = s
	}
	s.kernels = append(s.kernels, k)
}

// SelectorFor returns the selector of the operator family. The returned
// selector is never nil; with no registered kernels it simply finds nothing
// viable.
func SelectorFor(op backends.OpType) Selector {
	if s, found := selectors[op]; found {
		return s
	}
	return &tableSelector{op: op}
}

// tableSelector is the reference Selector: it filters the registered kernels
// by declared support, ranks by descending priority (stable, so equal
// priorities keep registration order) and attaches the argument schema
// derived from the parameter record.
type tableSelector struct {
	op      backends.OpType
	kernels []Kernel
}

// BestKernels implements Selector.
func (s *tableSelector) BestKernels(p Params, opts Options) []KernelData {
	var viable []Kernel
	for _, k := range s.kernels {
		if !k.Key.Supports(p) {
			continue
		}
		if k.Validate != nil && !k.Validate(p) {
			continue
		}
		viable = append(viable, k)
	}
	if len(viable) == 0 {
		return nil
	}
	sort.SliceStable(viable, func(i, j int) bool { return viable[i].Priority > viable[j].Priority })

	schema, err := SchemaFromParams(p)
	if err != nil {
		return nil
	}
	best := make([]KernelData, 0, len(viable))
	for _, k := range viable {
		best = append(best, KernelData{
			Name:           k.Name,
			Args:           schema.Clone(),
			KernelPerInput: opts.KernelPerInput,
		})
	}
	return best
}
