package graph

import "github.com/sungeunk/openvino/gpu/backends"

// ActivationFunc enumerates the activation functions an activation node can
// apply.
type ActivationFunc int

const (
	ActivationNone ActivationFunc = iota
	ActivationReLU
	ActivationPReLU
	ActivationLogistic
	ActivationHyperbolicTan
	ActivationHardSigmoid
)

var activationFuncNames = []string{"none", "relu", "prelu", "logistic", "hyperbolic_tan", "hard_sigmoid"}

// String implements fmt.Stringer.
func (a ActivationFunc) String() string {
	if a < 0 || int(a) >= len(activationFuncNames) {
		return "invalid"
	}
	return activationFuncNames[a]
}

// AdditionalParamsNum returns how many per-feature parameter values the
// function reads from the auxiliary input, or 0 for non-parameterized
// functions.
func (a ActivationFunc) AdditionalParamsNum() int {
	switch a {
	case ActivationPReLU:
		return 1
	case ActivationHardSigmoid:
		return 2
	}
	return 0
}

// Activation applies an element-wise function; parameterized functions read
// their per-feature parameters from an auxiliary input at dependency index 1.
type Activation struct {
	Function ActivationFunc

	// Parameterized is set when the node carries the auxiliary parameter
	// input.
	Parameterized bool
}

// OpType implements Primitive.
func (*Activation) OpType() backends.OpType { return backends.OpTypeActivation }

// Concatenation joins its inputs along one axis. Axis follows the logical
// dimension convention of the front end (negative values count from the
// end); the parameter builder remaps it into the engine's own convention.
type Concatenation struct {
	Axis int64
}

// OpType implements Primitive.
func (*Concatenation) OpType() backends.OpType { return backends.OpTypeConcatenation }

// ColorFormat enumerates color layouts understood by convert_color.
type ColorFormat int

const (
	ColorRGB ColorFormat = iota
	ColorBGR
	ColorRGBX
	ColorBGRX
	ColorNV12
	ColorI420
)

// MemoryKind tells whether a convert_color node reads/writes buffer or image
// memory objects.
type MemoryKind int

const (
	MemoryBuffer MemoryKind = iota
	MemoryImage
)

// ConvertColor converts between media color formats.
type ConvertColor struct {
	InputColorFormat  ColorFormat
	OutputColorFormat ColorFormat
	MemType           MemoryKind
}

// OpType implements Primitive.
func (*ConvertColor) OpType() backends.OpType { return backends.OpTypeConvertColor }

// Deconvolution (transposed convolution) with weights at dependency index 1
// and an optional bias at index 2.
type Deconvolution struct {
	// Stride, Pad and Dilation are listed outer-to-inner spatial, as given
	// by the front end.
	Stride   []int
	Pad      []int
	Dilation []int

	Groups int

	// GroupedWeightsShape is set when the weights tensor carries the group
	// extent folded into its leading dimension instead of an explicit group
	// axis.
	GroupedWeightsShape bool

	// WithBias is set when dependency 2 holds a bias tensor.
	WithBias bool
}

// OpType implements Primitive.
func (*Deconvolution) OpType() backends.OpType { return backends.OpTypeDeconvolution }

// ExtractImagePatches gathers sliding-window patches from the input image.
type ExtractImagePatches struct {
	Sizes   []int
	Strides []int
	Rates   []int
	AutoPad string
}

// OpType implements Primitive.
func (*ExtractImagePatches) OpType() backends.OpType { return backends.OpTypeExtractImagePatches }

// NonMaxSuppression filters detection boxes. The two mandatory dependencies
// are boxes and scores; each Has* flag announces one further dependency, in
// the field order below.
type NonMaxSuppression struct {
	CenterPointBox       bool
	SortResultDescending bool

	HasNumSelectPerClass bool
	HasIOUThreshold      bool
	HasScoreThreshold    bool
	HasSoftNMSSigma      bool

	// HasSecondOutput / HasThirdOutput announce the auxiliary output
	// tensors (selected scores, valid outputs count), passed as trailing
	// dependencies the kernel writes to.
	HasSecondOutput bool
	HasThirdOutput  bool
}

// OpType implements Primitive.
func (*NonMaxSuppression) OpType() backends.OpType { return backends.OpTypeNonMaxSuppression }

// OptionalInputsCount returns how many conditional dependencies the flags
// announce.
func (p *NonMaxSuppression) OptionalInputsCount() int {
	n := 0
	for _, flag := range []bool{p.HasNumSelectPerClass, p.HasIOUThreshold, p.HasScoreThreshold,
		p.HasSoftNMSSigma, p.HasSecondOutput, p.HasThirdOutput} {
		if flag {
			n++
		}
	}
	return n
}

// Quantize maps input values into a discrete set of levels. Dependencies are
// input, input_low, input_high, output_low, output_high; the scale-shift
// optimized form adds in_scale, in_shift, out_scale, out_shift for a total
// of nine.
type Quantize struct {
	Levels             int
	PackedBinaryOutput bool

	// ScaleShiftOpt selects the optimized kernel fed by the four extra
	// scale/shift dependencies.
	ScaleShiftOpt bool

	HasPostScale bool
	HasPostShift bool
	HasPreShift  bool
	HasClamp     bool
	HasMinClamp  bool
	HasMaxClamp  bool

	PerTensorInputRange  bool
	PerTensorInputScale  bool
	PerTensorInputShift  bool
	PerTensorOutputRange bool
	PerTensorOutputScale bool
	PerTensorOutputShift bool

	InLo, InHi, InScale, InShift     float32
	OutLo, OutHi, OutScale, OutShift float32
}

// OpType implements Primitive.
func (*Quantize) OpType() backends.OpType { return backends.OpTypeQuantize }

// SpaceToBatch rearranges spatial blocks into the batch dimension.
type SpaceToBatch struct {
	BlockShape []int
	PadsBegin  []int
	PadsEnd    []int
}

// OpType implements Primitive.
func (*SpaceToBatch) OpType() backends.OpType { return backends.OpTypeSpaceToBatch }
