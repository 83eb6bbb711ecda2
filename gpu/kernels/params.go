// Package kernels defines the contract between operator parameter builders
// and kernel selection.
//
// A parameter builder normalizes a graph node into a Params record; a
// Selector ranks the candidate kernels able to execute that record, best
// first. The chosen candidate carries an ArgumentSchema: the single ordered
// list of named argument slots that both the builder (when declaring what
// will be present) and the binder (when collecting runtime buffers) consume,
// so the argument order can never be duplicated out of sync.
//
// The ranking policy inside a Selector is its own business; this package
// only fixes the interface and provides a table-driven reference selector
// that filters candidates by declared (dtype, format) support and sorts by
// static priority.
package kernels

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/format"
	"github.com/sungeunk/openvino/gpu/layout"
)

// TensorDesc is the kernel-selection view of one tensor: its element type,
// memory format and extents in canonical order.
type TensorDesc struct {
	DType  dtypes.DType
	Format format.Format
	Dims   []int
}

// TensorFromLayout converts a Layout into the parameter-record tensor
// description.
func TensorFromLayout(l layout.Layout) TensorDesc {
	return TensorDesc{DType: l.DType, Format: l.Format, Dims: slices.Clone(l.Dims)}
}

// Params is implemented by every operator parameter record.
type Params interface {
	// Base gives access to the tensor-description fields shared by all
	// operator families.
	Base() *BaseParams

	// OpType returns the operator family the record was built for.
	OpType() backends.OpType
}

// BaseParams carries the fields common to every parameter record: the
// mandatory and conditional input tensors, in the positional order the
// target kernel expects, and the output tensor(s).
type BaseParams struct {
	Inputs  []TensorDesc
	Outputs []TensorDesc
}

// Base implements Params.
func (p *BaseParams) Base() *BaseParams { return p }

// Options carries operator-independent tuning flags passed along to the
// selector.
type Options struct {
	// KernelPerInput asks for one kernel instance per input (used by
	// concatenation).
	KernelPerInput bool
}

// ConcatAxis is the engine's own axis convention for concatenation: batch
// and feature first, then spatials from innermost to outermost.
type ConcatAxis int

const (
	ConcatAlongBatch ConcatAxis = iota
	ConcatAlongFeature
	ConcatAlongX
	ConcatAlongY
	ConcatAlongZ
	ConcatAlongW
)

// ConcatenationParams is the parameter record for concatenation kernels.
type ConcatenationParams struct {
	BaseParams
	Axis ConcatAxis
}

// OpType implements Params.
func (*ConcatenationParams) OpType() backends.OpType { return backends.OpTypeConcatenation }

// ActivationParams is the parameter record for activation kernels. When
// Parameterized is set, Inputs carries the auxiliary per-feature parameter
// tensor as its last entry.
type ActivationParams struct {
	BaseParams

	// Function is the graph.ActivationFunc value, kept as int to leave the
	// node model out of this contract.
	Function      int
	Parameterized bool
}

// OpType implements Params.
func (*ActivationParams) OpType() backends.OpType { return backends.OpTypeActivation }

// QuantizeParams is the parameter record for quantize kernels. The Has*
// flags stay in lock-step with the conditional scale/shift inputs appended
// to Inputs.
type QuantizeParams struct {
	BaseParams

	Levels             int
	PackedBinaryOutput bool
	ScaleShiftOpt      bool

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

// OpType implements Params.
func (*QuantizeParams) OpType() backends.OpType { return backends.OpTypeQuantize }

// BoxEncodingType tells how non-max-suppression boxes are encoded.
type BoxEncodingType int

const (
	BoxEncodingCorner BoxEncodingType = iota
	BoxEncodingCenter
)

// NonMaxSuppressionParams is the parameter record for NMS kernels. Each Has*
// flag stays in lock-step with one conditional tensor appended to Inputs, in
// field order.
type NonMaxSuppressionParams struct {
	BaseParams

	SortResultDescending bool
	BoxEncoding          BoxEncodingType

	HasNumSelectPerClass bool
	HasIOUThreshold      bool
	HasScoreThreshold    bool
	HasSoftNMSSigma      bool
	HasSecondOutput      bool
	HasThirdOutput       bool
}

// OpType implements Params.
func (*NonMaxSuppressionParams) OpType() backends.OpType { return backends.OpTypeNonMaxSuppression }

// SpaceToBatchParams is the parameter record for space-to-batch kernels.
type SpaceToBatchParams struct {
	BaseParams

	BlockShape []int
	PadsBegin  []int
	PadsEnd    []int
}

// OpType implements Params.
func (*SpaceToBatchParams) OpType() backends.OpType { return backends.OpTypeSpaceToBatch }

// ExtractImagePatchesParams is the parameter record for patch-extraction
// kernels.
type ExtractImagePatchesParams struct {
	BaseParams

	Sizes   []int
	Strides []int
	Rates   []int
	AutoPad string
}

// OpType implements Params.
func (*ExtractImagePatchesParams) OpType() backends.OpType {
	return backends.OpTypeExtractImagePatches
}

// ConvertColorParams is the parameter record for color-conversion kernels.
type ConvertColorParams struct {
	BaseParams

	InputColorFormat  int
	OutputColorFormat int
	ImageMemory       bool
}

// OpType implements Params.
func (*ConvertColorParams) OpType() backends.OpType { return backends.OpTypeConvertColor }

// DeconvolutionParams is the parameter record for deconvolution kernels.
// Weights (and the optional Bias) ride outside Inputs because kernels take
// them through dedicated argument slots.
type DeconvolutionParams struct {
	BaseParams

	Weights TensorDesc
	Bias    *TensorDesc

	FilterSize [3]int // x, y, z
	Stride     [3]int
	Pad        [3]int
	Dilation   [3]int
	Groups     int
}

// OpType implements Params.
func (*DeconvolutionParams) OpType() backends.OpType { return backends.OpTypeDeconvolution }
