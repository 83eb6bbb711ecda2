package ocl

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/format"
	"github.com/sungeunk/openvino/gpu/graph"
	"github.com/sungeunk/openvino/gpu/impls"
	"github.com/sungeunk/openvino/gpu/kernels"
	"github.com/sungeunk/openvino/gpu/layout"
)

type testBuffer struct{ l layout.Layout }

func (b testBuffer) Layout() layout.Layout { return b.l }

func buffersFor(layouts []layout.Layout) []graph.Memory {
	mems := make([]graph.Memory, len(layouts))
	for i, l := range layouts {
		mems[i] = testBuffer{l}
	}
	return mems
}

func TestCapabilitiesRegistered(t *testing.T) {
	caps, found := backends.CapabilitiesOf(backends.EngineOCL)
	require.True(t, found)
	for _, op := range []backends.OpType{
		backends.OpTypeActivation,
		backends.OpTypeConcatenation,
		backends.OpTypeConvertColor,
		backends.OpTypeDeconvolution,
		backends.OpTypeExtractImagePatches,
		backends.OpTypeNonMaxSuppression,
		backends.OpTypeQuantize,
		backends.OpTypeSpaceToBatch,
	} {
		require.True(t, caps.SupportsOp(op), "operator %s", op)
	}
	require.False(t, caps.SupportsDType(dtypes.Float64))
}

func TestConvertAxis(t *testing.T) {
	tests := []struct {
		axis int64
		rank int
		want kernels.ConcatAxis
	}{
		{0, 4, kernels.ConcatAlongBatch},
		{1, 4, kernels.ConcatAlongFeature},
		{2, 4, kernels.ConcatAlongY},
		{3, 4, kernels.ConcatAlongX},
		{-1, 4, kernels.ConcatAlongX},
		{-2, 4, kernels.ConcatAlongY},
		{-4, 4, kernels.ConcatAlongBatch},
		{2, 5, kernels.ConcatAlongZ},
		{3, 5, kernels.ConcatAlongY},
		{4, 5, kernels.ConcatAlongX},
		{2, 6, kernels.ConcatAlongW},
		{5, 6, kernels.ConcatAlongX},
	}
	for _, test := range tests {
		got, err := convertAxis(test.axis, test.rank)
		require.NoError(t, err, "axis %d rank %d", test.axis, test.rank)
		require.Equal(t, test.want, got, "axis %d rank %d", test.axis, test.rank)
	}

	_, err := convertAxis(4, 4)
	require.ErrorIs(t, err, impls.ErrUnsupportedAxis)
	_, err = convertAxis(-5, 4)
	require.ErrorIs(t, err, impls.ErrUnsupportedAxis)
}

func concatNode(dtype dtypes.DType, f format.Format, axis int64) *graph.Node {
	in := layout.Make(dtype, f, 1, 3, 4, 4)
	return &graph.Node{
		ID:        "concat",
		Engine:    backends.EngineOCL,
		Primitive: &graph.Concatenation{Axis: axis},
		Inputs:    []layout.Layout{in, in},
		Outputs:   []layout.Layout{layout.Make(dtype, f, 1, 6, 4, 4)},
	}
}

func TestConcatenationSelectAndBind(t *testing.T) {
	node := concatNode(dtypes.Float32, format.Bfyx, 1)
	compiled, err := impls.Select(node)
	require.NoError(t, err)
	require.Equal(t, "concatenation_gpu_ref", compiled.Kernel.Name)
	require.True(t, compiled.Kernel.KernelPerInput)

	inst := graph.NewInstance(node, buffersFor(node.Inputs), buffersFor(node.Outputs))
	args, err := compiled.Arguments(inst)
	require.NoError(t, err)
	require.Len(t, args, 3)
	require.Equal(t, node.Inputs[0], args[0].Layout())
	require.Equal(t, node.Inputs[1], args[1].Layout())
	require.Equal(t, node.Outputs[0], args[2].Layout())
}

func TestConcatenationPrefersBlockedKernel(t *testing.T) {
	node := concatNode(dtypes.Float16, format.BFsYxFsv16, 1)
	compiled, err := impls.Select(node)
	require.NoError(t, err)
	require.Equal(t, "concatenation_gpu_fs_b_yx_fsv16", compiled.Kernel.Name)
}

func TestConcatenationUnsupportedAxis(t *testing.T) {
	_, err := impls.Select(concatNode(dtypes.Float32, format.Bfyx, 4))
	require.ErrorIs(t, err, impls.ErrUnsupportedAxis)

	// Builder failures report like every other compile failure: the failing
	// node id and its dispatch key ride along for diagnosis.
	var selErr *impls.SelectionError
	require.ErrorAs(t, err, &selErr)
	require.Equal(t, "concat", selErr.NodeID)
	require.Contains(t, err.Error(), `node "concat"`)
	require.Contains(t, err.Error(), "(ocl, Float32, bfyx)")
}

func TestSelectUnsupportedDType(t *testing.T) {
	_, err := impls.Select(concatNode(dtypes.Float64, format.Bfyx, 1))
	require.ErrorIs(t, err, impls.ErrNoImplementationFound)
}

func TestActivationKernelChoice(t *testing.T) {
	l := layout.Make(dtypes.Float32, format.Bfyx, 1, 8, 4, 4)
	node := &graph.Node{
		ID:        "relu",
		Engine:    backends.EngineOCL,
		Primitive: &graph.Activation{Function: graph.ActivationReLU},
		Inputs:    []layout.Layout{l},
		Outputs:   []layout.Layout{l},
	}
	compiled, err := impls.Select(node)
	require.NoError(t, err)
	require.Equal(t, "activation_opt", compiled.Kernel.Name)

	// The parameterized form falls back to the reference kernel and binds
	// the auxiliary buffer through the dedicated slope slot.
	prelu := &graph.Node{
		ID:        "prelu",
		Engine:    backends.EngineOCL,
		Primitive: &graph.Activation{Function: graph.ActivationPReLU, Parameterized: true},
		Inputs:    []layout.Layout{l, layout.Make(dtypes.Float32, format.Bfyx, 1, 8, 1, 1)},
		Outputs:   []layout.Layout{l},
	}
	compiled, err = impls.Select(prelu)
	require.NoError(t, err)
	require.Equal(t, "activation_ref", compiled.Kernel.Name)
	require.Equal(t, kernels.ArgumentSchema{
		{Kind: kernels.KindInput, Index: 0},
		{Kind: kernels.KindSlope, Index: 1},
		{Kind: kernels.KindOutput, Index: 0},
	}, compiled.Kernel.Args)
}

func TestActivationParameterBufferTooSmall(t *testing.T) {
	l := layout.Make(dtypes.Float32, format.Bfyx, 1, 8, 4, 4)
	node := &graph.Node{
		ID:        "hard_sigmoid",
		Engine:    backends.EngineOCL,
		Primitive: &graph.Activation{Function: graph.ActivationHardSigmoid, Parameterized: true},
		// hard_sigmoid reads two values per feature; 8 features need 16.
		Inputs:  []layout.Layout{l, layout.Make(dtypes.Float32, format.Bfyx, 1, 8, 1, 1)},
		Outputs: []layout.Layout{l},
	}
	_, err := impls.Select(node)
	require.Error(t, err)
	require.Contains(t, err.Error(), "needs 16")
}

func quantizeNode(id string, prim *graph.Quantize, deps int, dtype dtypes.DType, outDType dtypes.DType) *graph.Node {
	in := layout.Make(dtype, format.Bfyx, 1, 8, 4, 4)
	inputs := []layout.Layout{in}
	for i := 1; i < deps; i++ {
		inputs = append(inputs, layout.Make(dtypes.Float32, format.Bfyx, 1, 8, 1, 1))
	}
	return &graph.Node{
		ID:        id,
		Engine:    backends.EngineOCL,
		Primitive: prim,
		Inputs:    inputs,
		Outputs:   []layout.Layout{layout.Make(outDType, format.Bfyx, 1, 8, 4, 4)},
	}
}

func TestQuantizeKernelChoice(t *testing.T) {
	node := quantizeNode("q_ref", &graph.Quantize{Levels: 256}, 5, dtypes.Float32, dtypes.Uint8)
	compiled, err := impls.Select(node)
	require.NoError(t, err)
	require.Equal(t, "quantize_gpu_ref", compiled.Kernel.Name)
	require.Len(t, compiled.Kernel.Args, 6, "5 dependencies plus the output")

	node = quantizeNode("q_opt", &graph.Quantize{Levels: 256, ScaleShiftOpt: true}, 9,
		dtypes.Float32, dtypes.Uint8)
	compiled, err = impls.Select(node)
	require.NoError(t, err)
	require.Equal(t, "quantize_gpu_scale_shift_opt", compiled.Kernel.Name)
	require.Len(t, compiled.Kernel.Args, 10)
}

func TestQuantizeDependencyCountMismatch(t *testing.T) {
	// The flags announce the scale-shift form but only the plain five
	// dependencies are wired.
	node := quantizeNode("q_bad", &graph.Quantize{Levels: 256, ScaleShiftOpt: true}, 5,
		dtypes.Float32, dtypes.Uint8)
	_, err := impls.Select(node)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must have 9 dependencies")
}

func TestQuantizeRejectsF16Overflow(t *testing.T) {
	prim := &graph.Quantize{Levels: 256, InLo: -70000, InHi: 70000}
	node := quantizeNode("q_f16", prim, 5, dtypes.Float16, dtypes.Float16)
	_, err := impls.Select(node)
	require.Error(t, err)
	require.Contains(t, err.Error(), "overflows float16")
}

func nmsNode(prim *graph.NonMaxSuppression, deps int) *graph.Node {
	inputs := []layout.Layout{
		layout.Make(dtypes.Float32, format.Bfyx, 1, 10, 4, 1), // boxes
		layout.Make(dtypes.Float32, format.Bfyx, 1, 2, 10, 1), // scores
	}
	for i := 2; i < deps; i++ {
		inputs = append(inputs, layout.Make(dtypes.Float32, format.Bfyx, 1, 1, 1, 1))
	}
	return &graph.Node{
		ID:        "nms",
		Engine:    backends.EngineOCL,
		Primitive: prim,
		Inputs:    inputs,
		Outputs:   []layout.Layout{layout.Make(dtypes.Int32, format.Bfyx, 20, 3, 1, 1)},
	}
}

func TestNonMaxSuppressionConditionalInputs(t *testing.T) {
	prim := &graph.NonMaxSuppression{
		HasNumSelectPerClass: true,
		HasIOUThreshold:      true,
		HasScoreThreshold:    true,
	}
	node := nmsNode(prim, 5)
	compiled, err := impls.Select(node)
	require.NoError(t, err)
	require.Equal(t, "non_max_suppression_gpu_ref", compiled.Kernel.Name)
	require.Len(t, compiled.Kernel.Args, 6, "2 mandatory + 3 conditional inputs + output")

	inst := graph.NewInstance(node, buffersFor(node.Inputs), buffersFor(node.Outputs))
	args, err := compiled.Arguments(inst)
	require.NoError(t, err)
	require.Len(t, args, 6)
}

func TestNonMaxSuppressionDependencyCountMismatch(t *testing.T) {
	prim := &graph.NonMaxSuppression{HasIOUThreshold: true, HasSoftNMSSigma: true}
	_, err := impls.Select(nmsNode(prim, 3))
	require.Error(t, err)
	require.Contains(t, err.Error(), "announce 4 dependencies")
}

func TestSpaceToBatchSelect(t *testing.T) {
	node := &graph.Node{
		ID:     "s2b",
		Engine: backends.EngineOCL,
		Primitive: &graph.SpaceToBatch{
			BlockShape: []int{1, 1, 2, 2},
			PadsBegin:  []int{0, 0, 0, 0},
			PadsEnd:    []int{0, 0, 0, 0},
		},
		Inputs:  []layout.Layout{layout.Make(dtypes.Float32, format.Bfyx, 1, 2, 4, 4)},
		Outputs: []layout.Layout{layout.Make(dtypes.Float32, format.Bfyx, 4, 2, 2, 2)},
	}
	compiled, err := impls.Select(node)
	require.NoError(t, err)
	require.Equal(t, "space_to_batch_ref", compiled.Kernel.Name)
}

func TestExtractImagePatchesSelect(t *testing.T) {
	node := &graph.Node{
		ID:     "patches",
		Engine: backends.EngineOCL,
		Primitive: &graph.ExtractImagePatches{
			Sizes: []int{3, 3}, Strides: []int{1, 1}, Rates: []int{1, 1}, AutoPad: "valid",
		},
		Inputs:  []layout.Layout{layout.Make(dtypes.Float32, format.Bfyx, 1, 3, 10, 10)},
		Outputs: []layout.Layout{layout.Make(dtypes.Float32, format.Bfyx, 1, 27, 8, 8)},
	}
	compiled, err := impls.Select(node)
	require.NoError(t, err)
	require.Equal(t, "extract_image_patches_ref", compiled.Kernel.Name)
}

func TestConvertColorSelect(t *testing.T) {
	node := &graph.Node{
		ID:     "nv12_to_rgb",
		Engine: backends.EngineOCL,
		Primitive: &graph.ConvertColor{
			InputColorFormat:  graph.ColorNV12,
			OutputColorFormat: graph.ColorRGB,
			MemType:           graph.MemoryBuffer,
		},
		Inputs: []layout.Layout{
			layout.Make(dtypes.Uint8, format.NV12, 1, 1, 480, 640), // luma
			layout.Make(dtypes.Uint8, format.NV12, 1, 2, 240, 320), // chroma
		},
		Outputs: []layout.Layout{layout.Make(dtypes.Float32, format.Byxf, 1, 3, 480, 640)},
	}
	compiled, err := impls.Select(node)
	require.NoError(t, err)
	require.Equal(t, "convert_color_ref", compiled.Kernel.Name)
	require.Len(t, compiled.Kernel.Args, 3, "both planes plus the output")
}

func TestDeconvolutionSelect(t *testing.T) {
	node := &graph.Node{
		ID:     "deconv",
		Engine: backends.EngineOCL,
		Primitive: &graph.Deconvolution{
			Stride:   []int{2, 2},
			Pad:      []int{1, 1},
			Dilation: []int{1, 1},
			Groups:   1,
			WithBias: true,
		},
		Inputs: []layout.Layout{
			layout.Make(dtypes.Float32, format.Bfyx, 1, 16, 8, 8),
			layout.Make(dtypes.Float32, format.Bfyx, 16, 8, 3, 3),
			layout.Make(dtypes.Float32, format.Bfyx, 1, 8, 1, 1),
		},
		Outputs: []layout.Layout{layout.Make(dtypes.Float32, format.Bfyx, 1, 8, 15, 15)},
	}
	compiled, err := impls.Select(node)
	require.NoError(t, err)
	require.Equal(t, "deconvolution_gpu_bfyx_opt", compiled.Kernel.Name)
	require.Equal(t, kernels.ArgumentSchema{
		{Kind: kernels.KindInput, Index: 0},
		{Kind: kernels.KindWeights, Index: 1},
		{Kind: kernels.KindBias, Index: 2},
		{Kind: kernels.KindOutput, Index: 0},
	}, compiled.Kernel.Args)
}

func TestDeconvolutionMissingWeights(t *testing.T) {
	l := layout.Make(dtypes.Float32, format.Bfyx, 1, 16, 8, 8)
	node := &graph.Node{
		ID:        "deconv_bad",
		Engine:    backends.EngineOCL,
		Primitive: &graph.Deconvolution{Stride: []int{1, 1}, Groups: 1},
		Inputs:    []layout.Layout{l},
		Outputs:   []layout.Layout{l},
	}
	_, err := impls.Select(node)
	require.Error(t, err)
	require.Contains(t, err.Error(), "needs 2 dependencies")
}

func TestDeconvolutionGroupedWeightsPromotion(t *testing.T) {
	prim := &graph.Deconvolution{
		Stride:              []int{1, 1},
		Dilation:            []int{1, 1},
		Groups:              8,
		GroupedWeightsShape: true,
	}
	node := &graph.Node{
		ID:        "deconv_grouped",
		Engine:    backends.EngineOCL,
		Primitive: prim,
		Inputs: []layout.Layout{
			layout.Make(dtypes.Float32, format.Bfyx, 1, 128, 8, 8),
			// Degenerate x spatial: the folded weights arrive as o=128,
			// i=16, y=3, x=1 and must come out as g=8, o=16, i=16, y=1, x=3.
			layout.Make(dtypes.Float32, format.Bfyx, 128, 16, 3, 1),
		},
		Outputs: []layout.Layout{layout.Make(dtypes.Float32, format.Bfyx, 1, 128, 8, 8)},
	}

	p, _, err := deconvolutionParams(node)
	require.NoError(t, err)
	dp := p.(*kernels.DeconvolutionParams)
	require.Equal(t, format.Goiyx, dp.Weights.Format)
	require.Equal(t, []int{8, 16, 16, 1, 3}, dp.Weights.Dims)
	require.Equal(t, [3]int{3, 1, 0}, dp.FilterSize)
	require.Equal(t, 8, dp.Groups)
}

func TestDeconvolutionFoldedWeightsKeepMismatchedRank(t *testing.T) {
	// The fold is only undone while the weights still share the input's
	// rank; higher-rank weights pass through with no group split.
	prim := &graph.Deconvolution{
		Stride:              []int{1, 1},
		Dilation:            []int{1, 1},
		Groups:              8,
		GroupedWeightsShape: true,
	}
	node := &graph.Node{
		ID:        "deconv_rank5",
		Engine:    backends.EngineOCL,
		Primitive: prim,
		Inputs: []layout.Layout{
			layout.Make(dtypes.Float32, format.Bfyx, 1, 128, 8, 8),
			layout.Make(dtypes.Float32, format.Bfzyx, 128, 16, 1, 3, 3),
		},
		Outputs: []layout.Layout{layout.Make(dtypes.Float32, format.Bfyx, 1, 128, 8, 8)},
	}

	p, _, err := deconvolutionParams(node)
	require.NoError(t, err)
	dp := p.(*kernels.DeconvolutionParams)
	require.Equal(t, format.Oizyx, dp.Weights.Format)
	require.Equal(t, []int{128, 16, 1, 3, 3}, dp.Weights.Dims)
}

func TestSpatialTriple(t *testing.T) {
	require.Equal(t, [3]int{2, 3, 1}, spatialTriple([]int{3, 2}, 1), "outer-to-inner becomes x, y, z")
	require.Equal(t, [3]int{4, 3, 2}, spatialTriple([]int{2, 3, 4}, 1))
	require.Equal(t, [3]int{0, 0, 0}, spatialTriple(nil, 0))
}
