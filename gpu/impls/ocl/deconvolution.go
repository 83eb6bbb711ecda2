package ocl

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/format"
	"github.com/sungeunk/openvino/gpu/graph"
	"github.com/sungeunk/openvino/gpu/impls"
	"github.com/sungeunk/openvino/gpu/kernels"
	"github.com/sungeunk/openvino/gpu/layout"
)

func deconvolutionParams(node *graph.Node) (kernels.Params, kernels.Options, error) {
	prim, err := typedPrimitive[*graph.Deconvolution](node)
	if err != nil {
		return nil, kernels.Options{}, err
	}
	expected := 2
	if prim.WithBias {
		expected = 3
	}
	if len(node.Inputs) < expected {
		return nil, kernels.Options{}, errors.Errorf(
			"deconvolution needs %d dependencies, node has %d",
			expected, len(node.Inputs))
	}

	grouped := prim.Groups > 1
	weights := node.InputLayout(1).ConvertToWeightsLayout(grouped && !prim.GroupedWeightsShape)
	weights = promoteGroupedWeights(weights, node.InputLayout(0), prim)

	p := &kernels.DeconvolutionParams{BaseParams: baseParams(node)}
	p.Weights = kernels.TensorFromLayout(weights)
	if prim.WithBias {
		bias := kernels.TensorFromLayout(node.InputLayout(2))
		p.Bias = &bias
	}
	p.Groups = prim.Groups
	for i := 0; i < weights.Format.SpatialNum() && i < 3; i++ {
		p.FilterSize[i] = weights.Spatial(i)
	}
	p.Stride = spatialTriple(prim.Stride, 1)
	p.Pad = spatialTriple(prim.Pad, 0)
	p.Dilation = spatialTriple(prim.Dilation, 1)
	return p, kernels.Options{}, nil
}

// promoteGroupedWeights normalizes weights that arrive with the group extent
// folded into the leading output-feature dimension. The promotion only
// applies while the fold is still visible, i.e. the weights rank equals the
// input rank; weights that already carry their own rank pass through
// untouched. When the fold also left a degenerate innermost spatial (x == 1
// while y != 1), the two spatials are swapped before the group axis is split
// out into a rank+1 grouped weights layout.
func promoteGroupedWeights(weights, input layout.Layout, prim *graph.Deconvolution) layout.Layout {
	if !prim.GroupedWeightsShape || prim.Groups <= 1 || input.Rank() != weights.Rank() {
		return weights
	}
	if weights.Spatial(0) == 1 && weights.Spatial(1) != 1 {
		dims := append([]int(nil), weights.Dims...)
		last := len(dims) - 1
		dims[last], dims[last-1] = dims[last-1], dims[last]
		weights.Dims = dims
	}
	promoted := make([]int, 0, weights.Rank()+1)
	promoted = append(promoted, prim.Groups, weights.Dims[0]/prim.Groups)
	promoted = append(promoted, weights.Dims[1:]...)
	return layout.Make(weights.DType, format.DefaultFormat(weights.Rank()+1, true, true), promoted...)
}

// spatialTriple converts an outer-to-inner spatial attribute list into the
// kernel convention of x, y, z; missing dimensions take fill.
func spatialTriple(vals []int, fill int) [3]int {
	out := [3]int{fill, fill, fill}
	for i, v := range vals {
		idx := len(vals) - 1 - i
		if idx < 3 {
			out[idx] = v
		}
	}
	return out
}

func attachDeconvolution() {
	dts := []dtypes.DType{dtypes.Uint8, dtypes.Int8, dtypes.Float16, dtypes.Float32}
	fmts := []format.Format{
		format.Bfyx,
		format.Bfzyx,
		format.BFsYxFsv16,
		format.BFsZyxFsv16,
		format.BsFsYxBsv16Fsv16,
		format.BsFsZyxBsv16Fsv16,
		format.Byxf,
	}
	impls.Register(backends.OpTypeDeconvolution, backends.EngineOCL,
		impls.NewFactory(deconvolutionParams), dts, fmts)

	refKey := (&kernels.ParamsKey{}).
		EnableInputDType(dts...).
		EnableOutputDType(dts...).
		EnableAllInputFormats().
		EnableAllOutputFormats().
		EnableDifferentTypes()
	kernels.RegisterKernel(backends.OpTypeDeconvolution, kernels.Kernel{
		Name:     "deconvolution_gpu_ref",
		Priority: 1,
		Key:      refKey,
	})

	optKey := (&kernels.ParamsKey{}).
		EnableInputDType(dtypes.Float16, dtypes.Float32).
		EnableOutputDType(dtypes.Float16, dtypes.Float32).
		EnableInputFormat(format.Bfyx).
		EnableOutputFormat(format.Bfyx)
	kernels.RegisterKernel(backends.OpTypeDeconvolution, kernels.Kernel{
		Name:     "deconvolution_gpu_bfyx_opt",
		Priority: 7,
		Key:      optKey,
		Validate: func(p kernels.Params) bool {
			dp, ok := p.(*kernels.DeconvolutionParams)
			if !ok {
				return false
			}
			// The optimized kernel handles ungrouped 2D filters only.
			return dp.Groups <= 1 && dp.FilterSize[2] <= 1 && dp.Dilation == [3]int{1, 1, 1}
		},
	})
}
