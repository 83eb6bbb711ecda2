package ocl

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/format"
	"github.com/sungeunk/openvino/gpu/graph"
	"github.com/sungeunk/openvino/gpu/impls"
	"github.com/sungeunk/openvino/gpu/kernels"
)

func extractImagePatchesParams(node *graph.Node) (kernels.Params, kernels.Options, error) {
	prim, err := typedPrimitive[*graph.ExtractImagePatches](node)
	if err != nil {
		return nil, kernels.Options{}, err
	}

	p := &kernels.ExtractImagePatchesParams{BaseParams: baseParams(node)}
	p.Sizes = slices.Clone(prim.Sizes)
	p.Strides = slices.Clone(prim.Strides)
	p.Rates = slices.Clone(prim.Rates)
	p.AutoPad = prim.AutoPad
	return p, kernels.Options{}, nil
}

func attachExtractImagePatches() {
	dts := []dtypes.DType{dtypes.Uint8, dtypes.Int8, dtypes.Float16, dtypes.Float32, dtypes.Int32, dtypes.Int64}
	fmts := []format.Format{format.Bfyx}
	impls.Register(backends.OpTypeExtractImagePatches, backends.EngineOCL,
		impls.NewFactory(extractImagePatchesParams), dts, fmts)

	refKey := (&kernels.ParamsKey{}).
		EnableInputDType(dts...).
		EnableOutputDType(dts...).
		EnableInputFormat(format.Bfyx).
		EnableOutputFormat(format.Bfyx)
	kernels.RegisterKernel(backends.OpTypeExtractImagePatches, kernels.Kernel{
		Name:     "extract_image_patches_ref",
		Priority: 1,
		Key:      refKey,
	})
}
