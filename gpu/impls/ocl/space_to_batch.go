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

func spaceToBatchParams(node *graph.Node) (kernels.Params, kernels.Options, error) {
	prim, err := typedPrimitive[*graph.SpaceToBatch](node)
	if err != nil {
		return nil, kernels.Options{}, err
	}

	p := &kernels.SpaceToBatchParams{BaseParams: baseParams(node)}
	p.BlockShape = slices.Clone(prim.BlockShape)
	p.PadsBegin = slices.Clone(prim.PadsBegin)
	p.PadsEnd = slices.Clone(prim.PadsEnd)
	return p, kernels.Options{}, nil
}

func attachSpaceToBatch() {
	dts := []dtypes.DType{dtypes.Uint8, dtypes.Int8, dtypes.Float16, dtypes.Float32}
	fmts := []format.Format{
		format.Bfwzyx,
		format.Bfyx,
		format.Bfzyx,
		format.BFsZyxFsv16,
	}
	impls.Register(backends.OpTypeSpaceToBatch, backends.EngineOCL,
		impls.NewFactory(spaceToBatchParams), dts, fmts)

	refKey := (&kernels.ParamsKey{}).
		EnableInputDType(dts...).
		EnableOutputDType(dts...).
		EnableAllInputFormats().
		EnableAllOutputFormats()
	kernels.RegisterKernel(backends.OpTypeSpaceToBatch, kernels.Kernel{
		Name:     "space_to_batch_ref",
		Priority: 1,
		Key:      refKey,
	})
}
