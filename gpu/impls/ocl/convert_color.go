package ocl

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/format"
	"github.com/sungeunk/openvino/gpu/graph"
	"github.com/sungeunk/openvino/gpu/impls"
	"github.com/sungeunk/openvino/gpu/kernels"
)

func convertColorParams(node *graph.Node) (kernels.Params, kernels.Options, error) {
	prim, err := typedPrimitive[*graph.ConvertColor](node)
	if err != nil {
		return nil, kernels.Options{}, err
	}

	p := &kernels.ConvertColorParams{BaseParams: baseParams(node)}
	// Planar sources (e.g. NV12 luma + chroma) arrive as extra dependencies.
	for i := 1; i < len(node.Inputs); i++ {
		p.Inputs = append(p.Inputs, kernels.TensorFromLayout(node.InputLayout(i)))
	}
	p.InputColorFormat = int(prim.InputColorFormat)
	p.OutputColorFormat = int(prim.OutputColorFormat)
	p.ImageMemory = prim.MemType == graph.MemoryImage
	return p, kernels.Options{}, nil
}

func attachConvertColor() {
	dts := []dtypes.DType{dtypes.Uint8, dtypes.Float16, dtypes.Float32}
	fmts := []format.Format{
		format.Byxf,
		format.NV12,
	}
	impls.Register(backends.OpTypeConvertColor, backends.EngineOCL,
		impls.NewFactory(convertColorParams), dts, fmts)

	refKey := (&kernels.ParamsKey{}).
		EnableInputDType(dts...).
		EnableOutputDType(dts...).
		EnableAllInputFormats().
		EnableAllOutputFormats().
		EnableDifferentTypes()
	kernels.RegisterKernel(backends.OpTypeConvertColor, kernels.Kernel{
		Name:     "convert_color_ref",
		Priority: 1,
		Key:      refKey,
	})
}
