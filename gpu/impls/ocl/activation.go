package ocl

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/format"
	"github.com/sungeunk/openvino/gpu/graph"
	"github.com/sungeunk/openvino/gpu/impls"
	"github.com/sungeunk/openvino/gpu/kernels"
)

func activationParams(node *graph.Node) (kernels.Params, kernels.Options, error) {
	prim, err := typedPrimitive[*graph.Activation](node)
	if err != nil {
		return nil, kernels.Options{}, err
	}

	p := &kernels.ActivationParams{BaseParams: baseParams(node)}
	p.Function = int(prim.Function)
	p.Parameterized = prim.Parameterized

	if prim.Parameterized {
		if len(node.Inputs) < 2 {
			return nil, kernels.Options{}, errors.New(
				"parameterized activation misses its parameter input")
		}
		slopeLayout := node.InputLayout(1)
		paramsNum := prim.Function.AdditionalParamsNum()
		needed := node.OutputLayout().Feature() * paramsNum
		if slopeLayout.Count() < needed {
			return nil, kernels.Options{}, errors.Errorf(
				"activation parameter buffer holds %d values, %s needs %d",
				slopeLayout.Count(), prim.Function, needed)
		}
		p.Inputs = append(p.Inputs, kernels.TensorFromLayout(slopeLayout))
	}
	return p, kernels.Options{}, nil
}

func attachActivation() {
	dts := []dtypes.DType{dtypes.Uint8, dtypes.Int8, dtypes.Float16, dtypes.Float32, dtypes.Int32}
	fmts := []format.Format{
		format.Bfwzyx,
		format.Bfyx,
		format.Bfzyx,
		format.Byxf,
		format.Yxfb,
		format.BFsYxFsv16,
		format.BFsYxFsv32,
		format.BFsZyxFsv16,
		format.FsBYxFsv32,
		format.BsFsYxBsv16Fsv16,
		format.BsFsYxBsv32Fsv16,
		format.BsFsYxBsv32Fsv32,
		format.BsFsZyxBsv16Fsv16,
	}
	impls.Register(backends.OpTypeActivation, backends.EngineOCL,
		impls.NewFactory(activationParams), dts, fmts)

	refKey := (&kernels.ParamsKey{}).
		EnableInputDType(dts...).
		EnableOutputDType(dts...).
		EnableAllInputFormats().
		EnableAllOutputFormats().
		EnableDifferentTypes()
	kernels.RegisterKernel(backends.OpTypeActivation, kernels.Kernel{
		Name:     "activation_ref",
		Priority: 1,
		Key:      refKey,
	})

	optKey := (&kernels.ParamsKey{}).
		EnableInputDType(dtypes.Float16, dtypes.Float32).
		EnableOutputDType(dtypes.Float16, dtypes.Float32).
		EnableInputFormat(format.Bfyx, format.Yxfb).
		EnableOutputFormat(format.Bfyx, format.Yxfb)
	kernels.RegisterKernel(backends.OpTypeActivation, kernels.Kernel{
		Name:     "activation_opt",
		Priority: 7,
		Key:      optKey,
		Validate: func(p kernels.Params) bool {
			// The vectorized kernel cannot read the auxiliary buffer.
			ap, ok := p.(*kernels.ActivationParams)
			return ok && !ap.Parameterized
		},
	})
}
