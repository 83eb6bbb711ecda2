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

// nmsMandatoryInputs is boxes plus scores.
const nmsMandatoryInputs = 2

func nonMaxSuppressionParams(node *graph.Node) (kernels.Params, kernels.Options, error) {
	prim, err := typedPrimitive[*graph.NonMaxSuppression](node)
	if err != nil {
		return nil, kernels.Options{}, err
	}

	expected := nmsMandatoryInputs + prim.OptionalInputsCount()
	if len(node.Inputs) != expected {
		return nil, kernels.Options{}, errors.Errorf(
			"non_max_suppression flags announce %d dependencies, node has %d",
			expected, len(node.Inputs))
	}

	p := &kernels.NonMaxSuppressionParams{BaseParams: baseParams(node)}
	p.Inputs = append(p.Inputs, kernels.TensorFromLayout(node.InputLayout(1))) // scores

	p.SortResultDescending = prim.SortResultDescending
	if prim.CenterPointBox {
		p.BoxEncoding = kernels.BoxEncodingCenter
	} else {
		p.BoxEncoding = kernels.BoxEncodingCorner
	}

	// Conditional inputs follow the mandatory ones in flag order; each
	// append sets its flag so the kernel knows the argument will be present
	// at run time.
	next := nmsMandatoryInputs
	appendOptional := func(flag *bool) {
		p.Inputs = append(p.Inputs, kernels.TensorFromLayout(node.InputLayout(next)))
		*flag = true
		next++
	}
	if prim.HasNumSelectPerClass {
		appendOptional(&p.HasNumSelectPerClass)
	}
	if prim.HasIOUThreshold {
		appendOptional(&p.HasIOUThreshold)
	}
	if prim.HasScoreThreshold {
		appendOptional(&p.HasScoreThreshold)
	}
	if prim.HasSoftNMSSigma {
		appendOptional(&p.HasSoftNMSSigma)
	}
	if prim.HasSecondOutput {
		appendOptional(&p.HasSecondOutput)
	}
	if prim.HasThirdOutput {
		appendOptional(&p.HasThirdOutput)
	}
	return p, kernels.Options{}, nil
}

func attachNonMaxSuppression() {
	dts := []dtypes.DType{dtypes.Float16, dtypes.Float32, dtypes.Int32}
	fmts := []format.Format{
		format.Bfyx,
	}
	impls.Register(backends.OpTypeNonMaxSuppression, backends.EngineOCL,
		impls.NewFactory(nonMaxSuppressionParams), dts, fmts)

	refKey := (&kernels.ParamsKey{}).
		EnableInputDType(dtypes.Int32, dtypes.Float16, dtypes.Float32).
		EnableOutputDType(dtypes.Int32, dtypes.Int64, dtypes.Float16, dtypes.Float32).
		EnableAllInputFormats().
		EnableAllOutputFormats().
		EnableDifferentTypes()
	kernels.RegisterKernel(backends.OpTypeNonMaxSuppression, kernels.Kernel{
		Name:     "non_max_suppression_gpu_ref",
		Priority: 1,
		Key:      refKey,
	})
}
