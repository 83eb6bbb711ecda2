package ocl

import (
	"math"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/format"
	"github.com/sungeunk/openvino/gpu/graph"
	"github.com/sungeunk/openvino/gpu/impls"
	"github.com/sungeunk/openvino/gpu/kernels"
	"github.com/x448/float16"
)

// quantizeDepsCount / quantizeScaleShiftDepsCount are the dependency counts
// of the plain and scale-shift-optimized quantize forms.
const (
	quantizeDepsCount           = 5
	quantizeScaleShiftDepsCount = 9
)

func quantizeParams(node *graph.Node) (kernels.Params, kernels.Options, error) {
	prim, err := typedPrimitive[*graph.Quantize](node)
	if err != nil {
		return nil, kernels.Options{}, err
	}

	expected := quantizeDepsCount
	if prim.ScaleShiftOpt {
		expected = quantizeScaleShiftDepsCount
	}
	if len(node.Inputs) != expected {
		return nil, kernels.Options{}, errors.Errorf(
			"quantize with scale_shift_opt=%v must have %d dependencies, got %d",
			prim.ScaleShiftOpt, expected, len(node.Inputs))
	}

	p := &kernels.QuantizeParams{BaseParams: baseParams(node)}
	for i := 1; i < len(node.Inputs); i++ {
		p.Inputs = append(p.Inputs, kernels.TensorFromLayout(node.InputLayout(i)))
	}

	p.Levels = prim.Levels
	p.PackedBinaryOutput = prim.PackedBinaryOutput
	p.ScaleShiftOpt = prim.ScaleShiftOpt
	p.HasPostScale = prim.HasPostScale
	p.HasPostShift = prim.HasPostShift
	p.HasPreShift = prim.HasPreShift
	p.HasClamp = prim.HasClamp
	p.HasMinClamp = prim.HasMinClamp
	p.HasMaxClamp = prim.HasMaxClamp

	p.PerTensorInputRange = prim.PerTensorInputRange
	p.PerTensorInputScale = prim.PerTensorInputScale
	p.PerTensorInputShift = prim.PerTensorInputShift
	p.PerTensorOutputRange = prim.PerTensorOutputRange
	p.PerTensorOutputScale = prim.PerTensorOutputScale
	p.PerTensorOutputShift = prim.PerTensorOutputShift

	p.InLo, p.InHi, p.InScale, p.InShift = prim.InLo, prim.InHi, prim.InScale, prim.InShift
	p.OutLo, p.OutHi, p.OutScale, p.OutShift = prim.OutLo, prim.OutHi, prim.OutScale, prim.OutShift

	if node.InputLayout(0).DType == dtypes.Float16 || node.OutputLayout().DType == dtypes.Float16 {
		if err := checkF16Representable(map[string]float32{
			"input_low": p.InLo, "input_high": p.InHi, "input_scale": p.InScale, "input_shift": p.InShift,
			"output_low": p.OutLo, "output_high": p.OutHi, "output_scale": p.OutScale, "output_shift": p.OutShift,
		}); err != nil {
			return nil, kernels.Options{}, err
		}
	}
	return p, kernels.Options{}, nil
}

// checkF16Representable rejects scalar attributes that overflow half
// precision when the kernel runs on f16 tensors: the JIT folds them into f16
// constants, and a silent overflow to infinity flushes the whole range.
func checkF16Representable(values map[string]float32) error {
	for name, v := range values {
		if math.IsInf(float64(v), 0) {
			continue
		}
		if float16.Fromfloat32(v).IsInf(0) {
			return errors.Errorf("quantize attribute %s=%g overflows float16 range", name, v)
		}
	}
	return nil
}

func attachQuantize() {
	dts := []dtypes.DType{dtypes.Uint8, dtypes.Int8, dtypes.Float16, dtypes.Float32, dtypes.Int32}
	fmts := []format.Format{
		format.Bfwzyx,
		format.Bfyx,
		format.Bfzyx,
		format.Byxf,
		format.Yxfb,
		format.BFsYxFsv4,
		format.BFsYxFsv16,
		format.BFsYxFsv32,
		format.BFsZyxFsv16,
		format.BFsZyxFsv32,
		format.FsBYxFsv32,
		format.BsFsYxBsv16Fsv16,
		format.BsFsYxBsv16Fsv32,
		format.BsFsYxBsv32Fsv16,
		format.BsFsYxBsv32Fsv32,
		format.BsFsZyxBsv16Fsv16,
		format.BsFsZyxBsv16Fsv32,
		format.BsFsZyxBsv32Fsv16,
		format.BsFsZyxBsv32Fsv32,
	}
	impls.Register(backends.OpTypeQuantize, backends.EngineOCL,
		impls.NewFactory(quantizeParams), dts, fmts)

	refKey := (&kernels.ParamsKey{}).
		EnableInputDType(dts...).
		EnableOutputDType(dts...).
		EnableAllInputFormats().
		EnableAllOutputFormats().
		EnableDifferentTypes()
	kernels.RegisterKernel(backends.OpTypeQuantize, kernels.Kernel{
		Name:     "quantize_gpu_ref",
		Priority: 1,
		Key:      refKey,
	})

	// The scale-shift form precomputes the per-channel scales/shifts and is
	// preferred whenever the graph provides them.
	scaleShiftKey := (&kernels.ParamsKey{}).
		EnableInputDType(dts...).
		EnableOutputDType(dts...).
		EnableAllInputFormats().
		EnableAllOutputFormats().
		EnableDifferentTypes()
	kernels.RegisterKernel(backends.OpTypeQuantize, kernels.Kernel{
		Name:     "quantize_gpu_scale_shift_opt",
		Priority: 7,
		Key:      scaleShiftKey,
		Validate: func(p kernels.Params) bool {
			qp, ok := p.(*kernels.QuantizeParams)
			return ok && qp.ScaleShiftOpt
		},
	})
}
