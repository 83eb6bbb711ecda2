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

// convertAxis remaps the front end's logical concatenation axis into the
// engine's own convention. The front end lists dimensions batch, feature,
// then spatials outer-to-inner; the engine counts spatials from the
// innermost, so spatial axes are reversed after batch and feature.
func convertAxis(axis int64, rank int) (kernels.ConcatAxis, error) {
	idx := axis
	if idx < 0 {
		idx += int64(rank)
	}
	if idx < 0 || idx >= int64(rank) {
		return 0, errors.Wrapf(impls.ErrUnsupportedAxis,
			"concatenation axis %d exceeds rank %d", axis, rank)
	}

	a := int(idx)
	if a >= 2 {
		spatialAxis := a - 2
		// Default and minimum number of dimensions is 4.
		spatialSize := max(rank, 4) - 2
		a = spatialSize - spatialAxis - 1 + 2
	}

	switch a {
	case 0:
		return kernels.ConcatAlongBatch, nil
	case 1:
		return kernels.ConcatAlongFeature, nil
	case 2:
		return kernels.ConcatAlongX, nil
	case 3:
		return kernels.ConcatAlongY, nil
	case 4:
		return kernels.ConcatAlongZ, nil
	case 5:
		return kernels.ConcatAlongW, nil
	}
	return 0, errors.Wrapf(impls.ErrUnsupportedAxis, "concatenation axis %d", axis)
}

func concatenationParams(node *graph.Node) (kernels.Params, kernels.Options, error) {
	prim, err := typedPrimitive[*graph.Concatenation](node)
	if err != nil {
		return nil, kernels.Options{}, err
	}

	p := &kernels.ConcatenationParams{}
	p.Inputs = make([]kernels.TensorDesc, 0, len(node.Inputs))
	for i := range node.Inputs {
		p.Inputs = append(p.Inputs, kernels.TensorFromLayout(node.InputLayout(i)))
	}
	p.Outputs = []kernels.TensorDesc{kernels.TensorFromLayout(node.OutputLayout())}

	p.Axis, err = convertAxis(prim.Axis, node.OutputLayout().Rank())
	if err != nil {
		return nil, kernels.Options{}, err
	}
	return p, kernels.Options{KernelPerInput: true}, nil
}

func attachConcatenation() {
	dts := []dtypes.DType{dtypes.Uint8, dtypes.Int8, dtypes.Float16, dtypes.Float32, dtypes.Int32, dtypes.Int64}
	fmts := []format.Format{
		format.Bfwzyx,
		format.Bfyx,
		format.Bfzyx,
		format.Byxf,
		format.Fyxb,
		format.Yxfb,
		format.BFsYxFsv4,
		format.BFsYxFsv16,
		format.BFsYxFsv32,
		format.BFsZyxFsv16,
		format.FsBYxFsv32,
		format.BsFsYxBsv16Fsv16,
		format.BsFsYxBsv32Fsv16,
		format.BsFsYxBsv32Fsv32,
		format.BsFsZyxBsv16Fsv16,
	}
	impls.Register(backends.OpTypeConcatenation, backends.EngineOCL,
		impls.NewFactory(concatenationParams), dts, fmts)

	refKey := (&kernels.ParamsKey{}).
		EnableInputDType(dts...).
		EnableOutputDType(dts...).
		EnableInputFormat(fmts...).
		EnableOutputFormat(fmts...)
	kernels.RegisterKernel(backends.OpTypeConcatenation, kernels.Kernel{
		Name:     "concatenation_gpu_ref",
		Priority: 1,
		Key:      refKey,
	})

	fsv16Key := (&kernels.ParamsKey{}).
		EnableInputDType(dtypes.Float16, dtypes.Float32).
		EnableOutputDType(dtypes.Float16, dtypes.Float32).
		EnableInputFormat(format.BFsYxFsv16).
		EnableOutputFormat(format.BFsYxFsv16)
	kernels.RegisterKernel(backends.OpTypeConcatenation, kernels.Kernel{
		Name:     "concatenation_gpu_fs_b_yx_fsv16",
		Priority: 7,
		Key:      fsv16Key,
	})
}
