package kernels

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/format"
)

func concatRecord(dtype dtypes.DType, f format.Format) *ConcatenationParams {
	p := &ConcatenationParams{Axis: ConcatAlongFeature}
	p.Inputs = []TensorDesc{
		{DType: dtype, Format: f, Dims: []int{1, 3, 4, 4}},
		{DType: dtype, Format: f, Dims: []int{1, 5, 4, 4}},
	}
	p.Outputs = []TensorDesc{{DType: dtype, Format: f, Dims: []int{1, 8, 4, 4}}}
	return p
}

func TestParamsKeySupports(t *testing.T) {
	key := (&ParamsKey{}).
		EnableInputDType(dtypes.Float32).
		EnableOutputDType(dtypes.Float32).
		EnableInputFormat(format.Bfyx).
		EnableOutputFormat(format.Bfyx)

	require.True(t, key.Supports(concatRecord(dtypes.Float32, format.Bfyx)))
	require.False(t, key.Supports(concatRecord(dtypes.Float16, format.Bfyx)), "dtype not enabled")
	require.False(t, key.Supports(concatRecord(dtypes.Float32, format.Byxf)), "format not enabled")

	// A zero key supports nothing.
	require.False(t, (&ParamsKey{}).Supports(concatRecord(dtypes.Float32, format.Bfyx)))

	anyFmt := (&ParamsKey{}).
		EnableInputDType(dtypes.Float32).
		EnableOutputDType(dtypes.Float32).
		EnableAllInputFormats().
		EnableAllOutputFormats()
	require.True(t, anyFmt.Supports(concatRecord(dtypes.Float32, format.BsFsYxBsv32Fsv32)))
}

func TestParamsKeyDifferentTypes(t *testing.T) {
	key := (&ParamsKey{}).
		EnableInputDType(dtypes.Float32).
		EnableOutputDType(dtypes.Float32, dtypes.Float16).
		EnableAllInputFormats().
		EnableAllOutputFormats()

	mixed := concatRecord(dtypes.Float32, format.Bfyx)
	mixed.Outputs[0].DType = dtypes.Float16
	require.False(t, key.Supports(mixed), "in/out dtype mismatch needs an explicit opt-in")
	require.True(t, key.EnableDifferentTypes().Supports(mixed))
}

func TestSelectorRanking(t *testing.T) {
	op := backends.OpTypeConcatenation
	wide := (&ParamsKey{}).
		EnableInputDType(dtypes.Float16, dtypes.Float32).
		EnableOutputDType(dtypes.Float16, dtypes.Float32).
		EnableAllInputFormats().
		EnableAllOutputFormats()
	narrow := (&ParamsKey{}).
		EnableInputDType(dtypes.Float16).
		EnableOutputDType(dtypes.Float16).
		EnableInputFormat(format.BFsYxFsv16).
		EnableOutputFormat(format.BFsYxFsv16)

	RegisterKernel(op, Kernel{Name: "test_ref", Priority: 1, Key: wide})
	RegisterKernel(op, Kernel{Name: "test_opt", Priority: 7, Key: narrow})
	RegisterKernel(op, Kernel{Name: "test_ref_sibling", Priority: 1, Key: wide})

	// Both viable: the higher priority wins, equal priorities keep
	// registration order.
	best := SelectorFor(op).BestKernels(concatRecord(dtypes.Float16, format.BFsYxFsv16), Options{})
	require.Len(t, best, 3)
	require.Equal(t, "test_opt", best[0].Name)
	require.Equal(t, "test_ref", best[1].Name)
	require.Equal(t, "test_ref_sibling", best[2].Name)

	// Only the wide kernels survive the format filter.
	best = SelectorFor(op).BestKernels(concatRecord(dtypes.Float32, format.Bfyx), Options{})
	require.Len(t, best, 2)
	require.Equal(t, "test_ref", best[0].Name)

	// Every candidate carries an independent schema copy.
	best[0].Args[0].Index = 99
	require.Equal(t, 0, best[1].Args[0].Index)
}

func TestSelectorValidateVeto(t *testing.T) {
	op := backends.OpTypeSpaceToBatch
	key := (&ParamsKey{}).
		EnableInputDType(dtypes.Float32).
		EnableOutputDType(dtypes.Float32).
		EnableAllInputFormats().
		EnableAllOutputFormats()
	RegisterKernel(op, Kernel{
		Name: "test_veto", Priority: 1, Key: key,
		Validate: func(p Params) bool {
			return p.(*SpaceToBatchParams).BlockShape[0] == 1
		},
	})

	p := &SpaceToBatchParams{BlockShape: []int{1, 2}, PadsBegin: []int{0, 0}, PadsEnd: []int{0, 0}}
	p.Inputs = []TensorDesc{{DType: dtypes.Float32, Format: format.Bfyx, Dims: []int{1, 2, 4, 4}}}
	p.Outputs = []TensorDesc{{DType: dtypes.Float32, Format: format.Bfyx, Dims: []int{2, 2, 4, 2}}}
	require.Len(t, SelectorFor(op).BestKernels(p, Options{}), 1)

	p.BlockShape[0] = 2
	require.Empty(t, SelectorFor(op).BestKernels(p, Options{}))
}

func TestSelectorCarriesKernelPerInput(t *testing.T) {
	op := backends.OpTypeExtractImagePatches
	RegisterKernel(op, Kernel{
		Name:     "test_per_input",
		Priority: 1,
		Key: (&ParamsKey{}).
			EnableInputDType(dtypes.Float32).
			EnableOutputDType(dtypes.Float32).
			EnableAllInputFormats().
			EnableAllOutputFormats(),
	})

	p := &ExtractImagePatchesParams{Sizes: []int{3, 3}, Strides: []int{1, 1}, Rates: []int{1, 1}}
	p.Inputs = []TensorDesc{{DType: dtypes.Float32, Format: format.Bfyx, Dims: []int{1, 3, 10, 10}}}
	p.Outputs = []TensorDesc{{DType: dtypes.Float32, Format: format.Bfyx, Dims: []int{1, 27, 8, 8}}}
	best := SelectorFor(op).BestKernels(p, Options{KernelPerInput: true})
	require.Len(t, best, 1)
	require.True(t, best[0].KernelPerInput)

	best = SelectorFor(op).BestKernels(p, Options{})
	require.Len(t, best, 1)
	require.False(t, best[0].KernelPerInput)
}

func TestSelectorForUnknownOp(t *testing.T) {
	s := SelectorFor(backends.OpTypeInvalid)
	require.NotNil(t, s)
	require.Empty(t, s.BestKernels(concatRecord(dtypes.Float32, format.Bfyx), Options{}))
}

func TestRegisterKernelRequiresKey(t *testing.T) {
	require.Panics(t, func() {
		RegisterKernel(backends.OpTypeQuantize, Kernel{Name: "test_no_key", Priority: 1})
	})
}
