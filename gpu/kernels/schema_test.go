package kernels

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
	"github.com/sungeunk/openvino/gpu/format"
)

func tensor4(dims ...int) TensorDesc {
	return TensorDesc{DType: dtypes.Float32, Format: format.Bfyx, Dims: dims}
}

func TestSchemaInputsThenOutputs(t *testing.T) {
	p := concatRecord(dtypes.Float32, format.Bfyx)
	schema, err := SchemaFromParams(p)
	require.NoError(t, err)
	require.Equal(t, ArgumentSchema{
		{Kind: KindInput, Index: 0},
		{Kind: KindInput, Index: 1},
		{Kind: KindOutput, Index: 0},
	}, schema)
}

func TestSchemaActivationSlope(t *testing.T) {
	p := &ActivationParams{Parameterized: true}
	p.Inputs = []TensorDesc{tensor4(1, 3, 4, 4), tensor4(1, 3, 1, 1)}
	p.Outputs = []TensorDesc{tensor4(1, 3, 4, 4)}

	schema, err := SchemaFromParams(p)
	require.NoError(t, err)
	require.Equal(t, ArgumentSchema{
		{Kind: KindInput, Index: 0},
		{Kind: KindSlope, Index: 1},
		{Kind: KindOutput, Index: 0},
	}, schema)

	// Non-parameterized: the same record without the auxiliary tensor.
	p = &ActivationParams{}
	p.Inputs = []TensorDesc{tensor4(1, 3, 4, 4)}
	p.Outputs = []TensorDesc{tensor4(1, 3, 4, 4)}
	schema, err = SchemaFromParams(p)
	require.NoError(t, err)
	require.Equal(t, ArgumentSchema{
		{Kind: KindInput, Index: 0},
		{Kind: KindOutput, Index: 0},
	}, schema)
}

func TestSchemaDeconvolutionWeightsAndBias(t *testing.T) {
	p := &DeconvolutionParams{Weights: tensor4(16, 4, 3, 3)}
	p.Inputs = []TensorDesc{tensor4(1, 16, 8, 8)}
	p.Outputs = []TensorDesc{tensor4(1, 4, 16, 16)}

	schema, err := SchemaFromParams(p)
	require.NoError(t, err)
	require.Equal(t, ArgumentSchema{
		{Kind: KindInput, Index: 0},
		{Kind: KindWeights, Index: 1},
		{Kind: KindOutput, Index: 0},
	}, schema)

	bias := tensor4(1, 4, 1, 1)
	p.Bias = &bias
	schema, err = SchemaFromParams(p)
	require.NoError(t, err)
	require.Equal(t, ArgumentSchema{
		{Kind: KindInput, Index: 0},
		{Kind: KindWeights, Index: 1},
		{Kind: KindBias, Index: 2},
		{Kind: KindOutput, Index: 0},
	}, schema)
}

func TestSchemaConditionalInputsPreserveOrder(t *testing.T) {
	// The builder appends conditional inputs in flag order; the schema must
	// reproduce the dependency indices verbatim.
	p := &NonMaxSuppressionParams{HasIOUThreshold: true, HasScoreThreshold: true}
	p.Inputs = []TensorDesc{
		tensor4(1, 1, 10, 4), // boxes
		tensor4(1, 1, 1, 10), // scores
		tensor4(1, 1, 1, 1),  // iou threshold
		tensor4(1, 1, 1, 1),  // score threshold
	}
	p.Outputs = []TensorDesc{tensor4(10, 1, 3, 1)}

	schema, err := SchemaFromParams(p)
	require.NoError(t, err)
	require.Len(t, schema, 5)
	for i := 0; i < 4; i++ {
		require.Equal(t, ArgumentSlot{Kind: KindInput, Index: i}, schema[i])
	}
	require.Equal(t, ArgumentSlot{Kind: KindOutput, Index: 0}, schema[4])
}

func TestSchemaRejectsEmptyRecord(t *testing.T) {
	p := &ConcatenationParams{}
	_, err := SchemaFromParams(p)
	require.Error(t, err)

	p.Inputs = []TensorDesc{tensor4(1, 3, 4, 4)}
	_, err = SchemaFromParams(p)
	require.Error(t, err, "outputs still missing")
}

func TestSchemaClone(t *testing.T) {
	schema := ArgumentSchema{{Kind: KindInput, Index: 0}, {Kind: KindOutput, Index: 0}}
	clone := schema.Clone()
	clone[0].Index = 7
	require.Equal(t, 0, schema[0].Index)
}

func TestArgumentKindString(t *testing.T) {
	require.Equal(t, "input", KindInput.String())
	require.Equal(t, "slope", KindSlope.String())
	require.Equal(t, "invalid", ArgumentKind(99).String())
}
