// Package ocl implements operator parameter building and implementation
// registration for the generic device-kernel (OCL) engine.
//
// One file per operator family: each converts the node's attributes and
// layouts into the kernel-selection parameter record, registers its factory
// under the (engine, dtype, format) cross-product it supports, and registers
// the reference kernels its selector chooses among.
//
// Importing the package attaches everything; registration happens in init,
// before any graph compiles.
package ocl

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/sungeunk/openvino/gpu/backends"
	"github.com/sungeunk/openvino/gpu/graph"
	"github.com/sungeunk/openvino/gpu/kernels"
)

func init() {
	registerImplementations()
}

func registerImplementations() {
	attachActivation()
	attachConcatenation()
	attachConvertColor()
	attachDeconvolution()
	attachExtractImagePatches()
	attachNonMaxSuppression()
	attachQuantize()
	attachSpaceToBatch()

	backends.RegisterCapabilities(backends.EngineOCL, backends.Capabilities{
		Operations: map[backends.OpType]bool{
			backends.OpTypeActivation:          true,
			backends.OpTypeConcatenation:       true,
			backends.OpTypeConvertColor:        true,
			backends.OpTypeDeconvolution:       true,
			backends.OpTypeExtractImagePatches: true,
			backends.OpTypeNonMaxSuppression:   true,
			backends.OpTypeQuantize:            true,
			backends.OpTypeSpaceToBatch:        true,
		},
		DTypes: map[dtypes.DType]bool{
			dtypes.Uint8:   true,
			dtypes.Int8:    true,
			dtypes.Float16: true,
			dtypes.Float32: true,
			dtypes.Int32:   true,
			dtypes.Int64:   true,
		},
	})
}

// typedPrimitive casts the node's attribute record, reporting a useful error
// when the graph hands us the wrong operator. The dispatch driver decorates
// builder errors with the node id and dispatch key.
func typedPrimitive[T graph.Primitive](node *graph.Node) (T, error) {
	prim, ok := node.Primitive.(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("expected %T attributes, got %T", zero, node.Primitive)
	}
	return prim, nil
}

// baseParams fills the tensor-description fields every parameter record
// starts from: the primary input and the primary output.
func baseParams(node *graph.Node) kernels.BaseParams {
	return kernels.BaseParams{
		Inputs:  []kernels.TensorDesc{kernels.TensorFromLayout(node.InputLayout(0))},
		Outputs: []kernels.TensorDesc{kernels.TensorFromLayout(node.OutputLayout())},
	}
}
