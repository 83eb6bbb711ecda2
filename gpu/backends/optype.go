package backends

// OpType is an enum of the operator families an engine can implement.
//
// Each operator family has its own implementation registry (see gpu/impls)
// and its own kernel selector (see gpu/kernels).
type OpType int

const (
	OpTypeInvalid OpType = iota

	OpTypeActivation
	OpTypeConcatenation
	OpTypeConvertColor
	OpTypeDeconvolution
	OpTypeExtractImagePatches
	OpTypeNonMaxSuppression
	OpTypeQuantize
	OpTypeSpaceToBatch

	opTypeCount
)

var opTypeNames = [opTypeCount]string{
	"invalid",
	"activation",
	"concatenation",
	"convert_color",
	"deconvolution",
	"extract_image_patches",
	"non_max_suppression",
	"quantize",
	"space_to_batch",
}

// String implements fmt.Stringer.
func (op OpType) String() string {
	if op < 0 || op >= opTypeCount {
		return "invalid"
	}
	return opTypeNames[op]
}
