// Package layout pairs a memory format with an element data type and
// concrete tensor extents.
//
// A Layout is created once per graph-node input/output at compile time, from
// the shape-inference result, and is treated as immutable afterwards. The one
// exception is the controlled promotion of grouped weights to an extra rank,
// performed by an operator parameter builder before kernel selection; that
// promotion always goes through format.DefaultFormat.
package layout

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/sungeunk/openvino/gpu/format"
)

// Padding describes optional sub-tensor offsets: extra elements allocated
// below and above the data area in each dimension, plus the value the padded
// area is filled with.
type Padding struct {
	Lower, Upper []int
	FillValue    float32
}

// IsZero reports whether the padding adds no elements in any dimension.
func (p Padding) IsZero() bool {
	for _, v := range p.Lower {
		if v != 0 {
			return false
		}
	}
	for _, v := range p.Upper {
		if v != 0 {
			return false
		}
	}
	return true
}

// Layout describes the memory arrangement of one tensor: a format, an
// element data type and per-dimension extents in the format's canonical
// external order.
type Layout struct {
	Format format.Format
	DType  dtypes.DType
	// Dims are the tensor extents in canonical order: batch, feature,
	// spatial outer-to-inner, with a leading group extent on grouped
	// weights formats.
	Dims []int
	Pad  Padding
}

// Make returns a Layout with the given element type, format and dimensions.
//
// The number of dimensions must match the format's rank.
func Make(dtype dtypes.DType, f format.Format, dims ...int) Layout {
	if len(dims) != f.Dimension() {
		exceptions.Panicf("layout.Make: format %s has rank %d, got %d dimensions",
			f, f.Dimension(), len(dims))
	}
	for _, dim := range dims {
		if dim <= 0 {
			exceptions.Panicf("layout.Make(%s, %s, %v): dimensions must be > 0", dtype, f, dims)
		}
	}
	return Layout{Format: f, DType: dtype, Dims: slices.Clone(dims)}
}

// Rank returns the number of dimensions of the layout.
func (l Layout) Rank() int { return len(l.Dims) }

// Ok returns whether this is a valid Layout. The zero value is invalid.
func (l Layout) Ok() bool { return l.DType != dtypes.InvalidDType && len(l.Dims) > 0 }

// Batch returns the batch extent (the output-feature extent on weights
// formats).
func (l Layout) Batch() int { return l.roleDim(format.IsBatchChar, 0) }

// Feature returns the feature extent (the input-feature extent on weights
// formats).
func (l Layout) Feature() int { return l.roleDim(format.IsFeatureChar, 0) }

// Group returns the group extent, or 1 when the format has no group
// dimension.
func (l Layout) Group() int { return l.roleDim(format.IsGroupChar, 0) }

// Spatial returns the extent of the idx-th spatial dimension, counting from
// the innermost (fastest-varying): Spatial(0) is x, Spatial(1) is y, and so
// on.
func (l Layout) Spatial(idx int) int {
	n := l.Format.SpatialNum()
	if idx < 0 || idx >= n {
		exceptions.Panicf("Layout.Spatial(%d): format %s has %d spatial dimensions", idx, l.Format, n)
	}
	// Canonical order lists spatials outer-to-inner.
	return l.roleDim(format.IsSpatialChar, n-1-idx)
}

// roleDim returns the extent of the nth dimension (in canonical order) whose
// role character matches pred. Missing roles default to 1.
func (l Layout) roleDim(pred func(byte) bool, nth int) int {
	order := l.Format.Order()
	seen := 0
	for i := 0; i < len(order); i++ {
		if !pred(order[i]) {
			continue
		}
		if seen == nth {
			return l.Dims[i]
		}
		seen++
	}
	return 1
}

// Count returns the number of elements described by the layout, excluding
// padding.
func (l Layout) Count() int {
	count := 1
	for _, dim := range l.Dims {
		count *= dim
	}
	return count
}

// Memory returns the number of bytes needed to store the layout's data,
// including padding.
func (l Layout) Memory() uintptr {
	count := 1
	for i, dim := range l.Dims {
		padded := dim
		if i < len(l.Pad.Lower) {
			padded += l.Pad.Lower[i]
		}
		if i < len(l.Pad.Upper) {
			padded += l.Pad.Upper[i]
		}
		count *= padded
	}
	return l.DType.Memory() * uintptr(count)
}

// String implements fmt.Stringer, e.g. "bfyx:(Float32)[1 3 4 4]".
func (l Layout) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:(%s)%v", l.Format, l.DType, l.Dims)
	return sb.String()
}

// Equal reports whether two layouts describe the same memory arrangement,
// ignoring padding fill values.
func (l Layout) Equal(other Layout) bool {
	return l.Format == other.Format && l.DType == other.DType &&
		slices.Equal(l.Dims, other.Dims) &&
		slices.Equal(l.Pad.Lower, other.Pad.Lower) &&
		slices.Equal(l.Pad.Upper, other.Pad.Upper)
}

// ConvertToWeightsLayout reinterprets a data-format layout as a weights
// layout of the same rank, using the canonical weights format for that rank.
// Layouts already in a weights format are returned unchanged.
func (l Layout) ConvertToWeightsLayout(grouped bool) Layout {
	if l.Format.IsWeightsFormat() {
		return l
	}
	converted := l
	converted.Format = format.DefaultFormat(l.Rank(), true, grouped)
	return converted
}
