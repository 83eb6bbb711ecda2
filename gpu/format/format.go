// Package format describes how multi-dimensional tensors are physically
// arranged in device memory.
//
// A Format names one static memory layout: the roles of its dimensions
// (batch, feature, spatial, group), their canonical external order, the
// physical storage order, and any hardware sub-blocking. The traits table is
// built once at package initialization and is immutable afterwards, so it can
// be read concurrently from any number of compilation goroutines.
//
// The single alphabet of role characters is shared by the canonical order and
// the internal (physical) order:
//
//   - batch:    'b', 'n', 'o' ('o' = output features on weights formats)
//   - feature:  'f', 'i', 'c' ('i' = input features on weights formats)
//   - spatial:  'x', 'y', 'z', 'w', 'h', 's'
//   - group:    'g'
//
// The internal order must always be a permutation over a subset of the
// canonical order's characters; a table entry violating that is a corrupted
// table and is treated as a non-recoverable defect.
package format

import (
	"strings"

	"github.com/gomlx/exceptions"
)

// Format identifies one entry of the static memory-layout table.
type Format int32

const (
	// Data formats.

	// Bfyx is the most common format for activations.
	Bfyx Format = iota
	// Bfzyx is the format for 5d data tensors.
	Bfzyx
	// Bfwzyx is batch, feature and 4D spatial.
	Bfwzyx
	// Yxfb is batch last, spatials first.
	Yxfb
	// Byxf is used for bitmaps, e.g. b images of RGB format.
	Byxf
	// Fyxb is supported only as an extension for user-provided formats.
	Fyxb
	// BFsYxFsv4 is the input format for IMAD convolutions.
	BFsYxFsv4
	// BFsYxFsv16 is used for blocked convolution.
	BFsYxFsv16
	// BFsYxFsv32 is used for blocked int8 convolution.
	BFsYxFsv32
	// BFsZyxFsv16 is used for 3D blocked convolution (features blocked by 16).
	BFsZyxFsv16
	// BFsZyxFsv32 is used for blocked int8 3d convolution.
	BFsZyxFsv32
	// FsBYxFsv32 is an input format for fp16 primitives.
	FsBYxFsv32
	// BsFsYxBsv16Fsv16 is used for 2D blocked convolution (batch and features blocked by 16).
	BsFsYxBsv16Fsv16
	// BsFsYxBsv16Fsv32 is used for 2D blocked convolution (batch blocked by 16, features by 32).
	BsFsYxBsv16Fsv32
	// BsFsYxBsv32Fsv16 is used for big batches (batch blocked by 32, features by 16).
	BsFsYxBsv32Fsv16
	// BsFsYxBsv32Fsv32 is used for big batches (batch and features blocked by 32).
	BsFsYxBsv32Fsv32
	// BsFsZyxBsv16Fsv16 is the 3D variant of BsFsYxBsv16Fsv16.
	BsFsZyxBsv16Fsv16
	// BsFsZyxBsv16Fsv32 is the 3D variant of BsFsYxBsv16Fsv32.
	BsFsZyxBsv16Fsv32
	// BsFsZyxBsv32Fsv16 is the 3D variant of BsFsYxBsv32Fsv16.
	BsFsZyxBsv32Fsv16
	// BsFsZyxBsv32Fsv32 is the 3D variant of BsFsYxBsv32Fsv32.
	BsFsZyxBsv32Fsv32
	// Winograd2x3S1Data is the input format for winograd convolution, F(2,3).
	Winograd2x3S1Data
	// NV12 is the format for media NV12 input.
	NV12
	// Image2DRGBA is an image2d RGBA format, always allocated with 4 feature maps.
	Image2DRGBA

	// Weights formats.

	// Oiyx is the most common format for 2D weights.
	Oiyx
	// Ioyx is the 2D weights format for deconvolutions.
	Ioyx
	// Yxio is a spatials-first 2D weights format.
	Yxio
	// Oizyx is the most common format for 3D convolution weights.
	Oizyx
	// Iozyx is the 3D weights format for deconvolutions.
	Iozyx
	// OsIyxOsv16 is used only for convolution weights.
	OsIyxOsv16
	// OsIsYxIsv16Osv16 is used for blocked convolution weights.
	OsIsYxIsv16Osv16
	// IsOsYxIsv16Osv16 is used for blocked deconvolution weights.
	IsOsYxIsv16Osv16
	// Winograd2x3S1Weights is used for winograd non-fused convolution weights, F(2,3).
	Winograd2x3S1Weights
	// Winograd2x3S1FusedWeights is used for winograd fused convolution weights, F(2,3).
	Winograd2x3S1FusedWeights
	// Winograd6x3S1FusedWeights is used for winograd fused convolution weights, F(6,3).
	Winograd6x3S1FusedWeights
	// Image2DWeightsC4FyxB is an image format for weights, 4 channels filled with fyx data.
	Image2DWeightsC4FyxB
	// Image2DWeightsC1BFyx is a single channel image format for weights.
	Image2DWeightsC1BFyx
	// Image2DWeightsWinograd6x3S1Fbxyb is an image format for winograd fused weights, F(6,3).
	Image2DWeightsWinograd6x3S1Fbxyb
	// Image2DWeightsWinograd6x3S1Xfbyb is an image format for winograd fused weights, F(6,3).
	Image2DWeightsWinograd6x3S1Xfbyb

	// Grouped weights formats.

	// Goiyx is used for grouped 2D convolution weights.
	Goiyx
	// Gioyx is used for grouped 2D deconvolution weights.
	Gioyx
	// Goizyx is used for grouped 3D convolution weights.
	Goizyx
	// Giozyx is used for grouped 3D deconvolution weights.
	Giozyx
	// GOsIyxOsv16 is used for grouped blocked 2D convolution weights.
	GOsIyxOsv16
	// GsOiyxGsv16 is used for group-blocked 2D convolution weights.
	GsOiyxGsv16
	// GsOizyxGsv16 is used for group-blocked 3D convolution weights.
	GsOizyxGsv16

	formatCount

	// Any is a placeholder accepted where a concrete format is not yet resolved.
	Any Format = -1
)

// Role characters, the shared alphabet of Order and InternalOrder.
const (
	batchChars   = "bno"
	featureChars = "fic"
	spatialChars = "xyzhsw"
	groupChars   = "g"
	weightsChars = "oi"
)

// IsBatchChar checks if c represents a batch dimension.
func IsBatchChar(c byte) bool { return strings.IndexByte(batchChars, c) >= 0 }

// IsFeatureChar checks if c represents a feature map/channel dimension.
func IsFeatureChar(c byte) bool { return strings.IndexByte(featureChars, c) >= 0 }

// IsSpatialChar checks if c represents a spatial dimension.
func IsSpatialChar(c byte) bool { return strings.IndexByte(spatialChars, c) >= 0 }

// IsGroupChar checks if c represents a group dimension.
func IsGroupChar(c byte) bool { return strings.IndexByte(groupChars, c) >= 0 }

// Block is one hardware sub-blocking step: the dimension at Axis (an index
// into the internal order) is tiled with the given extent.
type Block struct {
	Axis int
	Size int
}

// Traits is the static description of one named memory layout.
//
// Instances live only in the package table: they are looked up by Format,
// never constructed per call, and never mutated after initialization.
type Traits struct {
	// Name is the canonical lower-case name of the format.
	Name string

	// Order lists the dimension role characters left-to-right from the
	// coarsest to the finest-varying dimension. It defines the canonical
	// external dimension order and, by its length, the format's rank.
	Order string

	// InternalOrder lists the same role characters in physical storage
	// order. It may only permute or omit characters of Order.
	InternalOrder string

	// BlockSizes is non-empty iff the format is tiled for hardware-specific
	// sub-blocking.
	BlockSizes []Block
}

// Dimension returns the rank described by the format.
func (t *Traits) Dimension() int { return len(t.Order) }

func (t *Traits) countRole(pred func(byte) bool) int {
	n := 0
	for i := 0; i < len(t.Order); i++ {
		if pred(t.Order[i]) {
			n++
		}
	}
	return n
}

// BatchNum returns the number of batch dimensions in the format.
func (t *Traits) BatchNum() int { return t.countRole(IsBatchChar) }

// FeatureNum returns the number of feature map/channel dimensions in the format.
func (t *Traits) FeatureNum() int { return t.countRole(IsFeatureChar) }

// SpatialNum returns the number of spatial dimensions in the format.
func (t *Traits) SpatialNum() int { return t.countRole(IsSpatialChar) }

// GroupNum returns the number of group dimensions in the format.
func (t *Traits) GroupNum() int { return t.countRole(IsGroupChar) }

// InternalToExternal transforms a dimension index from internal (physical)
// order to external (canonical) order.
//
// It panics if the character at InternalOrder[idx] is absent from Order: that
// breaks the sub-permutation invariant of the static table and can only mean
// the table is corrupted.
func (t *Traits) InternalToExternal(idx int) int {
	if idx < 0 || idx >= len(t.InternalOrder) {
		exceptions.Panicf("format %q: internal dimension index %d out of range [0, %d)",
			t.Name, idx, len(t.InternalOrder))
	}
	external := strings.IndexByte(t.Order, t.InternalOrder[idx])
	if external < 0 {
		exceptions.Panicf("format %q: internal dimension %q does not map to an external index",
			t.Name, t.InternalOrder[idx])
	}
	return external
}

// The table entries are ordered as the Format constants.
var traitsTable = [formatCount]Traits{
	Bfyx:              {Name: "bfyx", Order: "bfyx", InternalOrder: "bfxy"},
	Bfzyx:             {Name: "bfzyx", Order: "bfzyx", InternalOrder: "bfxyz"},
	Bfwzyx:            {Name: "bfwzyx", Order: "bfwzyx", InternalOrder: "bfxyzw"},
	Yxfb:              {Name: "yxfb", Order: "yxfb", InternalOrder: "bfxy"},
	Byxf:              {Name: "byxf", Order: "byxf", InternalOrder: "bfxy"},
	Fyxb:              {Name: "fyxb", Order: "fyxb", InternalOrder: "bfxy"},
	BFsYxFsv4:         {Name: "b_fs_yx_fsv4", Order: "bfyx", InternalOrder: "bfxy", BlockSizes: []Block{{1, 4}}},
	BFsYxFsv16:        {Name: "b_fs_yx_fsv16", Order: "bfyx", InternalOrder: "bfxy", BlockSizes: []Block{{1, 16}}},
	BFsYxFsv32:        {Name: "b_fs_yx_fsv32", Order: "bfyx", InternalOrder: "bfxy", BlockSizes: []Block{{1, 32}}},
	BFsZyxFsv16:       {Name: "b_fs_zyx_fsv16", Order: "bfzyx", InternalOrder: "bfxyz", BlockSizes: []Block{{1, 16}}},
	BFsZyxFsv32:       {Name: "b_fs_zyx_fsv32", Order: "bfzyx", InternalOrder: "bfxyz", BlockSizes: []Block{{1, 32}}},
	FsBYxFsv32:        {Name: "fs_b_yx_fsv32", Order: "fbyx", InternalOrder: "bfxy", BlockSizes: []Block{{1, 32}}},
	BsFsYxBsv16Fsv16:  {Name: "bs_fs_yx_bsv16_fsv16", Order: "bfyx", InternalOrder: "bfxy", BlockSizes: []Block{{0, 16}, {1, 16}}},
	BsFsYxBsv16Fsv32:  {Name: "bs_fs_yx_bsv16_fsv32", Order: "bfyx", InternalOrder: "bfxy", BlockSizes: []Block{{0, 16}, {1, 32}}},
	BsFsYxBsv32Fsv16:  {Name: "bs_fs_yx_bsv32_fsv16", Order: "bfyx", InternalOrder: "bfxy", BlockSizes: []Block{{0, 32}, {1, 16}}},
	BsFsYxBsv32Fsv32:  {Name: "bs_fs_yx_bsv32_fsv32", Order: "bfyx", InternalOrder: "bfxy", BlockSizes: []Block{{0, 32}, {1, 32}}},
	BsFsZyxBsv16Fsv16: {Name: "bs_fs_zyx_bsv16_fsv16", Order: "bfzyx", InternalOrder: "bfxyz", BlockSizes: []Block{{0, 16}, {1, 16}}},
	BsFsZyxBsv16Fsv32: {Name: "bs_fs_zyx_bsv16_fsv32", Order: "bfzyx", InternalOrder: "bfxyz", BlockSizes: []Block{{0, 16}, {1, 32}}},
	BsFsZyxBsv32Fsv16: {Name: "bs_fs_zyx_bsv32_fsv16", Order: "bfzyx", InternalOrder: "bfxyz", BlockSizes: []Block{{0, 32}, {1, 16}}},
	BsFsZyxBsv32Fsv32: {Name: "bs_fs_zyx_bsv32_fsv32", Order: "bfzyx", InternalOrder: "bfxyz", BlockSizes: []Block{{0, 32}, {1, 32}}},
	Winograd2x3S1Data: {Name: "winograd_2x3_s1_data", Order: "bxyf", InternalOrder: "bfxy"},
	NV12:              {Name: "nv12", Order: "bfyx", InternalOrder: "bfxy"},
	Image2DRGBA:       {Name: "image_2d_rgba", Order: "bfyx", InternalOrder: "bfxy"},

	Oiyx:                      {Name: "oiyx", Order: "oiyx", InternalOrder: "oixy"},
	Ioyx:                      {Name: "ioyx", Order: "ioyx", InternalOrder: "oixy"},
	Yxio:                      {Name: "yxio", Order: "yxio", InternalOrder: "oixy"},
	Oizyx:                     {Name: "oizyx", Order: "oizyx", InternalOrder: "oixyz"},
	Iozyx:                     {Name: "iozyx", Order: "iozyx", InternalOrder: "oixyz"},
	OsIyxOsv16:                {Name: "os_iyx_osv16", Order: "oiyx", InternalOrder: "oixy", BlockSizes: []Block{{0, 16}}},
	OsIsYxIsv16Osv16:          {Name: "os_is_yx_isv16_osv16", Order: "oiyx", InternalOrder: "oixy", BlockSizes: []Block{{1, 16}, {0, 16}}},
	IsOsYxIsv16Osv16:          {Name: "is_os_yx_isv16_osv16", Order: "ioyx", InternalOrder: "oixy", BlockSizes: []Block{{1, 16}, {0, 16}}},
	Winograd2x3S1Weights:      {Name: "winograd_2x3_s1_weights", Order: "oiyx", InternalOrder: "oixy"},
	Winograd2x3S1FusedWeights: {Name: "winograd_2x3_s1_fused_weights", Order: "xyio", InternalOrder: "oixy"},
	Winograd6x3S1FusedWeights: {Name: "winograd_6x3_s1_fused_weights", Order: "xyio", InternalOrder: "oixy"},
	Image2DWeightsC4FyxB:      {Name: "image_2d_weights_c4_fyx_b", Order: "oiyx", InternalOrder: "oixy"},
	Image2DWeightsC1BFyx:      {Name: "image_2d_weights_c1_b_fyx", Order: "oiyx", InternalOrder: "oixy"},
	Image2DWeightsWinograd6x3S1Fbxyb: {Name: "image_2d_weights_winograd_6x3_s1_fbxyb",
		Order: "xyio", InternalOrder: "oixy"},
	Image2DWeightsWinograd6x3S1Xfbyb: {Name: "image_2d_weights_winograd_6x3_s1_xfbyb",
		Order: "xyio", InternalOrder: "oixy"},

	Goiyx:        {Name: "goiyx", Order: "goiyx", InternalOrder: "goixy"},
	Gioyx:        {Name: "gioyx", Order: "gioyx", InternalOrder: "goixy"},
	Goizyx:       {Name: "goizyx", Order: "goizyx", InternalOrder: "goixyz"},
	Giozyx:       {Name: "giozyx", Order: "giozyx", InternalOrder: "goixyz"},
	GOsIyxOsv16:  {Name: "g_os_iyx_osv16", Order: "goiyx", InternalOrder: "goixy", BlockSizes: []Block{{1, 16}}},
	GsOiyxGsv16:  {Name: "gs_oiyx_gsv16", Order: "goiyx", InternalOrder: "goixy", BlockSizes: []Block{{0, 16}}},
	GsOizyxGsv16: {Name: "gs_oizyx_gsv16", Order: "goizyx", InternalOrder: "goixyz", BlockSizes: []Block{{0, 16}}},
}

// Traits returns the static traits of the format.
//
// It panics for an unknown format: an invalid Format value is a programming
// error, not a runtime condition.
func (f Format) Traits() *Traits {
	if f < 0 || f >= formatCount {
		exceptions.Panicf("format.Traits: unknown format id %d", int32(f))
	}
	return &traitsTable[f]
}

// String implements fmt.Stringer. It returns the canonical format name.
func (f Format) String() string {
	if f == Any {
		return "any"
	}
	if f < 0 || f >= formatCount {
		return "invalid"
	}
	return traitsTable[f].Name
}

// All returns every format in the static table, in id order.
func All() []Format {
	all := make([]Format, formatCount)
	for i := range all {
		all[i] = Format(i)
	}
	return all
}

// Dimension returns the number of dimensions contained within the format.
func (f Format) Dimension() int { return f.Traits().Dimension() }

// Order returns the canonical external dimension order of the format.
func (f Format) Order() string { return f.Traits().Order }

// InternalOrder returns the physical storage order of the format.
func (f Format) InternalOrder() string { return f.Traits().InternalOrder }

// BlockSizes returns the hardware sub-blocking of the format, outermost first.
func (f Format) BlockSizes() []Block { return f.Traits().BlockSizes }

// BatchNum returns the number of batch dimensions in the format.
func (f Format) BatchNum() int { return f.Traits().BatchNum() }

// FeatureNum returns the number of feature dimensions in the format.
func (f Format) FeatureNum() int { return f.Traits().FeatureNum() }

// SpatialNum returns the number of spatial dimensions in the format.
func (f Format) SpatialNum() int { return f.Traits().SpatialNum() }

// GroupNum returns the number of group dimensions in the format.
func (f Format) GroupNum() int { return f.Traits().GroupNum() }

// InternalToExternal transforms a dimension index from internal order to
// external order. See Traits.InternalToExternal.
func (f Format) InternalToExternal(idx int) int { return f.Traits().InternalToExternal(idx) }

// IsBlocked checks whether the format is tiled for hardware sub-blocking.
func (f Format) IsBlocked() bool { return len(f.Traits().BlockSizes) > 0 }

// IsWinograd checks whether the format is a winograd format.
func (f Format) IsWinograd() bool {
	switch f {
	case Winograd2x3S1Data, Winograd2x3S1Weights, Winograd2x3S1FusedWeights,
		Winograd6x3S1FusedWeights, Image2DWeightsWinograd6x3S1Fbxyb,
		Image2DWeightsWinograd6x3S1Xfbyb:
		return true
	}
	return false
}

// IsImage2D checks whether the format is backed by a 2D image object.
func (f Format) IsImage2D() bool {
	switch f {
	case Image2DWeightsC4FyxB, Image2DWeightsC1BFyx,
		Image2DWeightsWinograd6x3S1Fbxyb, Image2DWeightsWinograd6x3S1Xfbyb,
		NV12, Image2DRGBA:
		return true
	}
	return false
}

// IsImage checks whether the format is backed by an image object.
func (f Format) IsImage() bool { return f.IsImage2D() }

// IsNV12 checks whether the format is the media NV12 format.
func (f Format) IsNV12() bool { return f == NV12 }

// IsWeightsFormat checks whether the format describes weights: it holds iff
// the internal order contains an output- or input-feature role character.
func (f Format) IsWeightsFormat() bool {
	return strings.ContainsAny(f.Traits().InternalOrder, weightsChars)
}

// IsGrouped checks whether the format carries an explicit group dimension.
func (f Format) IsGrouped() bool { return f.Traits().GroupNum() != 0 }

// IsSimpleDataFormat checks whether the format is a plain, un-blocked data
// format.
func (f Format) IsSimpleDataFormat() bool {
	switch f {
	case Yxfb, Byxf, Bfyx, Fyxb, Bfzyx, Bfwzyx:
		return true
	}
	return false
}

// DefaultFormat returns the canonical format for the given rank.
//
// It is the single source of truth whenever a layout must be upgraded to a
// higher rank, e.g. when grouped weights are promoted with an explicit group
// axis.
func DefaultFormat(rank int, isWeights, isGrouped bool) Format {
	defaultFmt := Bfyx
	if isWeights {
		if isGrouped {
			if rank == 5 {
				defaultFmt = Goiyx
			} else if rank == 6 {
				defaultFmt = Goizyx
			}
		} else {
			if rank == 4 {
				defaultFmt = Oiyx
			} else if rank == 5 {
				defaultFmt = Oizyx
			}
		}
	} else {
		if rank == 5 {
			defaultFmt = Bfzyx
		} else if rank == 6 {
			defaultFmt = Bfwzyx
		}
	}
	return defaultFmt
}
