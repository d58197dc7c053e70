package texatlas

import "fmt"

// PixelFormat represents the storage format of a texture's pixels.
type PixelFormat uint8

const (
	// PixelFormatRGBA8 is the standard RGBA format with 8 bits per channel.
	PixelFormatRGBA8 PixelFormat = iota

	// PixelFormatRGB8 is RGB without alpha, 8 bits per channel.
	PixelFormatRGB8

	// PixelFormatRG8 is a two-channel 8-bit format.
	PixelFormatRG8

	// PixelFormatR8 is single-channel 8-bit format, used for glyph
	// coverage and SDF masks.
	PixelFormatR8
)

// String returns a human-readable name for the format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8:
		return "RGBA8"
	case PixelFormatRGB8:
		return "RGB8"
	case PixelFormatRG8:
		return "RG8"
	case PixelFormatR8:
		return "R8"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGBA8:
		return 4
	case PixelFormatRGB8:
		return 3
	case PixelFormatRG8:
		return 2
	case PixelFormatR8:
		return 1
	default:
		return 4
	}
}

// FilterMode selects how a texture is sampled.
type FilterMode uint8

const (
	// FilterLinear is bilinear sampling.
	FilterLinear FilterMode = iota

	// FilterNearest is point sampling.
	FilterNearest

	// FilterLinearMipmapLinear is trilinear sampling across mipmap levels.
	// Valid only as a minification filter on mipmapped textures.
	FilterLinearMipmapLinear
)

// usesMipmaps reports whether the filter samples mipmap levels.
func (f FilterMode) usesMipmaps() bool {
	return f == FilterLinearMipmapLinear
}

// WrapMode selects how texture coordinates outside [0,1] are resolved.
type WrapMode uint8

const (
	// WrapClampToEdge clamps coordinates to the edge texel.
	WrapClampToEdge WrapMode = iota

	// WrapRepeat tiles the texture.
	WrapRepeat

	// WrapMirroredRepeat tiles the texture, mirroring every other repeat.
	WrapMirroredRepeat
)

// Filtering holds the minification and magnification sampling modes.
type Filtering struct {
	Min FilterMode
	Mag FilterMode
}

// Wrapping holds the edge modes for the s and t texture axes.
type Wrapping struct {
	S WrapMode
	T WrapMode
}

// repeats reports whether either axis tiles the texture. Repeat wrapping
// on non-power-of-two textures is unsupported on some GL ES hardware.
func (w Wrapping) repeats() bool {
	return w.S != WrapClampToEdge || w.T != WrapClampToEdge
}

// TextureOptions configures a texture's format and sampling behavior.
// The zero value is a usable configuration: RGBA8, bilinear filtering,
// clamp-to-edge wrapping, no mipmaps.
type TextureOptions struct {
	// Format is the pixel format.
	Format PixelFormat

	// Filtering is the sampling mode pair.
	Filtering Filtering

	// Wrapping is the edge mode pair.
	Wrapping Wrapping

	// GenerateMipmaps requests mipmap generation after full uploads.
	GenerateMipmaps bool

	// Label is an optional debug label passed to the driver.
	Label string
}

// DefaultTextureOptions returns the default texture configuration.
func DefaultTextureOptions() TextureOptions {
	return TextureOptions{
		Format:    PixelFormatRGBA8,
		Filtering: Filtering{Min: FilterLinear, Mag: FilterLinear},
		Wrapping:  Wrapping{S: WrapClampToEdge, T: WrapClampToEdge},
	}
}

// NearestTextureOptions returns a configuration for point-sampled textures.
func NearestTextureOptions() TextureOptions {
	opts := DefaultTextureOptions()
	opts.Filtering = Filtering{Min: FilterNearest, Mag: FilterNearest}
	return opts
}

// Validate checks whether the configuration is consistent.
func (o *TextureOptions) Validate() error {
	if o.Format > PixelFormatR8 {
		return &OptionsError{Field: "Format", Reason: "unknown pixel format"}
	}
	if o.Filtering.Mag.usesMipmaps() {
		return &OptionsError{Field: "Filtering.Mag", Reason: "mipmap filters are minification-only"}
	}
	if o.Filtering.Min.usesMipmaps() && !o.GenerateMipmaps {
		return &OptionsError{Field: "Filtering.Min", Reason: "mipmap filter requires GenerateMipmaps"}
	}
	return nil
}

// needsMipmaps reports whether the texture requires mipmap storage.
func (o *TextureOptions) needsMipmaps() bool {
	return o.GenerateMipmaps || o.Filtering.Min.usesMipmaps()
}

// OptionsError represents a texture configuration validation error.
type OptionsError struct {
	Field  string
	Reason string
}

func (e *OptionsError) Error() string {
	return "texatlas: invalid texture options." + e.Field + ": " + e.Reason
}
