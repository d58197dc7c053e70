package texatlas

// TextureHandle identifies a GPU texture owned by a Driver.
// The zero handle means "not yet created on the GPU".
type TextureHandle uint64

// Target distinguishes the kinds of GPU texture a handle can be bound as.
type Target uint8

const (
	// Target2D is an ordinary two-dimensional texture.
	Target2D Target = iota

	// TargetCube is a six-face cubemap texture.
	TargetCube

	numTargets = iota
)

// String returns a human-readable name for the target.
func (t Target) String() string {
	switch t {
	case Target2D:
		return "2D"
	case TargetCube:
		return "Cube"
	default:
		return "Unknown"
	}
}

// CubeFace names one face of a cubemap, in upload order.
type CubeFace uint8

const (
	CubeFacePositiveX CubeFace = iota
	CubeFaceNegativeX
	CubeFacePositiveY
	CubeFaceNegativeY
	CubeFacePositiveZ
	CubeFaceNegativeZ

	// NumCubeFaces is the number of faces in a cubemap.
	NumCubeFaces = 6
)

// Capabilities describes the limits of the GPU the driver talks to.
type Capabilities struct {
	// MaxTextureSize is the largest supported texture edge in pixels.
	MaxTextureSize int

	// NPOT reports whether non-power-of-two textures support repeat
	// wrapping and mipmaps. Always true on modern APIs; false on some
	// GL ES 2 hardware.
	NPOT bool
}

// Driver is the boundary to the GPU. texatlas depends only on this
// capability set; everything above it is backend-agnostic.
//
// Handles returned by CreateTexture remain stable for the life of the
// resource even if the driver internally reallocates storage (UploadFull
// with new dimensions may require that on APIs with immutable textures).
//
// All Driver methods are called from the render thread only.
type Driver interface {
	// Capabilities returns the hardware limits.
	Capabilities() Capabilities

	// CreateTexture allocates a 2D texture with storage for the given
	// dimensions and applies the sampling parameters from opts.
	CreateTexture(opts TextureOptions, width, height int) (TextureHandle, error)

	// CreateTextureCube allocates a six-face cubemap with square faces
	// of the given edge length.
	CreateTextureCube(opts TextureOptions, size int) (TextureHandle, error)

	// UploadFull replaces the entire texture image at the given
	// dimensions. data may be nil to (re)allocate storage without
	// defining contents; its length is otherwise width*height*bpp.
	UploadFull(h TextureHandle, width, height int, data []byte)

	// UploadRegion replaces rows [y0, y1) at full buffer width.
	// data holds exactly (y1-y0)*width*bpp bytes.
	UploadRegion(h TextureHandle, y0, y1, width int, data []byte)

	// UploadCubeFace replaces one face of a cubemap.
	// data holds size*size*bpp bytes.
	UploadCubeFace(h TextureHandle, face CubeFace, size int, data []byte)

	// GenerateMipmaps regenerates the mipmap chain from level zero.
	GenerateMipmaps(h TextureHandle)

	// DestroyTexture releases the GPU resource. Destroying the zero
	// handle is a no-op.
	DestroyTexture(h TextureHandle)
}
