package texatlas

// TextureCube is a six-face cubemap loaded from a single image laid out as
// a horizontal cross: 4 columns × 3 rows of equal square cells, with the
// faces at
//
//	        [+Y]
//	[-X][+Z][+X][-Z]
//	        [-Y]
//
// and the remaining cells blank. Each face's rows are demuxed into its own
// contiguous buffer at load time. Faces are immutable after load: Update
// allocates and uploads all six faces the first time it runs per GPU
// handle and is a no-op while the handle stays valid. There is no per-face
// dirty tracking.
type TextureCube struct {
	size int // face edge length in pixels
	opts TextureOptions

	faces [NumCubeFaces][]byte

	handle     TextureHandle
	generation int64
}

// crossCell maps each cube face to its (column, row) cell in the cross.
var crossCell = [NumCubeFaces][2]int{
	CubeFacePositiveX: {2, 1},
	CubeFaceNegativeX: {0, 1},
	CubeFacePositiveY: {1, 0},
	CubeFaceNegativeY: {1, 2},
	CubeFacePositiveZ: {1, 1},
	CubeFaceNegativeZ: {3, 1},
}

// DecodeTextureCube decodes an encoded cross-layout cubemap image and
// demuxes it into six face buffers. The image must be 4 cells wide and
// 3 cells tall with square cells.
func DecodeTextureCube(data []byte, opts TextureOptions) (*TextureCube, error) {
	rgba, err := decodeRGBA(data)
	if err != nil {
		Logger().Error("cubemap image decode failed", "err", err)
		return nil, err
	}

	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()
	if w%4 != 0 || h%3 != 0 || w/4 != h/3 || w == 0 {
		return nil, ErrInvalidCubeLayout
	}

	opts.Format = PixelFormatRGBA8
	// Cubemaps are sampled by direction; repeat wrapping and mipmaps are
	// not part of this design.
	opts.Wrapping = Wrapping{S: WrapClampToEdge, T: WrapClampToEdge}
	opts.GenerateMipmaps = false

	c := &TextureCube{size: w / 4, opts: opts}

	faceRow := c.size * 4 // bytes per face row
	imgRow := w * 4       // bytes per source row

	for face := CubeFace(0); face < NumCubeFaces; face++ {
		cell := crossCell[face]
		buf := make([]byte, c.size*faceRow)
		for y := 0; y < c.size; y++ {
			src := (cell[1]*c.size+y)*imgRow + cell[0]*faceRow
			copy(buf[y*faceRow:(y+1)*faceRow], rgba.Pix[src:src+faceRow])
		}
		c.faces[face] = buf
	}

	return c, nil
}

// Size returns the face edge length in pixels.
func (c *TextureCube) Size() int { return c.size }

// Options returns the cubemap's texture options.
func (c *TextureCube) Options() TextureOptions { return c.opts }

// Handle returns the GPU handle, zero if the cubemap is not resident.
func (c *TextureCube) Handle() TextureHandle { return c.handle }

// Face returns the demuxed pixel buffer for one face.
func (c *TextureCube) Face(face CubeFace) []byte {
	if face >= NumCubeFaces {
		return nil
	}
	return c.faces[face]
}

// IsValid reports whether the cubemap is resident in the current GPU
// context.
func (c *TextureCube) IsValid(rs *RenderState) bool {
	return c.handle != 0 && rs.IsValidGeneration(c.generation)
}

// Update allocates the GPU cubemap and uploads all six faces the first
// time it runs per GPU handle; afterwards it is a no-op while the handle
// remains valid. A context-loss generation mismatch drops the handle and
// the next call re-walks the allocate path from the retained face buffers.
func (c *TextureCube) Update(rs *RenderState, unit int) error {
	if !rs.IsValidGeneration(c.generation) {
		c.handle = 0
	}
	if c.handle != 0 || c.size == 0 {
		return nil
	}

	driver := rs.Driver()
	if driver == nil {
		return ErrNoDriver
	}

	handle, err := driver.CreateTextureCube(c.opts, c.size)
	if err != nil {
		return err
	}
	c.handle = handle
	c.generation = rs.Generation()

	rs.SetTextureUnit(unit)
	rs.BindTexture(TargetCube, c.handle)

	for face := CubeFace(0); face < NumCubeFaces; face++ {
		driver.UploadCubeFace(c.handle, face, c.size, c.faces[face])
	}
	return nil
}

// Bind records the cubemap as bound to the given unit.
func (c *TextureCube) Bind(rs *RenderState, unit int) {
	rs.SetTextureUnit(unit)
	rs.BindTexture(TargetCube, c.handle)
}

// Delete releases the GPU resource and scrubs the binding record if this
// cubemap is the bound cube texture.
func (c *TextureCube) Delete(rs *RenderState) {
	if c.handle == 0 {
		return
	}
	if driver := rs.Driver(); driver != nil {
		driver.DestroyTexture(c.handle)
	}
	rs.clearBinding(TargetCube, c.handle)
	c.handle = 0
}
