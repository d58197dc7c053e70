package texatlas

import (
	"fmt"
	"log/slog"
)

// Texture owns a CPU-side pixel mirror, the dirty-row bookkeeping for it,
// and the identity of the GPU copy. Pixel writes only touch the mirror and
// mark rows dirty; Update lazily materializes the GPU resource and applies
// exactly the merged dirty intervals.
//
// A Texture is single-owner: construction and pixel writes may happen on a
// worker thread, but the texture must be handed off before any Update or
// Delete call, which belong to the render thread. (Atlas pages wrap their
// textures in the atlas manager's lock to allow concurrent producers.)
type Texture struct {
	width  int
	height int
	opts   TextureOptions
	target Target

	// mirror is the CPU pixel copy, length width*height*bpp when
	// populated. It may be nil if the GPU copy is authoritative; it is
	// lazily sized on first write.
	mirror []byte

	dirty DirtyRangeSet

	// handle is the GPU resource, zero when not yet created.
	handle TextureHandle

	// generation stamps the GPU context epoch the handle belongs to.
	generation int64

	// shouldResize means GPU storage must be (re)allocated at the current
	// dimensions before any partial upload is valid.
	shouldResize bool
}

// NewTexture creates a texture with the given dimensions and options.
// No GPU resource is allocated until the first Update. Negative dimensions
// are clamped to zero; invalid options fall back to the defaults with a
// logged warning.
func NewTexture(width, height int, opts TextureOptions) *Texture {
	if err := opts.Validate(); err != nil {
		Logger().Warn("texture options invalid, using defaults", "err", err)
		opts = DefaultTextureOptions()
	}
	t := &Texture{opts: opts, target: Target2D}
	t.Resize(max(width, 0), max(height, 0))
	return t
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Options returns the texture's current options. Capability fallbacks
// applied during Update are reflected here.
func (t *Texture) Options() TextureOptions { return t.opts }

// BytesPerPixel returns the byte width of one pixel in the mirror.
func (t *Texture) BytesPerPixel() int { return t.opts.Format.BytesPerPixel() }

// Handle returns the GPU handle, zero if the texture is not resident.
func (t *Texture) Handle() TextureHandle { return t.handle }

// Data returns the CPU mirror, nil if the mirror has not been populated.
// The returned slice is valid until the next Resize.
func (t *Texture) Data() []byte { return t.mirror }

// DirtyRanges returns the pending merged dirty row intervals.
func (t *Texture) DirtyRanges() []RowRange { return t.dirty.Ranges() }

// NeedsUpload reports whether the next Update will issue GPU work.
func (t *Texture) NeedsUpload() bool {
	return t.shouldResize || !t.dirty.IsEmpty()
}

// Resize updates the texture dimensions. The GPU storage is reallocated on
// the next Update, and any pending partial updates are discarded since a
// resize supersedes them. The CPU mirror is dropped and lazily reallocated
// on the next write.
func (t *Texture) Resize(width, height int) {
	t.width = width
	t.height = height
	t.mirror = nil
	t.shouldResize = true
	t.dirty.Clear()
}

// SetData replaces the entire CPU mirror and marks all rows dirty.
// A length mismatch against width*height*bpp is a caller defect; the copy
// is clamped and a warning logged.
func (t *Texture) SetData(pixels []byte) {
	want := t.width * t.height * t.BytesPerPixel()
	if len(pixels) != want {
		Logger().Warn("texture data size mismatch",
			"got", len(pixels), "want", want, "label", t.opts.Label)
	}
	if t.mirror == nil || len(t.mirror) != want {
		t.mirror = make([]byte, want)
	}
	copy(t.mirror, pixels)
	t.dirty.MarkDirty(0, t.height)
}

// SetSubData copies a w×h pixel block into the mirror at (x, y) and marks
// rows [y, y+h) dirty. stride is the source row length in pixels and must
// be at least w; rows are tightly packed at stride*bpp bytes.
//
// Out-of-range coordinates are a caller defect: the write is clamped to
// the buffer and a warning logged, never a panic or memory corruption.
func (t *Texture) SetSubData(pixels []byte, x, y, w, h, stride int) {
	bpp := t.BytesPerPixel()

	if x < 0 || y < 0 || w < 0 || h < 0 || stride < w {
		Logger().Warn("texture sub-update rejected",
			"x", x, "y", y, "w", w, "h", h, "stride", stride, "label", t.opts.Label)
		return
	}
	if x+w > t.width || y+h > t.height {
		Logger().Warn("texture sub-update clamped to buffer bounds",
			"x", x, "y", y, "w", w, "h", h,
			"width", t.width, "height", t.height, "label", t.opts.Label)
		w = min(w, t.width-x)
		h = min(h, t.height-y)
		if w <= 0 || h <= 0 {
			return
		}
	}

	// Lazily (re)size the mirror if Update was not called after Resize.
	want := t.width * t.height * bpp
	if len(t.mirror) != want {
		t.mirror = make([]byte, want)
	}

	rowBytes := t.width * bpp
	for row := 0; row < h; row++ {
		dst := (y+row)*rowBytes + x*bpp
		src := row * stride * bpp
		copy(t.mirror[dst:dst+w*bpp], pixels[src:src+w*bpp])
	}

	t.dirty.MarkDirty(y, h)
}

// MarkDirtyRows marks rows [start, start+height) for re-upload without
// touching the mirror, clamped to the buffer. The atlas manager uses this
// to flush the blank pad border around a freshly placed glyph.
func (t *Texture) MarkDirtyRows(start, height int) {
	end := min(start+height, t.height)
	start = max(start, 0)
	if end <= start {
		return
	}
	t.dirty.MarkDirty(start, end-start)
}

// CheckValidity compares the texture's generation stamp against the live
// GPU context generation. On mismatch the handle is dangling: it is
// treated as destroyed and the next Update re-walks the allocate path.
// This is the recovery path for GPU context loss.
func (t *Texture) CheckValidity(rs *RenderState) {
	if !rs.IsValidGeneration(t.generation) {
		t.shouldResize = true
		t.handle = 0
	}
}

// IsValid reports whether the texture is resident in the current GPU
// context.
func (t *Texture) IsValid(rs *RenderState) bool {
	return t.handle != 0 && rs.IsValidGeneration(t.generation)
}

// Bind records the texture as bound to the given unit.
func (t *Texture) Bind(rs *RenderState, unit int) {
	rs.SetTextureUnit(unit)
	rs.BindTexture(t.target, t.handle)
}

// Update synchronizes the GPU copy with the CPU mirror: a no-op when
// nothing is pending, a full upload after a resize or context loss, and
// otherwise one sub-upload per merged dirty interval. Must be called on
// the render thread before any draw samples the texture.
//
// If the mirror is empty and GPU storage has to be created, a zero-filled
// mirror is allocated so the texture contents are defined.
func (t *Texture) Update(rs *RenderState, unit int) error {
	t.CheckValidity(rs)

	if !t.NeedsUpload() {
		return nil
	}

	if t.handle == 0 && t.mirror == nil {
		t.mirror = make([]byte, t.width*t.height*t.BytesPerPixel())
	}

	return t.UpdateWithData(rs, unit, t.mirror)
}

// UpdateWithData is Update with explicitly supplied pixel data covering
// the full buffer, for textures whose pixels live outside the mirror.
// data may be nil to allocate GPU storage without defining contents.
func (t *Texture) UpdateWithData(rs *RenderState, unit int, data []byte) error {
	t.CheckValidity(rs)

	if !t.NeedsUpload() {
		return nil
	}

	driver := rs.Driver()
	if driver == nil {
		return ErrNoDriver
	}

	if t.handle == 0 {
		if err := t.generate(rs, driver, unit); err != nil {
			return err
		}
	} else {
		t.Bind(rs, unit)
	}

	if t.shouldResize {
		caps := driver.Capabilities()
		if t.width > caps.MaxTextureSize || t.height > caps.MaxTextureSize {
			Logger().Warn("texture exceeds hardware maximum size",
				"width", t.width, "height", t.height,
				"max", caps.MaxTextureSize, "label", t.opts.Label)
		}

		driver.UploadFull(t.handle, t.width, t.height, data)
		if data != nil && t.opts.GenerateMipmaps {
			driver.GenerateMipmaps(t.handle)
		}

		t.shouldResize = false
		t.dirty.Clear()
		return nil
	}

	rowBytes := t.width * t.BytesPerPixel()
	for _, r := range t.dirty.Ranges() {
		driver.UploadRegion(t.handle, r.Min, r.Max, t.width, data[r.Min*rowBytes:r.Max*rowBytes])
	}
	t.dirty.Clear()
	return nil
}

// generate allocates the GPU resource, applies sampling parameters and
// stamps the current context generation.
func (t *Texture) generate(rs *RenderState, driver Driver, unit int) error {
	t.applyCapabilityFallback(driver.Capabilities())

	handle, err := driver.CreateTexture(t.opts, t.width, t.height)
	if err != nil {
		return fmt.Errorf("texatlas: creating %dx%d texture: %w", t.width, t.height, err)
	}
	t.handle = handle
	t.generation = rs.Generation()
	t.Bind(rs, unit)

	Logger().Debug("texture created",
		slog.Int("width", t.width), slog.Int("height", t.height),
		slog.String("format", t.opts.Format.String()),
		slog.String("label", t.opts.Label))
	return nil
}

// applyCapabilityFallback downgrades the sampling configuration when the
// hardware cannot repeat-wrap or mipmap a non-power-of-two texture.
func (t *Texture) applyCapabilityFallback(caps Capabilities) {
	if caps.NPOT {
		return
	}
	if isPowerOfTwo(t.width) && isPowerOfTwo(t.height) {
		return
	}
	if !t.opts.needsMipmaps() && !t.opts.Wrapping.repeats() {
		return
	}

	Logger().Warn("hardware does not support repeat wrapping or mipmaps for NPOT textures, falling back to clamped bilinear",
		"width", t.width, "height", t.height, "label", t.opts.Label)

	t.opts.Filtering = Filtering{Min: FilterLinear, Mag: FilterLinear}
	t.opts.Wrapping = Wrapping{S: WrapClampToEdge, T: WrapClampToEdge}
	t.opts.GenerateMipmaps = false
}

// Delete releases the GPU resource. If the texture is recorded as bound to
// its target, the binding record is scrubbed so later code does not assume
// a stale texture remains bound. The CPU mirror is kept: the texture can
// be re-uploaded by a later Update.
func (t *Texture) Delete(rs *RenderState) {
	if t.handle == 0 {
		return
	}
	if driver := rs.Driver(); driver != nil {
		driver.DestroyTexture(t.handle)
	}
	rs.clearBinding(t.target, t.handle)
	t.handle = 0
	t.shouldResize = true
}

// isPowerOfTwo reports whether v is a positive power of two.
func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}
