package fontstack

import (
	"errors"
	"sync"

	"github.com/gogpu/texatlas"
	"github.com/gogpu/texatlas/atlas"
)

// DefaultPad is the blank border reserved around each glyph in atlas
// pixels. One pixel is enough to stop bilinear filtering from sampling a
// neighboring glyph.
const DefaultPad = 1

// Quad is one textured rectangle of laid-out text. Positions are in
// pixels relative to the layout origin (the pen start, y growing
// downward); UVs are normalized coordinates into the page texture.
type Quad struct {
	// Page identifies which atlas page the quad samples.
	Page atlas.PageID

	// X0, Y0, X1, Y1 are the quad corners in layout pixels.
	X0, Y0, X1, Y1 float64

	// U0, V0, U1, V1 are the texture coordinates into the page.
	U0, V0, U1, V1 float32
}

// ContextConfig holds text context configuration.
type ContextConfig struct {
	// Pad is the blank border reserved around each glyph, in pixels.
	// Default: DefaultPad
	Pad int

	// Shaper overrides the text shaper. Default: NewShaper()
	Shaper TextShaper

	// Rasterizer overrides the glyph rasterizer. Default: NewRasterizer()
	Rasterizer GlyphRasterizer
}

// DefaultContextConfig returns the default context configuration.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		Pad: DefaultPad,
	}
}

// glyphKey identifies a rasterized glyph in the placement cache. Sizes
// are cached at whole-pixel granularity.
type glyphKey struct {
	font uint64
	gid  GlyphID
	size int16
}

// placement records where a glyph landed in the atlas and how to position
// its quad relative to the pen.
type placement struct {
	page      atlas.PageID
	x, y      int
	w, h      int
	left, top int
}

// Context is the top-level text layout entry point. It shapes text,
// rasterizes glyphs the atlas has not seen, places them through the
// packer, and emits quads referencing the atlas pages.
//
// Context is safe for concurrent use. It caches glyph placements by
// (font, glyph, size), so each distinct glyph is rasterized and uploaded
// once for the life of the context.
type Context struct {
	mu     sync.Mutex
	shaper TextShaper
	raster GlyphRasterizer
	packer *atlas.ShelfPacker
	atlas  *atlas.Manager
	pad    int
	placed map[glyphKey]*placement
}

// NewContext creates a text context drawing into the given atlas manager
// with the default configuration.
func NewContext(m *atlas.Manager) *Context {
	return NewContextWithConfig(m, DefaultContextConfig())
}

// NewContextWithConfig creates a text context with the given configuration.
func NewContextWithConfig(m *atlas.Manager, config ContextConfig) *Context {
	// Zero values use defaults.
	if config.Pad == 0 {
		config.Pad = DefaultPad
	}
	if config.Pad < 0 {
		config.Pad = 0
	}
	if config.Shaper == nil {
		config.Shaper = NewShaper()
	}
	if config.Rasterizer == nil {
		config.Rasterizer = NewRasterizer()
	}
	cfg := m.Config()
	return &Context{
		shaper: config.Shaper,
		raster: config.Rasterizer,
		packer: atlas.NewShelfPacker(cfg.PageSize, cfg.MaxPages),
		atlas:  m,
		pad:    config.Pad,
		placed: make(map[glyphKey]*placement),
	}
}

// Atlas returns the atlas manager the context draws into.
func (c *Context) Atlas() *atlas.Manager {
	return c.atlas
}

// Layout shapes and lays out text at the given pixel size, placing any
// unseen glyphs into the atlas. It returns one quad per visible glyph and
// the set of atlas pages the quads reference; the caller locks that set
// for the lifetime of the draw batch and releases it afterward.
//
// A full atlas is degraded, not fatal: glyphs that cannot be placed are
// skipped with a logged warning, and layout continues so the remaining
// text still renders.
func (c *Context) Layout(text string, f *Font, size float64) ([]Quad, atlas.PageSet, error) {
	if f == nil {
		return nil, 0, ErrNilFont
	}
	if text == "" {
		return nil, 0, nil
	}

	glyphs := c.shaper.Shape(text, f, size)
	if len(glyphs) == 0 {
		return nil, 0, nil
	}

	pageSize := float32(c.atlas.Config().PageSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	quads := make([]Quad, 0, len(glyphs))
	var pages atlas.PageSet
	for _, g := range glyphs {
		p, err := c.place(f, g.GID, size)
		if err != nil {
			texatlas.Logger().Warn("glyph skipped",
				"font", f.ID(), "glyph", g.GID, "error", err)
			continue
		}
		if p == nil {
			// No coverage (space).
			continue
		}

		x0 := g.X + float64(p.left)
		y0 := g.Y + float64(p.top)
		quads = append(quads, Quad{
			Page: p.page,
			X0:   x0,
			Y0:   y0,
			X1:   x0 + float64(p.w),
			Y1:   y0 + float64(p.h),
			U0:   float32(p.x) / pageSize,
			V0:   float32(p.y) / pageSize,
			U1:   float32(p.x+p.w) / pageSize,
			V1:   float32(p.y+p.h) / pageSize,
		})
		pages.Add(p.page)
	}

	return quads, pages, nil
}

// place returns the atlas placement for a glyph, rasterizing and placing
// it on first sight. Returns (nil, nil) for glyphs with no coverage.
// Caller holds c.mu.
func (c *Context) place(f *Font, gid GlyphID, size float64) (*placement, error) {
	key := glyphKey{font: f.ID(), gid: gid, size: int16(size)}
	if p, seen := c.placed[key]; seen {
		return p, nil
	}

	bm, err := c.raster.Rasterize(f, gid, size)
	if err != nil {
		return nil, err
	}
	if bm == nil {
		// Cache the miss so spaces are not re-rasterized every call.
		c.placed[key] = nil
		return nil, nil
	}

	id, x, y, ok := c.packer.Pack(bm.Width, bm.Height, c.pad)
	if !ok {
		return nil, &atlas.PoolFullError{MaxPages: c.atlas.Config().MaxPages}
	}
	if err := c.atlas.AddGlyph(id, x, y, bm.Width, bm.Height, bm.Pixels, bm.Width, c.pad); err != nil {
		return nil, err
	}

	p := &placement{
		page: id,
		x:    x,
		y:    y,
		w:    bm.Width,
		h:    bm.Height,
		left: bm.Left,
		top:  bm.Top,
	}
	c.placed[key] = p
	return p, nil
}

// IsPoolFull reports whether err is a pool-exhaustion failure.
func IsPoolFull(err error) bool {
	var pf *atlas.PoolFullError
	return errors.As(err, &pf)
}
