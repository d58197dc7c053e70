package atlas

import (
	"fmt"

	"github.com/gogpu/texatlas"
)

// PageSize is the default edge length in pixels of one glyph atlas page.
const PageSize = 256

// Page is one fixed-size texture used as a packing target for many small
// glyph bitmaps. It carries a reference count: a page with refCount > 0 is
// referenced by an in-flight render batch and must stay resident. A page
// with refCount == 0 is eligible for reuse by an external eviction policy;
// the manager itself never evicts, it only caps the pool.
//
// All mutation goes through the Manager and is serialized under its lock.
type Page struct {
	id  PageID
	tex *texatlas.Texture

	refCount int

	// dirty is set when glyph pixels were merged in since the last
	// UpdateTextures drain.
	dirty bool

	// glyphs counts the bitmaps placed on this page.
	glyphs int
}

// newPage creates a page backed by a single-channel texture.
func newPage(id PageID, width, height int) *Page {
	opts := texatlas.DefaultTextureOptions()
	opts.Format = texatlas.PixelFormatR8
	opts.Label = fmt.Sprintf("glyph_page_%d", id)
	return &Page{
		id:  id,
		tex: texatlas.NewTexture(width, height, opts),
	}
}

// ID returns the page's position in the pool.
func (p *Page) ID() PageID { return p.id }

// Texture returns the page's backing texture. Sampling it requires an
// UpdateTextures call in the same frame; mutating it directly bypasses
// the manager's lock and is a defect.
func (p *Page) Texture() *texatlas.Texture { return p.tex }

// RefCount returns the number of in-flight batches referencing the page.
func (p *Page) RefCount() int { return p.refCount }

// IsDirty reports whether glyph pixels are waiting for a GPU sync.
func (p *Page) IsDirty() bool { return p.dirty }

// GlyphCount returns the number of glyph bitmaps placed on the page.
func (p *Page) GlyphCount() int { return p.glyphs }
