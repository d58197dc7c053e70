package fontstack

import (
	"testing"

	"github.com/gogpu/texatlas/atlas"
)

// stubShaper returns a fixed glyph sequence regardless of input.
type stubShaper struct {
	glyphs []ShapedGlyph
}

func (s *stubShaper) Shape(text string, f *Font, size float64) []ShapedGlyph {
	return s.glyphs
}

// stubRasterizer serves canned bitmaps by glyph id and counts calls.
type stubRasterizer struct {
	bitmaps map[GlyphID]*GlyphBitmap
	calls   int
}

func (r *stubRasterizer) Rasterize(f *Font, gid GlyphID, ppem float64) (*GlyphBitmap, error) {
	r.calls++
	return r.bitmaps[gid], nil
}

func coverageBitmap(w, h, left, top int) *GlyphBitmap {
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = 0xFF
	}
	return &GlyphBitmap{Width: w, Height: h, Left: left, Top: top, Advance: float64(w + 1), Pixels: pix}
}

func testManager(t *testing.T, pageSize, maxPages int) *atlas.Manager {
	t.Helper()
	m, err := atlas.NewManager(atlas.Config{PageSize: pageSize, MaxPages: maxPages})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestContext_LayoutEmitsQuadsAndPages(t *testing.T) {
	m := testManager(t, 32, 2)

	raster := &stubRasterizer{bitmaps: map[GlyphID]*GlyphBitmap{
		1: coverageBitmap(4, 4, 1, -4),
		2: coverageBitmap(4, 4, 0, -4),
	}}
	shaper := &stubShaper{glyphs: []ShapedGlyph{
		{GID: 1, X: 0, Y: 0, XAdvance: 10},
		{GID: 2, X: 10, Y: 0, XAdvance: 10},
	}}

	ctx := NewContextWithConfig(m, ContextConfig{Shaper: shaper, Rasterizer: raster})

	quads, pages, err := ctx.Layout("ab", &Font{id: 1}, 16)
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	if len(quads) != 2 {
		t.Fatalf("quads = %d, want 2", len(quads))
	}
	if !pages.Has(0) || pages.Count() != 1 {
		t.Errorf("pages = %v, want exactly page 0", pages.Pages())
	}

	// First glyph: pen (0,0) plus bearing (1,-4), 4x4 pixels.
	q := quads[0]
	if q.X0 != 1 || q.Y0 != -4 || q.X1 != 5 || q.Y1 != 0 {
		t.Errorf("quad 0 rect = (%v,%v)-(%v,%v), want (1,-4)-(5,0)", q.X0, q.Y0, q.X1, q.Y1)
	}
	// Shelf packer places the first glyph at (1,1) inside the default pad.
	if q.U0 != 1.0/32 || q.V0 != 1.0/32 || q.U1 != 5.0/32 || q.V1 != 5.0/32 {
		t.Errorf("quad 0 UVs = (%v,%v)-(%v,%v)", q.U0, q.V0, q.U1, q.V1)
	}

	// Second glyph: pen advanced to x=10, zero left bearing.
	if quads[1].X0 != 10 {
		t.Errorf("quad 1 X0 = %v, want 10", quads[1].X0)
	}

	// Placements landed in the atlas.
	if m.PageCount() != 1 {
		t.Errorf("PageCount() = %d, want 1", m.PageCount())
	}
	if placed, failed := m.Stats(); placed != 2 || failed != 0 {
		t.Errorf("Stats() = (%d, %d), want (2, 0)", placed, failed)
	}
}

func TestContext_PlacementCacheSkipsRerasterization(t *testing.T) {
	m := testManager(t, 32, 2)
	raster := &stubRasterizer{bitmaps: map[GlyphID]*GlyphBitmap{
		1: coverageBitmap(4, 4, 0, -4),
	}}
	shaper := &stubShaper{glyphs: []ShapedGlyph{
		{GID: 1, X: 0}, {GID: 1, X: 5}, {GID: 1, X: 10},
	}}

	ctx := NewContextWithConfig(m, ContextConfig{Shaper: shaper, Rasterizer: raster})
	f := &Font{id: 1}

	if _, _, err := ctx.Layout("aaa", f, 16); err != nil {
		t.Fatal(err)
	}
	if raster.calls != 1 {
		t.Errorf("rasterize calls = %d, want 1 (cached after first)", raster.calls)
	}

	if _, _, err := ctx.Layout("aaa", f, 16); err != nil {
		t.Fatal(err)
	}
	if raster.calls != 1 {
		t.Errorf("rasterize calls after second layout = %d, want 1", raster.calls)
	}
	if placed, _ := m.Stats(); placed != 1 {
		t.Errorf("glyphs placed = %d, want 1", placed)
	}
}

func TestContext_WhitespaceEmitsNoQuads(t *testing.T) {
	m := testManager(t, 32, 2)
	raster := &stubRasterizer{bitmaps: map[GlyphID]*GlyphBitmap{
		1: coverageBitmap(4, 4, 0, -4),
		// gid 2 has no bitmap: a space.
	}}
	shaper := &stubShaper{glyphs: []ShapedGlyph{
		{GID: 1, X: 0}, {GID: 2, X: 5}, {GID: 1, X: 12},
	}}

	ctx := NewContextWithConfig(m, ContextConfig{Shaper: shaper, Rasterizer: raster})
	f := &Font{id: 1}

	quads, _, err := ctx.Layout("a a", f, 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(quads) != 2 {
		t.Errorf("quads = %d, want 2 (space skipped)", len(quads))
	}

	// The no-coverage result is cached too.
	if _, _, err := ctx.Layout("a a", f, 16); err != nil {
		t.Fatal(err)
	}
	if raster.calls != 2 {
		t.Errorf("rasterize calls = %d, want 2", raster.calls)
	}
}

func TestContext_FullPoolDegradesGracefully(t *testing.T) {
	m := testManager(t, 32, 1)
	raster := &stubRasterizer{bitmaps: map[GlyphID]*GlyphBitmap{
		1: coverageBitmap(40, 40, 0, -40), // can never fit a 32-pixel page
	}}
	shaper := &stubShaper{glyphs: []ShapedGlyph{{GID: 1, X: 0}}}

	ctx := NewContextWithConfig(m, ContextConfig{Shaper: shaper, Rasterizer: raster})

	quads, pages, err := ctx.Layout("a", &Font{id: 1}, 16)
	if err != nil {
		t.Fatalf("full pool should degrade, not fail: %v", err)
	}
	if len(quads) != 0 {
		t.Errorf("quads = %d, want 0", len(quads))
	}
	if !pages.IsEmpty() {
		t.Errorf("pages = %v, want empty", pages.Pages())
	}
}

func TestContext_NilFontAndEmptyText(t *testing.T) {
	m := testManager(t, 32, 1)
	ctx := NewContextWithConfig(m, ContextConfig{
		Shaper:     &stubShaper{},
		Rasterizer: &stubRasterizer{},
	})

	if _, _, err := ctx.Layout("x", nil, 16); err != ErrNilFont {
		t.Errorf("nil font error = %v, want ErrNilFont", err)
	}
	quads, pages, err := ctx.Layout("", &Font{id: 1}, 16)
	if err != nil || quads != nil || !pages.IsEmpty() {
		t.Errorf("empty text = (%v, %v, %v), want (nil, empty, nil)", quads, pages, err)
	}
}

func TestIsPoolFull(t *testing.T) {
	if !IsPoolFull(&atlas.PoolFullError{MaxPages: 4}) {
		t.Error("PoolFullError should report as pool-full")
	}
	if IsPoolFull(ErrNilFont) {
		t.Error("unrelated errors are not pool-full")
	}
}
