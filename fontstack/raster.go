package fontstack

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// The atlas stores unhinted coverage; hinting would tie the bitmaps to a
// single subpixel phase.
const hintingNone = font.HintingNone

// GlyphBitmap is a rasterized glyph: an 8-bit coverage mask plus the
// placement of that mask relative to the pen position.
type GlyphBitmap struct {
	// Width, Height are the mask dimensions in pixels.
	Width, Height int

	// Left, Top offset the mask's top-left corner from the pen position,
	// y growing downward (Top is negative for glyphs above the baseline).
	Left, Top int

	// Advance is the horizontal advance in pixels.
	Advance float64

	// Pixels holds Height rows of Width coverage bytes.
	Pixels []byte
}

// GlyphRasterizer produces coverage bitmaps for glyph ids. Implementations
// other than Rasterizer can supply SDF bitmaps or color emoji as long as
// they fill single-channel masks.
type GlyphRasterizer interface {
	// Rasterize renders the glyph at the given pixel size. It returns
	// (nil, nil) for glyphs with no coverage, such as spaces.
	Rasterize(f *Font, gid GlyphID, ppem float64) (*GlyphBitmap, error)
}

// Rasterizer renders glyph outlines to coverage masks using
// x/image/font/sfnt outlines filled by x/image/vector.
//
// Rasterizer is safe for concurrent use; outline loading serializes on the
// font's internal buffer.
type Rasterizer struct{}

// NewRasterizer creates a Rasterizer.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{}
}

// Rasterize implements the GlyphRasterizer interface.
func (r *Rasterizer) Rasterize(f *Font, gid GlyphID, ppem float64) (*GlyphBitmap, error) {
	if f == nil {
		return nil, ErrNilFont
	}

	size := floatToFixed(ppem)

	f.mu.Lock()
	defer f.mu.Unlock()

	segs, err := f.sfnt.LoadGlyph(&f.buf, sfnt.GlyphIndex(gid), size, nil)
	if err != nil {
		return nil, fmt.Errorf("fontstack: loading glyph %d: %w", gid, err)
	}

	advance, err := f.sfnt.GlyphAdvance(&f.buf, sfnt.GlyphIndex(gid), size, hintingNone)
	if err != nil {
		return nil, fmt.Errorf("fontstack: glyph %d advance: %w", gid, err)
	}

	minX, minY, maxX, maxY, empty := segmentBounds(segs)
	if empty {
		// No coverage (space, zero-width glyph).
		return nil, nil
	}

	// Snap the mask to whole pixels around the outline.
	x0 := int(minX >> 6)
	y0 := int(minY >> 6)
	x1 := int((maxX + 63) >> 6)
	y1 := int((maxY + 63) >> 6)
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return nil, nil
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	rast := vector.NewRasterizer(w, h)
	rast.DrawOp = draw.Src

	ox := -float32(x0)
	oy := -float32(y0)
	started := false
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if started {
				rast.ClosePath()
			}
			rast.MoveTo(fixedToFloat32(seg.Args[0].X)+ox, fixedToFloat32(seg.Args[0].Y)+oy)
			started = true
		case sfnt.SegmentOpLineTo:
			rast.LineTo(fixedToFloat32(seg.Args[0].X)+ox, fixedToFloat32(seg.Args[0].Y)+oy)
		case sfnt.SegmentOpQuadTo:
			rast.QuadTo(
				fixedToFloat32(seg.Args[0].X)+ox, fixedToFloat32(seg.Args[0].Y)+oy,
				fixedToFloat32(seg.Args[1].X)+ox, fixedToFloat32(seg.Args[1].Y)+oy)
		case sfnt.SegmentOpCubeTo:
			rast.CubeTo(
				fixedToFloat32(seg.Args[0].X)+ox, fixedToFloat32(seg.Args[0].Y)+oy,
				fixedToFloat32(seg.Args[1].X)+ox, fixedToFloat32(seg.Args[1].Y)+oy,
				fixedToFloat32(seg.Args[2].X)+ox, fixedToFloat32(seg.Args[2].Y)+oy)
		}
	}
	if started {
		rast.ClosePath()
	}
	rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	return &GlyphBitmap{
		Width:   w,
		Height:  h,
		Left:    x0,
		Top:     y0,
		Advance: fixedToFloat(advance),
		Pixels:  mask.Pix,
	}, nil
}

// segmentBounds returns the fixed-point bounding box of the outline.
func segmentBounds(segs []sfnt.Segment) (minX, minY, maxX, maxY fixed.Int26_6, empty bool) {
	if len(segs) == 0 {
		return 0, 0, 0, 0, true
	}

	first := true
	for _, seg := range segs {
		var n int
		switch seg.Op {
		case sfnt.SegmentOpMoveTo, sfnt.SegmentOpLineTo:
			n = 1
		case sfnt.SegmentOpQuadTo:
			n = 2
		case sfnt.SegmentOpCubeTo:
			n = 3
		}
		for i := 0; i < n; i++ {
			p := seg.Args[i]
			if first {
				minX, maxX = p.X, p.X
				minY, maxY = p.Y, p.Y
				first = false
				continue
			}
			if p.X < minX {
				minX = p.X
			}
			if p.X > maxX {
				maxX = p.X
			}
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
	}
	return minX, minY, maxX, maxY, first
}

// fixedToFloat32 converts a fixed.Int26_6 value to float32.
func fixedToFloat32(v fixed.Int26_6) float32 {
	return float32(v) / 64.0
}
