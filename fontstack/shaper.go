package fontstack

import (
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/text/unicode/bidi"
)

// GlyphID is a glyph index within a font.
type GlyphID uint32

// ShapedGlyph is one positioned glyph produced by shaping.
type ShapedGlyph struct {
	// GID is the glyph index within the font.
	GID GlyphID

	// Cluster is the rune index in the source text this glyph maps to.
	Cluster int

	// X, Y is the pen position for this glyph in pixels, including
	// shaping offsets. Y grows downward.
	X, Y float64

	// XAdvance, YAdvance is how far the pen moved after this glyph.
	XAdvance, YAdvance float64
}

// TextShaper converts text into positioned glyphs.
type TextShaper interface {
	Shape(text string, f *Font, size float64) []ShapedGlyph
}

// Shaper provides HarfBuzz-level shaping using go-text/typesetting:
// ligatures, kerning, contextual alternates, right-to-left and complex
// scripts. The base direction of each call is detected with the Unicode
// bidi algorithm.
//
// Shaper is safe for concurrent use. HarfbuzzShaper instances have
// internal mutable state and are pooled; gtfont.Face values are created
// per call (font.Face is not safe for concurrent use, font.Font is).
type Shaper struct {
	pool sync.Pool
}

// NewShaper creates a Shaper.
func NewShaper() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
	}
}

// Shape implements the TextShaper interface.
func (s *Shaper) Shape(text string, f *Font, size float64) []ShapedGlyph {
	if text == "" || f == nil {
		return nil
	}

	runes := []rune(text)
	dir := baseDirection(text)

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      gtfont.NewFace(f.gotext),
		Size:      floatToFixed(size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	return convertGlyphs(output.Glyphs)
}

// convertGlyphs converts go-text output glyphs, accumulating the pen
// position so each ShapedGlyph carries its absolute layout position.
func convertGlyphs(glyphs []shaping.Glyph) []ShapedGlyph {
	if len(glyphs) == 0 {
		return nil
	}

	result := make([]ShapedGlyph, len(glyphs))

	var x, y float64
	for i, g := range glyphs {
		xAdv := fixedToFloat(g.XAdvance)
		yAdv := fixedToFloat(g.YAdvance)

		result[i] = ShapedGlyph{
			GID:      GlyphID(g.GlyphID),
			Cluster:  g.ClusterIndex,
			X:        x + fixedToFloat(g.XOffset),
			Y:        y - fixedToFloat(g.YOffset),
			XAdvance: xAdv,
			YAdvance: yAdv,
		}

		x += xAdv
		y += yAdv
	}

	return result
}

// baseDirection runs the bidi algorithm over the text and returns the
// direction of its first run.
func baseDirection(text string) di.Direction {
	p := bidi.Paragraph{}
	if _, err := p.SetString(text); err != nil {
		return di.DirectionLTR
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return di.DirectionLTR
	}
	run := ordering.Run(0)
	if run.Direction() == bidi.RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// detectScript inspects the runes and returns the script of the first
// non-space character. A simple heuristic; mixed-script text should be
// split into runs by the caller before shaping.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
