// Package fontstack turns text into glyph quads backed by the atlas: it
// shapes text with go-text/typesetting, rasterizes missing glyphs to 8-bit
// coverage masks, places them through a packer, and reports which atlas
// pages each batch of quads touches so callers can lock them for the
// lifetime of the batch.
package fontstack

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Font errors.
var (
	// ErrEmptyFontData is returned when parsing zero-length font data.
	ErrEmptyFontData = errors.New("fontstack: empty font data")

	// ErrNilFont is returned when an operation requires a font and got nil.
	ErrNilFont = errors.New("fontstack: font is nil")
)

// nextFontID assigns process-unique font ids, used in glyph cache keys.
var nextFontID atomic.Uint64

// Font is a parsed font ready for shaping and rasterization. The same
// data is parsed twice: once with go-text/typesetting for HarfBuzz
// shaping, once with x/image/font/sfnt for outline rasterization.
//
// Font is safe for concurrent use.
type Font struct {
	id     uint64
	sfnt   *sfnt.Font
	gotext *gtfont.Font

	// mu guards buf; sfnt.Buffer is not safe for concurrent use.
	mu  sync.Mutex
	buf sfnt.Buffer
}

// Parse parses TTF/OTF font data.
func Parse(data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}

	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fontstack: parsing font outlines: %w", err)
	}

	// ParseTTF returns a *Face embedding the thread-safe *Font; only the
	// Font is retained, faces are created per shaping call.
	face, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fontstack: parsing font for shaping: %w", err)
	}

	return &Font{
		id:     nextFontID.Add(1),
		sfnt:   sf,
		gotext: face.Font,
	}, nil
}

// ID returns the process-unique id of this font.
func (f *Font) ID() uint64 { return f.id }

// Metrics holds font-wide vertical metrics in pixels for one size.
type Metrics struct {
	Ascender   float64
	Descender  float64
	LineHeight float64
}

// Metrics returns the font's vertical metrics at the given pixel size.
func (f *Font) Metrics(size float64) (Metrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.sfnt.Metrics(&f.buf, floatToFixed(size), hintingNone)
	if err != nil {
		return Metrics{}, fmt.Errorf("fontstack: reading font metrics: %w", err)
	}
	return Metrics{
		Ascender:   fixedToFloat(m.Ascent),
		Descender:  fixedToFloat(m.Descent),
		LineHeight: fixedToFloat(m.Height),
	}, nil
}

// floatToFixed converts a float64 pixel value to fixed.Int26_6.
// The fixed-point representation uses 6 fractional bits.
func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// fixedToFloat converts a fixed.Int26_6 value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
