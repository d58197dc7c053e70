package atlas

// ShelfPacker is the default placement collaborator: it assigns atlas
// coordinates to glyph rectangles using shelf-based packing, opening a new
// page when the current pages have no room.
//
// The algorithm organizes rectangles in horizontal "shelves". Each shelf
// has a fixed height (the tallest item placed on it so far). New items go
// left-to-right on a shelf until no space remains, then a new shelf starts
// below.
//
// ShelfPacker is not safe for concurrent use; callers serialize placement
// with the glyph copy (fontstack holds one lock around both).
type ShelfPacker struct {
	pageSize int
	maxPages int
	pages    []*shelfPage
}

// shelfPage tracks the shelves of one atlas page.
type shelfPage struct {
	shelves  []shelf
	usedArea int
}

// shelf represents a horizontal strip in a page.
type shelf struct {
	y      int // Y position of shelf top
	height int // height of the shelf (tallest item so far)
	x      int // current X position (next free slot)
}

// NewShelfPacker creates a packer for pages of the given edge length,
// opening at most maxPages pages.
func NewShelfPacker(pageSize, maxPages int) *ShelfPacker {
	if maxPages > MaxPages {
		maxPages = MaxPages
	}
	return &ShelfPacker{
		pageSize: pageSize,
		maxPages: maxPages,
	}
}

// Pack finds space for a w×h glyph with a pad-pixel blank border on every
// side. It returns the page and the position of the glyph itself (the
// border sits outside it), or ok == false when every page is full and the
// pool cap prevents opening another.
func (p *ShelfPacker) Pack(w, h, pad int) (id PageID, x, y int, ok bool) {
	pw, ph := w+2*pad, h+2*pad

	for i, page := range p.pages {
		if x, y, ok := page.allocate(pw, ph, p.pageSize); ok {
			return PageID(i), x + pad, y + pad, true
		}
	}

	if len(p.pages) >= p.maxPages {
		return 0, 0, 0, false
	}

	page := &shelfPage{}
	x, y, fits := page.allocate(pw, ph, p.pageSize)
	if !fits {
		// Glyph larger than a whole page.
		return 0, 0, 0, false
	}
	p.pages = append(p.pages, page)
	return PageID(len(p.pages) - 1), x + pad, y + pad, true
}

// PageCount returns the number of pages the packer has opened.
func (p *ShelfPacker) PageCount() int {
	return len(p.pages)
}

// Utilization returns the fraction of the page's area in use, in [0, 1].
func (p *ShelfPacker) Utilization(id PageID) float64 {
	if id < 0 || int(id) >= len(p.pages) {
		return 0
	}
	total := p.pageSize * p.pageSize
	if total == 0 {
		return 0
	}
	return float64(p.pages[id].usedArea) / float64(total)
}

// Reset forgets all placements. Glyph coordinates handed out before the
// reset are stale; the caller must also discard its glyph location cache.
func (p *ShelfPacker) Reset() {
	p.pages = p.pages[:0]
}

// allocate finds space for a w×h rectangle on the page.
func (s *shelfPage) allocate(w, h, pageSize int) (x, y int, ok bool) {
	if w > pageSize || h > pageSize {
		return -1, -1, false
	}

	for i := range s.shelves {
		sh := &s.shelves[i]

		if sh.x+w > pageSize {
			continue
		}
		if h > sh.height {
			// Taller than the shelf. The last shelf can grow downward if
			// there is room below it.
			if i == len(s.shelves)-1 && sh.y+h <= pageSize {
				sh.height = h
				x, y = sh.x, sh.y
				sh.x += w
				s.usedArea += w * h
				return x, y, true
			}
			continue
		}

		x, y = sh.x, sh.y
		sh.x += w
		s.usedArea += w * h
		return x, y, true
	}

	// No existing shelf works; start a new one below the last.
	newY := 0
	if len(s.shelves) > 0 {
		last := s.shelves[len(s.shelves)-1]
		newY = last.y + last.height
	}
	if newY+h > pageSize {
		return -1, -1, false
	}

	s.shelves = append(s.shelves, shelf{y: newY, height: h, x: w})
	s.usedArea += w * h
	return 0, newY, true
}
