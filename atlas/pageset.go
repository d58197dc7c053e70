package atlas

import "math/bits"

// MaxPages is the hard cap on glyph atlas pages, and the width of PageSet.
const MaxPages = 64

// PageID indexes a page in the atlas manager's pool, in [0, MaxPages).
type PageID int

// PageSet is a bitset of atlas pages. A render batch accumulates the set
// of pages its glyphs live on, then locks the whole set for the lifetime
// of the batch. The zero value is the empty set.
type PageSet uint64

// Add sets the bit for id. Ids outside [0, MaxPages) are ignored.
func (s *PageSet) Add(id PageID) {
	if id < 0 || id >= MaxPages {
		return
	}
	*s |= 1 << uint(id)
}

// Remove clears the bit for id.
func (s *PageSet) Remove(id PageID) {
	if id < 0 || id >= MaxPages {
		return
	}
	*s &^= 1 << uint(id)
}

// Has reports whether id is in the set.
func (s PageSet) Has(id PageID) bool {
	if id < 0 || id >= MaxPages {
		return false
	}
	return s&(1<<uint(id)) != 0
}

// IsEmpty reports whether the set contains no pages.
func (s PageSet) IsEmpty() bool { return s == 0 }

// Count returns the number of pages in the set.
func (s PageSet) Count() int { return bits.OnesCount64(uint64(s)) }

// Pages returns the ids in the set in ascending order.
func (s PageSet) Pages() []PageID {
	if s == 0 {
		return nil
	}
	ids := make([]PageID, 0, s.Count())
	for v := uint64(s); v != 0; v &= v - 1 {
		ids = append(ids, PageID(bits.TrailingZeros64(v)))
	}
	return ids
}
