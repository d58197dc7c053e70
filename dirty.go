package texatlas

import "fmt"

// RowRange is a half-open interval [Min, Max) of pixel rows.
type RowRange struct {
	Min, Max int
}

// DirtyRangeSet tracks which rows of a pixel buffer have been modified
// since the last GPU sync. It maintains a minimal sorted set of disjoint
// row intervals: inserting an interval that overlaps or touches existing
// intervals merges them into one. GPU sub-uploads are issued once per
// merged interval, so keeping the set minimal avoids duplicate transfers.
//
// The zero value is an empty set, ready for use. DirtyRangeSet is not
// safe for concurrent use; callers serialize access (the atlas manager
// holds its own lock around all dirty mutation and draining).
type DirtyRangeSet struct {
	ranges []RowRange
}

// MarkDirty inserts the interval [start, start+height) into the set,
// merging it with any overlapping or touching intervals.
//
// A negative height is a defect at the call site and panics. A zero
// height is a no-op.
func (s *DirtyRangeSet) MarkDirty(start, height int) {
	if height < 0 {
		panic(fmt.Sprintf("texatlas: negative dirty range height %d at row %d", height, start))
	}
	if height == 0 {
		return
	}
	min, max := start, start+height

	if len(s.ranges) == 0 {
		s.ranges = append(s.ranges, RowRange{min, max})
		return
	}

	// Find the first interval the new one overlaps or touches.
	i := 0
	for ; i < len(s.ranges); i++ {
		r := &s.ranges[i]
		if min > r.Max {
			// New interval is entirely after this one.
			continue
		}
		if max < r.Min {
			// New interval is entirely before this one: insert and done.
			s.ranges = append(s.ranges, RowRange{})
			copy(s.ranges[i+1:], s.ranges[i:])
			s.ranges[i] = RowRange{min, max}
			return
		}
		// Overlap or touch: widen this interval to the union.
		if min < r.Min {
			r.Min = min
		}
		if max > r.Max {
			r.Max = max
		}
		break
	}
	if i == len(s.ranges) {
		s.ranges = append(s.ranges, RowRange{min, max})
		return
	}

	// Absorb any later intervals the widened bound now reaches.
	r := &s.ranges[i]
	j := i + 1
	for j < len(s.ranges) && s.ranges[j].Min <= r.Max {
		if s.ranges[j].Max > r.Max {
			r.Max = s.ranges[j].Max
		}
		j++
	}
	if j > i+1 {
		s.ranges = append(s.ranges[:i+1], s.ranges[j:]...)
	}
}

// Clear empties the set.
func (s *DirtyRangeSet) Clear() {
	s.ranges = s.ranges[:0]
}

// IsEmpty reports whether no region is pending.
func (s *DirtyRangeSet) IsEmpty() bool {
	return len(s.ranges) == 0
}

// Len returns the number of merged intervals.
func (s *DirtyRangeSet) Len() int {
	return len(s.ranges)
}

// Ranges returns the merged intervals in ascending row order.
// The returned slice is valid until the next mutation of the set.
func (s *DirtyRangeSet) Ranges() []RowRange {
	return s.ranges
}
