package caption

import "sort"

// reported by Index.Find when no segment contains the time
const NoSegment = -1

// Index is the frozen result of a parse. It is read-only after
// construction and safe to share between goroutines.
type Index struct {
	segments []Segment
	metadata Metadata

	// starts are non-decreasing and every End equals the next Start, so the
	// window containing t is always the last one starting before t
	chained bool
}

func NewIndex(segments []Segment, metadata Metadata) *Index {
	segs := make([]Segment, len(segments))
	copy(segs, segments)
	return &Index{
		segments: segs,
		metadata: metadata,
		chained:  isChained(segs),
	}
}

// parses raw caption text into an index using p
func (p *Parser) ParseIndex(raw string) *Index {
	segments, meta := p.Parse(raw)
	return NewIndex(segments, meta)
}

// parses raw caption text into an index with the default offset
func ParseIndex(raw string) *Index {
	return NewParser().ParseIndex(raw)
}

func (x *Index) Len() int {
	return len(x.segments)
}

func (x *Index) Get(i int) (Segment, bool) {
	if i < 0 || i >= len(x.segments) {
		return Segment{}, false
	}
	return x.segments[i], true
}

func (x *Index) Metadata() Metadata {
	return x.metadata
}

// copy of all segments in source order
func (x *Index) Segments() []Segment {
	segs := make([]Segment, len(x.segments))
	copy(segs, x.segments)
	return segs
}

// Find returns the lowest index whose window strictly contains t, or
// NoSegment. Chained indexes use a binary search; anything else, such as
// out-of-order files, falls back to a linear first-match scan.
func (x *Index) Find(t float64) int {
	if x.chained {
		return x.findChained(t)
	}
	for i, seg := range x.segments {
		if seg.Contains(t) {
			return i
		}
	}
	return NoSegment
}

func (x *Index) findChained(t float64) int {
	// number of segments starting strictly before t
	k := sort.Search(len(x.segments), func(i int) bool {
		return x.segments[i].Start >= t
	})
	if k == 0 {
		return NoSegment
	}
	if x.segments[k-1].Contains(t) {
		return k - 1
	}
	return NoSegment
}

// starts are sorted and each end is the next start. An inner end of 0 is
// open-ended under Contains and shadows every later segment, so it breaks
// the chain.
func isChained(segs []Segment) bool {
	for i := 0; i+1 < len(segs); i++ {
		if segs[i].End == 0 || segs[i+1].Start < segs[i].Start || segs[i].End != segs[i+1].Start {
			return false
		}
	}
	return true
}
