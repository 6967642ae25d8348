package caption

import "testing"

func TestIndexFindBoundaries(t *testing.T) {
	idx := NewIndex([]Segment{
		{Primary: "a", Start: 0, End: 10},
		{Primary: "b", Start: 10, End: 20},
		{Primary: "c", Start: 20, End: 0},
	}, Metadata{})

	tests := []struct {
		t    float64
		want int
	}{
		{-1, NoSegment},
		{0, NoSegment},
		{5, 0},
		{10.0, NoSegment},
		{10.0001, 1},
		{19.9999, 1},
		{20.0, NoSegment},
		{20.5, 2},
		{100000, 2},
	}

	for _, tt := range tests {
		if got := idx.Find(tt.t); got != tt.want {
			t.Errorf("Find(%v) = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestIndexFindMatchesLinearScan(t *testing.T) {
	sets := map[string][]Segment{
		"chained": {
			{Start: -0.3, End: 2},
			{Start: 2, End: 2},
			{Start: 2, End: 7.5},
			{Start: 7.5, End: 0},
		},
		"gap before open end": {
			{Start: 1, End: 3},
			{Start: 5, End: 0},
		},
		"out of order": {
			{Start: 10, End: 2},
			{Start: 2, End: 5},
			{Start: 5, End: 0},
		},
		"inner end at zero": {
			{Start: -0.5, End: 0},
			{Start: 0, End: 3},
			{Start: 3, End: 0},
		},
		"overlapping open ends": {
			{Start: 1, End: 0},
			{Start: 3, End: 0},
		},
	}

	for name, segs := range sets {
		t.Run(name, func(t *testing.T) {
			idx := NewIndex(segs, Metadata{})
			for x := -1.0; x <= 12; x += 0.25 {
				want := NoSegment
				for i, seg := range segs {
					if seg.Contains(x) {
						want = i
						break
					}
				}
				if got := idx.Find(x); got != want {
					t.Errorf("Find(%v) = %d, want %d", x, got, want)
				}
			}
		})
	}
}

func TestIndexChainedDetection(t *testing.T) {
	if !ParseIndex(lessonLRC).chained {
		t.Error("expected well-formed captions to be chained")
	}
	if ParseIndex("[00:10.50]late\n[00:02.50]early").chained {
		t.Error("expected out-of-order captions not to be chained")
	}
}

func TestIndexAccessors(t *testing.T) {
	idx := ParseIndex(lessonLRC)

	if idx.Len() != 4 {
		t.Fatalf("expected 4 segments, got %d", idx.Len())
	}
	seg, ok := idx.Get(1)
	if !ok || seg.Primary != "Excuse me!" {
		t.Errorf("Get(1) = %+v, %v", seg, ok)
	}
	if _, ok := idx.Get(4); ok {
		t.Error("expected Get(4) to be out of range")
	}
	if _, ok := idx.Get(-1); ok {
		t.Error("expected Get(-1) to be out of range")
	}
	if idx.Metadata().Title != "Excuse me!" {
		t.Errorf("unexpected metadata %+v", idx.Metadata())
	}

	segs := idx.Segments()
	segs[0].Primary = "changed"
	if first, _ := idx.Get(0); first.Primary == "changed" {
		t.Error("Segments must return a copy")
	}
}

func TestIndexFindLineAtHalfSecond(t *testing.T) {
	idx := ParseIndex("[00:00.00]intro\n[00:00.50]first\n[00:03.50]second")
	if idx.chained {
		t.Fatal("an inner end of 0 should not count as chained")
	}
	for _, tt := range []struct {
		t    float64
		want int
	}{
		{-0.5, NoSegment},
		{-0.2, 0},
		{1, 0},
		{5, 0},
	} {
		if got := idx.Find(tt.t); got != tt.want {
			t.Errorf("Find(%v): expected %d, got %d", tt.t, tt.want, got)
		}
	}
}
