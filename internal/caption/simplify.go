package caption

import (
	"fmt"

	"github.com/liuzl/gocc"
)

// converts traditional Chinese secondary text to simplified
type Simplifier struct {
	converter *gocc.OpenCC
}

func NewSimplifier() (*Simplifier, error) {
	converter, err := gocc.New("t2s")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenCC converter: %w", err)
	}
	return &Simplifier{converter: converter}, nil
}

// returns a copy of segments with every secondary text simplified.
// Text that fails to convert is kept as is.
func (s *Simplifier) Apply(segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	for i, seg := range segments {
		if seg.Secondary != "" {
			if converted, err := s.converter.Convert(seg.Secondary); err == nil {
				seg.Secondary = converted
			}
		}
		out[i] = seg
	}
	return out
}
