package caption

import (
	"math"
	"time"
)

// one caption line bound to a [Start, End) window on the track, in seconds.
// End == 0 means open-ended.
type Segment struct {
	Primary   string  `json:"primary"`
	Secondary string  `json:"secondary"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// reports whether the segment extends to the end of the track
func (s Segment) OpenEnded() bool {
	return s.End == 0
}

// reports whether t falls strictly inside the segment window
func (s Segment) Contains(t float64) bool {
	return t > s.Start && (t < s.End || s.End == 0)
}

// album/artist/title tags of a caption file
type Metadata struct {
	Album  string `json:"album"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// represents supported caption output formats
type Format string

const (
	FormatLRC Format = "lrc"
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// converts seconds to a duration rounded to the millisecond, clamping
// negatives to zero
func Seconds(s float64) time.Duration {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	return time.Duration(math.Round(s*1000)) * time.Millisecond
}
