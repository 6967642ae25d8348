package engine

import "fmt"

// playback mode of the controller
type Mode int

const (
	Idle Mode = iota
	PlayingUnbounded
	PlayingBounded
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "Idle"
	case PlayingUnbounded:
		return "PlayingUnbounded"
	case PlayingBounded:
		return "PlayingBounded"
	default:
		return "Unknown"
	}
}

// PlaybackController enforces the stop boundary of segment-scoped playback.
type PlaybackController struct {
	media  Media
	mapper *Mapper
	window PlaybackWindow
	mode   Mode
}

func newPlaybackController(media Media, mapper *Mapper) *PlaybackController {
	return &PlaybackController{media: media, mapper: mapper}
}

// PlaySegment seeks to start and plays, stopping at end unless end is 0.
// It replaces any boundary already in place.
func (c *PlaybackController) PlaySegment(start, end float64) error {
	if end == 0 {
		c.window = PlaybackWindow{}
		c.mode = PlayingUnbounded
	} else {
		c.window = PlaybackWindow{Boundary: end, Bounded: true}
		c.mode = PlayingBounded
	}

	c.media.Seek(start)
	err := c.media.Play()
	c.mapper.Reset()
	if err != nil {
		c.mode = Idle
		return fmt.Errorf("failed to start playback: %w", err)
	}
	return nil
}

// OnClockTick stops playback exactly at the boundary once t reaches it and
// reports whether it did. The comparison is >= so a jump past the boundary
// between two ticks still stops.
func (c *PlaybackController) OnClockTick(t float64) bool {
	if !c.window.Bounded || t < c.window.Boundary {
		return false
	}
	boundary := c.window.Boundary
	c.media.Pause()
	c.media.Seek(boundary)
	c.window = PlaybackWindow{}
	c.mapper.Reset()
	c.mode = Idle
	return true
}

func (c *PlaybackController) Pause() {
	c.media.Pause()
	c.mode = Idle
}

func (c *PlaybackController) Resume() error {
	if err := c.media.Play(); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	if c.window.Bounded {
		c.mode = PlayingBounded
	} else {
		c.mode = PlayingUnbounded
	}
	return nil
}

// plays the whole track again from the beginning
func (c *PlaybackController) Restart() error {
	c.window = PlaybackWindow{}
	c.media.Seek(0)
	if err := c.media.Play(); err != nil {
		c.mode = Idle
		return fmt.Errorf("failed to restart playback: %w", err)
	}
	c.mode = PlayingUnbounded
	return nil
}

// drops the boundary and marks playback as stopped
func (c *PlaybackController) Stop() {
	c.window = PlaybackWindow{}
	c.mode = Idle
}

func (c *PlaybackController) Mode() Mode {
	return c.mode
}

func (c *PlaybackController) Window() PlaybackWindow {
	return c.window
}
