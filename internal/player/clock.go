package player

import (
	"context"
	"sync"
	"time"

	"github.com/mgpai22/lesson/internal/engine"
)

const DefaultInterval = 250 * time.Millisecond

// Clock is a headless media element. Its position advances in real time
// while playing and stops at the track duration. Notifications are posted
// to a dispatcher so handlers run on the engine's goroutine.
type Clock struct {
	mu       sync.Mutex
	now      func() time.Time
	position float64
	anchor   time.Time
	playing  bool
	duration float64

	onTime  []func(t float64)
	onEnded []func()
}

// duration 0 means unknown; the clock then never ends
func NewClock(duration float64) *Clock {
	if duration < 0 {
		duration = 0
	}
	return &Clock{now: time.Now, duration: duration}
}

// current position; callers must hold mu
func (c *Clock) positionLocked() float64 {
	if !c.playing {
		return c.position
	}
	pos := c.position + c.now().Sub(c.anchor).Seconds()
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	return pos
}

func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *Clock) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Seek clamps t to the track.
func (c *Clock) Seek(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < 0 {
		t = 0
	}
	if c.duration > 0 && t > c.duration {
		t = c.duration
	}
	c.position = t
	c.anchor = c.now()
}

// Play starts the clock. Playing a finished track starts it over.
func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return nil
	}
	if c.duration > 0 && c.position >= c.duration {
		c.position = 0
	}
	c.playing = true
	c.anchor = c.now()
	return nil
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	c.position = c.positionLocked()
	c.playing = false
}

func (c *Clock) OnTimeUpdate(handler func(t float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTime = append(c.onTime, handler)
}

func (c *Clock) OnEnded(handler func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnded = append(c.onEnded, handler)
}

// poll samples the clock once. It reports whether a time update is due
// and whether the track just ended, in which case playback stops at the
// duration.
func (c *Clock) poll() (update, ended bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return false, false
	}
	pos := c.positionLocked()
	if c.duration > 0 && pos >= c.duration {
		c.position = c.duration
		c.playing = false
		return true, true
	}
	return true, false
}

func (c *Clock) handlers() ([]func(float64), []func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]func(float64){}, c.onTime...), append([]func(){}, c.onEnded...)
}

// Run samples the clock every interval until ctx is done. Time updates
// read the position when the dispatcher runs them, not when they were
// queued.
func (c *Clock) Run(ctx context.Context, d *engine.Dispatcher, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		update, ended := c.poll()
		if !update {
			continue
		}
		onTime, onEnded := c.handlers()

		d.Post(ctx, func() {
			t := c.CurrentTime()
			for _, h := range onTime {
				h(t)
			}
		})
		if ended {
			d.Post(ctx, func() {
				for _, h := range onEnded {
					h()
				}
			})
		}
	}
}
