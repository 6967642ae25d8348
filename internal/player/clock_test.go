package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mgpai22/lesson/internal/caption"
	"github.com/mgpai22/lesson/internal/engine"
)

type manualTime struct {
	mu  sync.Mutex
	now time.Time
}

func (m *manualTime) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTime) Advance(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(caption.Seconds(seconds))
}

func newManualClock(duration float64) (*Clock, *manualTime) {
	mt := &manualTime{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewClock(duration)
	c.now = mt.Now
	return c, mt
}

func TestClockAdvancesOnlyWhilePlaying(t *testing.T) {
	c, mt := newManualClock(60)

	mt.Advance(3)
	if got := c.CurrentTime(); got != 0 {
		t.Errorf("paused clock moved: got %v", got)
	}

	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	mt.Advance(2.5)
	if got := c.CurrentTime(); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}

	c.Pause()
	mt.Advance(10)
	if got := c.CurrentTime(); got != 2.5 {
		t.Errorf("expected position to hold at 2.5, got %v", got)
	}
}

func TestClockSeek(t *testing.T) {
	c, mt := newManualClock(20)

	tests := []struct {
		seek     float64
		expected float64
	}{
		{seek: 7, expected: 7},
		{seek: -3, expected: 0},
		{seek: 45, expected: 20},
	}
	for _, tt := range tests {
		c.Seek(tt.seek)
		if got := c.CurrentTime(); got != tt.expected {
			t.Errorf("Seek(%v): expected %v, got %v", tt.seek, tt.expected, got)
		}
	}

	c.Seek(4)
	_ = c.Play()
	mt.Advance(1)
	c.Seek(10)
	mt.Advance(0.5)
	if got := c.CurrentTime(); got != 10.5 {
		t.Errorf("seek while playing: expected 10.5, got %v", got)
	}
}

func TestClockPollEndsAtDuration(t *testing.T) {
	c, mt := newManualClock(5)

	if update, ended := c.poll(); update || ended {
		t.Errorf("idle clock should not update, got update=%v ended=%v", update, ended)
	}

	_ = c.Play()
	mt.Advance(2)
	if update, ended := c.poll(); !update || ended {
		t.Errorf("expected update without end, got update=%v ended=%v", update, ended)
	}

	mt.Advance(4)
	update, ended := c.poll()
	if !update || !ended {
		t.Fatalf("expected final update and end, got update=%v ended=%v", update, ended)
	}
	if c.Playing() {
		t.Error("clock should stop at the end of the track")
	}
	if got := c.CurrentTime(); got != 5 {
		t.Errorf("expected position 5, got %v", got)
	}

	// a finished track restarts from the top
	_ = c.Play()
	if got := c.CurrentTime(); got != 0 {
		t.Errorf("expected restart at 0, got %v", got)
	}
}

func TestClockWithoutDurationNeverEnds(t *testing.T) {
	c, mt := newManualClock(0)
	_ = c.Play()
	mt.Advance(1e6)
	if _, ended := c.poll(); ended {
		t.Error("clock with unknown duration should not end")
	}
}

func TestClockDrivesEngine(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	index := caption.NewIndex([]caption.Segment{
		{Primary: "one", Start: 0, End: 0.05},
		{Primary: "two", Start: 0.05, End: 0},
	}, caption.Metadata{})

	d := engine.NewDispatcher(16)
	clock := NewClock(0.15)
	e := engine.New(index, clock, nil, nil)
	e.Attach(clock, clock)

	ended := make(chan int, 1)
	clock.OnEnded(func() {
		select {
		case ended <- e.ActiveIndex():
		default:
		}
	})

	go d.Run(ctx)
	go clock.Run(ctx, d, 5*time.Millisecond)

	d.Post(ctx, func() { _ = clock.Play() })

	select {
	case active := <-ended:
		if active != 1 {
			t.Errorf("expected last segment active at end, got %d", active)
		}
	case <-ctx.Done():
		t.Fatal("track never ended")
	}
}

func TestClockBoundedSegmentStops(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	index := caption.NewIndex([]caption.Segment{
		{Primary: "one", Start: 0, End: 0.05},
		{Primary: "two", Start: 0.05, End: 0.1},
		{Primary: "three", Start: 0.1, End: 0},
	}, caption.Metadata{})

	d := engine.NewDispatcher(16)
	clock := NewClock(10)
	e := engine.New(index, clock, nil, nil)
	e.Attach(clock, clock)

	go d.Run(ctx)
	go clock.Run(ctx, d, 5*time.Millisecond)

	d.Post(ctx, func() {
		if err := e.ClickSegment(1); err != nil {
			t.Errorf("ClickSegment failed: %v", err)
		}
	})

	deadline := time.After(3 * time.Second)
	for {
		idle := make(chan bool, 1)
		d.Post(ctx, func() { idle <- e.Mode() == engine.Idle })
		if <-idle {
			break
		}
		select {
		case <-deadline:
			t.Fatal("bounded playback never stopped")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if clock.Playing() {
		t.Error("clock should be paused after the segment boundary")
	}
	if got := clock.CurrentTime(); got != 0.1 {
		t.Errorf("expected clock seeked to boundary 0.1, got %v", got)
	}
}
