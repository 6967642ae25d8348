package engine

import (
	"errors"
	"fmt"

	"github.com/mgpai22/lesson/internal/caption"
	"github.com/mgpai22/lesson/internal/lesson"
	"github.com/mgpai22/lesson/internal/logging"
)

var (
	ErrNextUnavailable   = errors.New("next lesson unavailable")
	ErrSegmentOutOfRange = errors.New("segment index out of range")
)

// the playback primitive the engine drives
type Media interface {
	CurrentTime() float64
	Seek(t float64)
	Play() error
	Pause()
}

// receives the engine's presentation side effects
type Presenter interface {
	Activate(i int)
	Deactivate(i int)
	ScrollIntoView(i int)
	SetLoopMode(single bool)
	SetNextEnabled(enabled bool)
	Navigate(ref lesson.Ref)
}

// delivers time-update notifications from the media
type ClockSource interface {
	OnTimeUpdate(handler func(t float64))
}

// delivers end-of-track notifications from the media
type EndSource interface {
	OnEnded(handler func())
}

// SyncState is everything the engine owns. It changes only through the
// engine's methods.
type SyncState struct {
	// caption.NoSegment when nothing is active
	ActiveIndex int
	Index       *caption.Index
	SingleLoop  bool
	// nil until the manifest lookup succeeds
	Next *lesson.Ref
}

// the stop boundary of segment-scoped playback
type PlaybackWindow struct {
	Boundary float64
	Bounded  bool
}

// Engine binds a caption index to a playback clock. It is not safe for
// concurrent use: every method must run on the same goroutine, typically a
// Dispatcher's.
type Engine struct {
	state     SyncState
	media     Media
	presenter Presenter
	logger    *logging.Logger

	mapper    *Mapper
	playback  *PlaybackController
	navigator *Navigator
}

func New(
	index *caption.Index,
	media Media,
	presenter Presenter,
	logger *logging.Logger,
) *Engine {
	if presenter == nil {
		presenter = NopPresenter{}
	}
	logger = logging.OrNop(logger)

	e := &Engine{
		state: SyncState{
			ActiveIndex: caption.NoSegment,
			Index:       index,
		},
		media:     media,
		presenter: presenter,
		logger:    logger,
	}
	e.mapper = newMapper(&e.state, presenter)
	e.playback = newPlaybackController(media, e.mapper)
	e.navigator = newNavigator(&e.state, presenter, e.playback, e.mapper, logger)

	presenter.SetLoopMode(false)
	presenter.SetNextEnabled(false)
	return e
}

// registers the engine's handlers on the media's event sources
func (e *Engine) Attach(clock ClockSource, end EndSource) {
	if clock != nil {
		clock.OnTimeUpdate(e.Tick)
	}
	if end != nil {
		end.OnEnded(e.Ended)
	}
}

// Tick handles one clock notification. A bounded stop consumes the tick;
// otherwise the active segment is re-derived from t.
func (e *Engine) Tick(t float64) {
	if e.playback.OnClockTick(t) {
		e.logger.Debugw("Bounded playback stopped", "boundary", t)
		return
	}
	if e.mapper.OnClockTick(t) {
		e.logger.Debugw("Active segment changed", "index", e.state.ActiveIndex, "time", t)
	}
}

// plays [start, end) and stops at end; end == 0 plays on unbounded
func (e *Engine) PlaySegment(start, end float64) error {
	return e.playback.PlaySegment(start, end)
}

// plays the i-th segment bounded by its end
func (e *Engine) ClickSegment(i int) error {
	seg, ok := e.state.Index.Get(i)
	if !ok {
		return fmt.Errorf("%w: %d", ErrSegmentOutOfRange, i)
	}
	return e.PlaySegment(seg.Start, seg.End)
}

// pauses the media, keeping any stop boundary for a later Resume
func (e *Engine) Pause() {
	e.playback.Pause()
}

func (e *Engine) Resume() error {
	return e.playback.Resume()
}

func (e *Engine) ToggleSingleLoop() bool {
	return e.navigator.ToggleSingleLoop()
}

// handles the end-of-track signal
func (e *Engine) Ended() {
	e.navigator.OnEnded()
}

// records the outcome of the asynchronous next-lesson lookup
func (e *Engine) ResolveNext(ref lesson.Ref, err error) {
	e.navigator.Resolve(ref, err)
}

// navigates to the next lesson
func (e *Engine) Next() error {
	return e.navigator.Next()
}

// copy of the engine state
func (e *Engine) State() SyncState {
	s := e.state
	if s.Next != nil {
		next := *s.Next
		s.Next = &next
	}
	return s
}

func (e *Engine) ActiveIndex() int {
	return e.state.ActiveIndex
}

func (e *Engine) Mode() Mode {
	return e.playback.Mode()
}

func (e *Engine) Window() PlaybackWindow {
	return e.playback.Window()
}

// discards all presentation side effects
type NopPresenter struct{}

func (NopPresenter) Activate(int) {}
func (NopPresenter) Deactivate(int) {}
func (NopPresenter) ScrollIntoView(int) {}
func (NopPresenter) SetLoopMode(bool) {}
func (NopPresenter) SetNextEnabled(bool) {}
func (NopPresenter) Navigate(lesson.Ref) {}
