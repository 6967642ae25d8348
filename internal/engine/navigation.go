package engine

import (
	"github.com/mgpai22/lesson/internal/lesson"
	"github.com/mgpai22/lesson/internal/logging"
)

// Navigator owns single-loop mode and the transition to the next lesson.
type Navigator struct {
	state     *SyncState
	presenter Presenter
	playback  *PlaybackController
	mapper    *Mapper
	logger    *logging.Logger

	resolved bool
}

func newNavigator(
	state *SyncState,
	presenter Presenter,
	playback *PlaybackController,
	mapper *Mapper,
	logger *logging.Logger,
) *Navigator {
	return &Navigator{
		state:     state,
		presenter: presenter,
		playback:  playback,
		mapper:    mapper,
		logger:    logger,
	}
}

// flips single-loop mode; a bounded window in flight is left alone
func (n *Navigator) ToggleSingleLoop() bool {
	n.state.SingleLoop = !n.state.SingleLoop
	n.presenter.SetLoopMode(n.state.SingleLoop)
	n.logger.Debugw("Loop mode toggled", "single_loop", n.state.SingleLoop)
	return n.state.SingleLoop
}

// OnEnded repeats the whole track in single-loop mode and otherwise moves
// on to the next lesson.
func (n *Navigator) OnEnded() {
	if n.state.SingleLoop {
		n.mapper.Clear()
		if err := n.playback.Restart(); err != nil {
			n.logger.Warnw("Failed to loop track", "error", err)
		}
		return
	}

	n.playback.Stop()
	if err := n.Next(); err != nil {
		n.logger.Warnw("Track ended without a next lesson", "error", err)
	}
}

// Resolve takes the first lookup result only. A failed lookup leaves the
// next control disabled.
func (n *Navigator) Resolve(ref lesson.Ref, err error) {
	if n.resolved {
		n.logger.Debugw("Ignoring repeated next lesson resolution", "ref", ref.String())
		return
	}
	n.resolved = true

	if err != nil {
		n.logger.Warnw("Next lesson unavailable", "error", err)
		return
	}
	next := ref
	n.state.Next = &next
	n.presenter.SetNextEnabled(true)
	n.logger.Debugw("Next lesson resolved", "ref", ref.String())
}

func (n *Navigator) Next() error {
	if n.state.Next == nil {
		return ErrNextUnavailable
	}
	n.presenter.Navigate(*n.state.Next)
	return nil
}
