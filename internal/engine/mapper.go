package engine

import "github.com/mgpai22/lesson/internal/caption"

// Mapper maps clock values to the active segment and drives highlighting.
type Mapper struct {
	state     *SyncState
	presenter Presenter

	// segment currently shown as active; it can differ from
	// state.ActiveIndex after Reset until the next change
	lit int
}

func newMapper(state *SyncState, presenter Presenter) *Mapper {
	return &Mapper{
		state:     state,
		presenter: presenter,
		lit:       caption.NoSegment,
	}
}

// OnClockTick resolves the segment containing t and reports whether the
// active index changed. Times outside every segment keep the previous one.
func (m *Mapper) OnClockTick(t float64) bool {
	if m.state.Index == nil {
		return false
	}
	idx := m.state.Index.Find(t)
	if idx == caption.NoSegment || idx == m.state.ActiveIndex {
		return false
	}
	m.highlight(idx)
	return true
}

// forgets the active index so the next tick re-resolves it; the current
// highlight stays until then
func (m *Mapper) Reset() {
	m.state.ActiveIndex = caption.NoSegment
}

// removes the highlight and forgets the active index
func (m *Mapper) Clear() {
	m.highlight(caption.NoSegment)
}

func (m *Mapper) highlight(idx int) {
	if m.lit != caption.NoSegment {
		m.presenter.Deactivate(m.lit)
	}
	if idx != caption.NoSegment {
		m.presenter.Activate(idx)
		m.presenter.ScrollIntoView(idx)
	}
	m.lit = idx
	m.state.ActiveIndex = idx
}
