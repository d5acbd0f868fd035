package island

import "fmt"

// Mode is what the host is currently doing on the island.
type Mode int

const (
	ModeVisiting Mode = iota
	ModeLandscaping
	ModeDrivingFree
	ModeDrivingJourney
	ModeEvolving
)

var modeNames = [...]string{"visiting", "landscaping", "driving-free", "driving-journey", "evolving"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// IslandState is an immutable snapshot of mode and selection.
// Transitions return a modified copy; a published value is never changed.
type IslandState struct {
	Mode            Mode
	SelectedSpot    *Spot
	SelectedHexalot *Hexalot
	HomeHexalot     *Hexalot
}

// WithMode returns a copy in the given mode.
func (s IslandState) WithMode(mode Mode) IslandState {
	s.Mode = mode
	return s
}

// WithSelectedSpot selects a spot and whatever hexalot is centered on it.
func (s IslandState) WithSelectedSpot(spot *Spot) IslandState {
	s.SelectedSpot = spot
	s.SelectedHexalot = nil
	if spot != nil {
		s.SelectedHexalot = spot.CenterOfHexalot
	}
	return s
}

// WithHomeToSelected makes the selected hexalot home.
func (s IslandState) WithHomeToSelected() IslandState {
	s.HomeHexalot = s.SelectedHexalot
	return s
}

// WithHome sets the home hexalot directly.
func (s IslandState) WithHome(h *Hexalot) IslandState {
	s.HomeHexalot = h
	return s
}

// Subject is an observer registry for IslandState values.
// Delivery is synchronous and in subscription order. A Next issued from
// inside a subscriber is queued and delivered after the current round.
type Subject struct {
	value       IslandState
	subscribers []*subscription
	nextID      int
	delivering  bool
	pending     []IslandState
}

type subscription struct {
	id int
	fn func(IslandState)
}

// NewSubject creates a registry holding an initial value.
func NewSubject(initial IslandState) *Subject {
	return &Subject{value: initial}
}

// Value returns the latest published state.
func (s *Subject) Value() IslandState {
	return s.value
}

// Subscribe registers fn and returns a function that removes it.
func (s *Subject) Subscribe(fn func(IslandState)) (unsubscribe func()) {
	s.nextID++
	sub := &subscription{id: s.nextID, fn: fn}
	s.subscribers = append(s.subscribers, sub)
	return func() {
		for i, other := range s.subscribers {
			if other == sub {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Next publishes a new state to every subscriber.
func (s *Subject) Next(state IslandState) {
	s.pending = append(s.pending, state)
	if s.delivering {
		return
	}
	s.delivering = true
	defer func() { s.delivering = false }()
	for len(s.pending) > 0 {
		state := s.pending[0]
		s.pending = s.pending[1:]
		s.value = state
		// Snapshot so unsubscribing during delivery does not skip anyone.
		subscribers := append([]*subscription(nil), s.subscribers...)
		for _, sub := range subscribers {
			sub.fn(state)
		}
	}
}
