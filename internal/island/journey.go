package island

import "errors"

// ErrRepeatVisit is returned when a visit would repeat the journey's last hexalot.
var ErrRepeatVisit = errors.New("consecutive journey visits must differ")

// Journey is an ordered itinerary of hexalots starting at its home.
// It only ever grows at the tail.
type Journey struct {
	visits []*Hexalot
}

// NewJourney starts a journey at home.
func NewJourney(home *Hexalot) *Journey {
	return &Journey{visits: []*Hexalot{home}}
}

// Visits returns a copy of the itinerary.
func (j *Journey) Visits() []*Hexalot {
	return append([]*Hexalot(nil), j.visits...)
}

// Len returns the number of visits including home.
func (j *Journey) Len() int {
	return len(j.visits)
}

// AddVisit appends h unless it equals the current tail.
func (j *Journey) AddVisit(h *Hexalot) error {
	if n := len(j.visits); n > 0 && j.visits[n-1] == h {
		return ErrRepeatVisit
	}
	j.visits = append(j.visits, h)
	return nil
}

// IDs returns the visit ids in order, the persisted form.
func (j *Journey) IDs() []string {
	ids := make([]string, len(j.visits))
	for i, h := range j.visits {
		ids[i] = h.ID
	}
	return ids
}

// FirstLeg returns the leg out of the first visit, or nil when there is
// nowhere to go yet.
func (j *Journey) FirstLeg() *Leg {
	return j.leg(0)
}

func (j *Journey) leg(visited int) *Leg {
	if visited+1 >= len(j.visits) {
		return nil
	}
	return &Leg{
		Journey: j,
		Visited: visited,
		Hexalot: j.visits[visited],
		GoTo:    j.visits[visited+1],
	}
}

// Leg is one hop of a journey, from Hexalot to GoTo.
type Leg struct {
	Journey *Journey
	Visited int
	Hexalot *Hexalot
	GoTo    *Hexalot
}

// Next returns the following leg, or nil at the end of the journey.
func (l *Leg) Next() *Leg {
	return l.Journey.leg(l.Visited + 1)
}
