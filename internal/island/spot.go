package island

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Surface is the terrain classification of a spot.
type Surface uint8

const (
	SurfaceUnknown Surface = iota // not yet authored
	SurfaceLand
	SurfaceWater
)

var surfaceNames = [...]string{"unknown", "land", "water"}

func (s Surface) String() string {
	if int(s) < len(surfaceNames) {
		return surfaceNames[s]
	}
	return fmt.Sprintf("surface(%d)", s)
}

// Spot is one cell of the island's hex grid.
type Spot struct {
	Coord   HexCoord `json:"coord"`
	Surface Surface  `json:"surface"`
	Center  r3.Vec   `json:"-"` // cached ground-plane position

	// Derived on every structural refresh of the island.
	CenterOfHexalot *Hexalot   `json:"-"`
	MemberOf        []*Hexalot `json:"-"`
	Available       bool       `json:"-"`

	island            *Island
	adjacent          []*Spot
	adjacentRetrieved bool
}

// AdjacentSpots returns the neighbouring spots that exist on the island.
// Edge spots have fewer than six.
func (s *Spot) AdjacentSpots() []*Spot {
	if s.adjacentRetrieved {
		return s.adjacent
	}
	s.adjacent = s.adjacent[:0]
	for _, c := range s.Coord.Neighbors() {
		if n := s.island.Spot(c); n != nil {
			s.adjacent = append(s.adjacent, n)
		}
	}
	s.adjacentRetrieved = true
	return s.adjacent
}

// Free reports whether the spot lies outside every occupied hexalot.
// Only free spots may be re-authored.
func (s *Spot) Free() bool {
	for _, h := range s.MemberOf {
		if h.Occupied() {
			return false
		}
	}
	return true
}

// IsLand reports whether the spot is authored as land.
func (s *Spot) IsLand() bool {
	return s.Surface == SurfaceLand
}

func (s *Spot) String() string {
	return fmt.Sprintf("Spot(%d,%d %s)", s.Coord.Q, s.Coord.R, s.Surface)
}
