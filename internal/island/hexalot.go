package island

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/geralddejong/galapagotchi/internal/genome"
)

// HexalotRadius is the number of rings around a hexalot's center spot.
const HexalotRadius = 6

// HexalotSpotCount is the fixed size of every hexalot: 1 + 3*6*7.
const HexalotSpotCount = 1 + 3*HexalotRadius*(HexalotRadius+1)

// Hexalot is an ownable cluster of spots identified by its terrain fingerprint.
type Hexalot struct {
	ID         string
	Nonce      int
	Rotation   int // sixths of a turn to the left, 0..5
	CenterSpot *Spot
	Spots      [HexalotSpotCount]*Spot // center first, then rings 1..6

	Genome  *genome.Genome // nil until claimed
	Journey *Journey

	island *Island
}

// Coord returns the center spot's coordinate.
func (h *Hexalot) Coord() HexCoord {
	return h.CenterSpot.Coord
}

// Center returns the ground-plane position of the center spot.
func (h *Hexalot) Center() r3.Vec {
	return h.CenterSpot.Center
}

// Rotate turns the orientation of bodies seeded here by a sixth of a turn.
func (h *Hexalot) Rotate(left bool) {
	step := 1
	if !left {
		step = 5
	}
	h.Rotation = (h.Rotation + step) % 6
}

// Heading is the rotation in radians, counterclockwise seen from above.
func (h *Hexalot) Heading() float64 {
	return float64(h.Rotation) * math.Pi / 3
}

// Occupied reports whether a genome has been attached.
func (h *Hexalot) Occupied() bool {
	return h.Genome != nil
}

// Contains reports whether c falls within this hexalot's rings.
func (h *Hexalot) Contains(c HexCoord) bool {
	return Distance(h.Coord(), c) <= HexalotRadius
}

// Surfaces returns the surface of every spot in traversal order.
func (h *Hexalot) Surfaces() [HexalotSpotCount]Surface {
	var surfaces [HexalotSpotCount]Surface
	for i, s := range h.Spots {
		surfaces[i] = s.Surface
	}
	return surfaces
}

// Fingerprint is the id before nonce disambiguation.
func (h *Hexalot) Fingerprint() string {
	return Fingerprint(h.Surfaces())
}

// RefreshFingerprint recomputes the id from the current terrain,
// disambiguating against the other hexalots on the island.
func (h *Hexalot) RefreshFingerprint() error {
	return h.island.assignID(h)
}

// FirstLeg starts walking this hexalot's journey, or nil if it has none.
func (h *Hexalot) FirstLeg() *Leg {
	if h.Journey == nil {
		return nil
	}
	return h.Journey.FirstLeg()
}

func (h *Hexalot) String() string {
	return fmt.Sprintf("Hexalot(%s @%d,%d occupied=%v)", h.ID, h.Coord().Q, h.Coord().R, h.Occupied())
}
