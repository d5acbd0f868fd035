// Package island provides the hex grid of spots, the hexalots built on it,
// journeys between hexalots, and the observable island state.
// Uses axial coordinates (q, r) for the hex grid.
package island

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Add returns the coordinate offset by o.
func (h HexCoord) Add(o HexCoord) HexCoord {
	return HexCoord{Q: h.Q + o.Q, R: h.R + o.R}
}

// Scale multiplies both axial components by k.
func (h HexCoord) Scale(k int) HexCoord {
	return HexCoord{Q: h.Q * k, R: h.R * k}
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = h.Add(dir)
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	// Max of the three absolute differences in cube coordinates.
	return max(dq, dr, ds)
}

// Ring returns the coordinates at exactly radius steps from center.
// The walk starts in direction 4 and proceeds through directions 0..5,
// so the order is fixed for a given radius.
func Ring(center HexCoord, radius int) []HexCoord {
	if radius == 0 {
		return []HexCoord{center}
	}
	ring := make([]HexCoord, 0, 6*radius)
	current := center.Add(HexNeighborDirections[4].Scale(radius))
	for side := 0; side < 6; side++ {
		for step := 0; step < radius; step++ {
			ring = append(ring, current)
			current = current.Add(HexNeighborDirections[side])
		}
	}
	return ring
}

// Spiral returns center followed by rings 1..radius.
func Spiral(center HexCoord, radius int) []HexCoord {
	spiral := make([]HexCoord, 0, SpiralSize(radius))
	for k := 0; k <= radius; k++ {
		spiral = append(spiral, Ring(center, k)...)
	}
	return spiral
}

// SpiralSize is the number of hexes within radius of a center: 1 + 3r(r+1).
func SpiralSize(radius int) int {
	return 1 + 3*radius*(radius+1)
}

// Center converts axial coordinates to a position on the ground plane (y = 0).
// Axial -> cartesian: x = q + r*0.5, z = r * sqrt(3)/2, scaled by spacing.
func (h HexCoord) Center(spacing float64) r3.Vec {
	return r3.Vec{
		X: spacing * (float64(h.Q) + float64(h.R)*0.5),
		Z: spacing * float64(h.R) * math.Sqrt(3.0) / 2.0,
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
