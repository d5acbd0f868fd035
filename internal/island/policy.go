package island

// CenterPolicy decides whether a structurally complete spot may become a new
// hexalot center. It is consulted after the spot has passed the shape checks.
type CenterPolicy func(isl *Island, candidate *Spot) bool

// FreeForAll approves every structurally valid spot.
func FreeForAll(*Island, *Spot) bool {
	return true
}

// BorderingReach is the largest center distance at which a new lot still
// borders an occupied one.
const BorderingReach = 2*HexalotRadius + 1

// Bordering approves any spot while nothing is occupied (the seed lot).
// After that the candidate must lie outside every occupied hexalot and within
// BorderingReach of at least one occupied center.
func Bordering(isl *Island, candidate *Spot) bool {
	occupied := isl.Occupied()
	if len(occupied) == 0 {
		return true
	}
	near := false
	for _, h := range occupied {
		d := Distance(h.Coord(), candidate.Coord)
		if d <= HexalotRadius {
			return false
		}
		if d <= BorderingReach {
			near = true
		}
	}
	return near
}

// PolicyByName resolves a configured policy name. Unknown names fall back to Bordering.
func PolicyByName(name string) CenterPolicy {
	switch name {
	case "free-for-all":
		return FreeForAll
	default:
		return Bordering
	}
}
