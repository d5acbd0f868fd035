package island

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/geralddejong/galapagotchi/internal/genome"
)

var (
	ErrNotAvailable      = errors.New("spot is not an available hexalot center")
	ErrSpotNotFree       = errors.New("spot belongs to an occupied hexalot")
	ErrNonceExhausted    = errors.New("hexalot fingerprint nonce exhausted")
	ErrAlreadyOccupied   = errors.New("hexalot already occupied")
	ErrIncompleteHexalot = errors.New("hexalot neighbourhood incomplete")
	ErrIslandNotFound    = errors.New("island not found")
	ErrDuplicateID       = errors.New("hexalot id already taken")
)

// SpotSpacing is the distance between neighbouring spot centers.
const SpotSpacing = 1.0

// Island owns every spot and hexalot of one named hex grid.
type Island struct {
	Name     string
	Radius   int
	Spots    []*Spot    // fixed enumeration order: spiral outward from the origin
	Hexalots []*Hexalot // creation order
	Policy   CenterPolicy
	State    *Subject

	spotIndex    map[HexCoord]*Spot
	hexalotIndex map[string]*Hexalot
	available    []*Spot
	storage      Storage
}

// New creates an island of unauthored spots within radius of the origin.
// A hex grid of radius R contains hexes where max(|q|, |r|, |s|) <= R.
func New(name string, radius int) *Island {
	isl := &Island{
		Name:         name,
		Radius:       radius,
		Policy:       Bordering,
		State:        NewSubject(IslandState{Mode: ModeVisiting}),
		spotIndex:    make(map[HexCoord]*Spot),
		hexalotIndex: make(map[string]*Hexalot),
	}
	for _, c := range Spiral(HexCoord{}, radius) {
		s := &Spot{Coord: c, Center: c.Center(SpotSpacing), island: isl}
		isl.Spots = append(isl.Spots, s)
		isl.spotIndex[c] = s
	}
	isl.refreshStructure()
	return isl
}

// SetStorage attaches the collaborator used for genome, journey and terrain writes.
func (isl *Island) SetStorage(store Storage) {
	isl.storage = store
}

// Persistent reports whether a storage collaborator is attached.
func (isl *Island) Persistent() bool {
	return isl.storage != nil
}

// SetPolicy swaps the center legality rule and recomputes availability.
func (isl *Island) SetPolicy(policy CenterPolicy) {
	isl.Policy = policy
	isl.refreshStructure()
}

// Spot returns the spot at c, or nil if it is off the island.
func (isl *Island) Spot(c HexCoord) *Spot {
	return isl.spotIndex[c]
}

// Hexalot looks up a hexalot by id.
func (isl *Island) Hexalot(id string) *Hexalot {
	return isl.hexalotIndex[id]
}

// HexalotAt returns the hexalot centered on c, if any.
func (isl *Island) HexalotAt(c HexCoord) *Hexalot {
	if s := isl.Spot(c); s != nil {
		return s.CenterOfHexalot
	}
	return nil
}

// Occupied returns the claimed hexalots in creation order.
func (isl *Island) Occupied() []*Hexalot {
	var occupied []*Hexalot
	for _, h := range isl.Hexalots {
		if h.Occupied() {
			occupied = append(occupied, h)
		}
	}
	return occupied
}

// AvailableCenters returns the spots where a hexalot may be created now.
func (isl *Island) AvailableCenters() []*Spot {
	out := make([]*Spot, len(isl.available))
	copy(out, isl.available)
	return out
}

// CreateHexalot allocates a hexalot centered on spot if the spot is available.
func (isl *Island) CreateHexalot(spot *Spot) (*Hexalot, error) {
	if spot == nil || !spot.Available {
		return nil, ErrNotAvailable
	}
	h, err := isl.addHexalot(spot)
	if err != nil {
		return nil, err
	}
	isl.refreshStructure()
	slog.Debug("hexalot created", "id", h.ID, "q", h.Coord().Q, "r", h.Coord().R)
	return h, nil
}

// addHexalot builds and registers a hexalot without consulting the policy.
func (isl *Island) addHexalot(center *Spot) (*Hexalot, error) {
	h, err := isl.buildHexalot(center)
	if err != nil {
		return nil, err
	}
	if err := isl.assignID(h); err != nil {
		return nil, err
	}
	isl.Hexalots = append(isl.Hexalots, h)
	return h, nil
}

// restoreHexalot registers a hexalot under a previously assigned nonce.
func (isl *Island) restoreHexalot(center *Spot, nonce int) (*Hexalot, error) {
	if nonce < 0 || nonce > MaxNonce {
		return nil, fmt.Errorf("%w: nonce %d", ErrNonceExhausted, nonce)
	}
	h, err := isl.buildHexalot(center)
	if err != nil {
		return nil, err
	}
	id := withNonce(h.Fingerprint(), nonce)
	if _, taken := isl.hexalotIndex[id]; taken {
		return nil, fmt.Errorf("%w: %s at %d,%d", ErrDuplicateID, id, center.Coord.Q, center.Coord.R)
	}
	h.ID, h.Nonce = id, nonce
	isl.hexalotIndex[id] = h
	isl.Hexalots = append(isl.Hexalots, h)
	return h, nil
}

func (isl *Island) buildHexalot(center *Spot) (*Hexalot, error) {
	h := &Hexalot{CenterSpot: center, island: isl}
	for i, c := range Spiral(center.Coord, HexalotRadius) {
		s := isl.Spot(c)
		if s == nil || s.Surface == SurfaceUnknown {
			return nil, fmt.Errorf("%w at %d,%d", ErrIncompleteHexalot, center.Coord.Q, center.Coord.R)
		}
		h.Spots[i] = s
	}
	return h, nil
}

// assignID gives h the first free id derived from its fingerprint.
func (isl *Island) assignID(h *Hexalot) error {
	base := h.Fingerprint()
	for nonce := 0; nonce <= MaxNonce; nonce++ {
		id := withNonce(base, nonce)
		if other, taken := isl.hexalotIndex[id]; taken && other != h {
			continue
		}
		if isl.hexalotIndex[h.ID] == h {
			delete(isl.hexalotIndex, h.ID)
		}
		h.ID, h.Nonce = id, nonce
		isl.hexalotIndex[id] = h
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNonceExhausted, base)
}

// RemoveFreeHexalots drops every hexalot without a genome.
func (isl *Island) RemoveFreeHexalots() int {
	kept := isl.Hexalots[:0]
	removed := 0
	for _, h := range isl.Hexalots {
		if h.Occupied() {
			kept = append(kept, h)
			continue
		}
		delete(isl.hexalotIndex, h.ID)
		removed++
	}
	for i := len(kept); i < len(isl.Hexalots); i++ {
		isl.Hexalots[i] = nil
	}
	isl.Hexalots = kept
	isl.refreshStructure()
	return removed
}

// SetSurface re-authors a free spot and refreshes the ids of the lots over it.
// If any id cannot be reassigned the surface and every id are restored.
func (isl *Island) SetSurface(spot *Spot, surface Surface) error {
	if !spot.Free() {
		return ErrSpotNotFree
	}
	if spot.Surface == surface {
		return nil
	}
	type assigned struct {
		id    string
		nonce int
	}
	members := append([]*Hexalot(nil), spot.MemberOf...)
	prior := make([]assigned, len(members))
	for i, h := range members {
		prior[i] = assigned{h.ID, h.Nonce}
	}
	previous := spot.Surface
	spot.Surface = surface
	for _, h := range members {
		if err := h.RefreshFingerprint(); err != nil {
			spot.Surface = previous
			for _, m := range members {
				if isl.hexalotIndex[m.ID] == m {
					delete(isl.hexalotIndex, m.ID)
				}
			}
			for i, m := range members {
				m.ID, m.Nonce = prior[i].id, prior[i].nonce
				isl.hexalotIndex[m.ID] = m
			}
			isl.refreshStructure()
			return fmt.Errorf("refresh %s: %w", h.ID, err)
		}
	}
	isl.refreshStructure()
	return nil
}

// ClaimHexalot attaches a genome, starts the lot's journey and persists the genome.
func (isl *Island) ClaimHexalot(h *Hexalot, g *genome.Genome) error {
	if h.Occupied() {
		return ErrAlreadyOccupied
	}
	if isl.storage != nil {
		if err := isl.storage.SetGenome(h.ID, g.Data()); err != nil {
			return fmt.Errorf("claim %s: %w", h.ID, err)
		}
	}
	h.Genome = g
	if h.Journey == nil {
		h.Journey = NewJourney(h)
	}
	isl.refreshStructure()
	slog.Info("hexalot claimed", "id", h.ID, "occupied", len(isl.Occupied()))
	return nil
}

// SaveGenome replaces an occupied hexalot's genome, storage first.
func (isl *Island) SaveGenome(h *Hexalot, g *genome.Genome) error {
	if isl.storage != nil {
		if err := isl.storage.SetGenome(h.ID, g.Data()); err != nil {
			return fmt.Errorf("save genome %s: %w", h.ID, err)
		}
	}
	h.Genome = g
	return nil
}

// refreshStructure recomputes membership and availability from scratch.
func (isl *Island) refreshStructure() {
	for _, s := range isl.Spots {
		s.CenterOfHexalot = nil
		s.MemberOf = s.MemberOf[:0]
		s.Available = false
	}
	for _, h := range isl.Hexalots {
		h.CenterSpot.CenterOfHexalot = h
		for _, s := range h.Spots {
			s.MemberOf = append(s.MemberOf, h)
		}
	}
	isl.available = isl.available[:0]
	policy := isl.Policy
	if policy == nil {
		policy = Bordering
	}
	for _, s := range isl.Spots {
		if s.CenterOfHexalot != nil || !isl.complete(s) {
			continue
		}
		if !policy(isl, s) {
			continue
		}
		s.Available = true
		isl.available = append(isl.available, s)
	}
}

// complete reports whether the 127-spot neighbourhood of s is on the island and authored.
func (isl *Island) complete(s *Spot) bool {
	if Distance(HexCoord{}, s.Coord) > isl.Radius-HexalotRadius {
		return false
	}
	for _, c := range Spiral(s.Coord, HexalotRadius) {
		n := isl.Spot(c)
		if n == nil || n.Surface == SurfaceUnknown {
			return false
		}
	}
	return true
}

// String returns a summary of the island.
func (isl *Island) String() string {
	return fmt.Sprintf("Island(%s radius=%d spots=%d hexalots=%d available=%d)",
		isl.Name, isl.Radius, len(isl.Spots), len(isl.Hexalots), len(isl.available))
}
