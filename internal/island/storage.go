package island

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/geralddejong/galapagotchi/internal/genome"
)

// Storage is the persistence collaborator. Genomes and journeys are keyed by
// hexalot id, terrain by island name. Lookups of absent records return nil
// without error.
type Storage interface {
	GetGenome(hexalotID string) (*genome.Data, error)
	SetGenome(hexalotID string, data genome.Data) error
	LoadJourney(hexalotID string) ([]string, error)
	SaveJourney(hexalotID string, visits []string) error
	LoadIsland(name string) (*Data, error)
	SaveIsland(data Data) error
}

// Data is the persisted form of an island.
type Data struct {
	Name     string        `json:"name"`
	Radius   int           `json:"radius"`
	Terrain  string        `json:"terrain"`
	Hexalots []HexalotData `json:"hexalots"` // creation order
}

// HexalotData places one hexalot. The nonce is kept because it depends on
// which colliding lots existed when the id was assigned.
type HexalotData struct {
	Center   HexCoord `json:"center"`
	Nonce    int      `json:"nonce"`
	Rotation int      `json:"rotation,omitempty"`
}

// Data snapshots the island for storage.
func (isl *Island) Data() Data {
	lots := make([]HexalotData, len(isl.Hexalots))
	for i, h := range isl.Hexalots {
		lots[i] = HexalotData{Center: h.Coord(), Nonce: h.Nonce, Rotation: h.Rotation}
	}
	return Data{
		Name:     isl.Name,
		Radius:   isl.Radius,
		Terrain:  isl.TerrainString(),
		Hexalots: lots,
	}
}

// Save writes the terrain and hexalot layout.
func (isl *Island) Save() error {
	if isl.storage == nil {
		return errors.New("island has no storage")
	}
	if err := isl.storage.SaveIsland(isl.Data()); err != nil {
		return fmt.Errorf("save island %s: %w", isl.Name, err)
	}
	return nil
}

// FromData rebuilds an island from its persisted form. Each hexalot gets
// its saved nonce back rather than the first free one, so ids match what
// was saved even after lots were removed or re-authored.
func FromData(data Data) (*Island, error) {
	isl := New(data.Name, data.Radius)
	if err := isl.ApplyTerrain(data.Terrain); err != nil {
		return nil, fmt.Errorf("island %s: %w", data.Name, err)
	}
	for _, lot := range data.Hexalots {
		c := lot.Center
		center := isl.Spot(c)
		if center == nil {
			return nil, fmt.Errorf("island %s: hexalot center %d,%d off island", data.Name, c.Q, c.R)
		}
		h, err := isl.restoreHexalot(center, lot.Nonce)
		if err != nil {
			return nil, fmt.Errorf("island %s: %w", data.Name, err)
		}
		h.Rotation = ((lot.Rotation % 6) + 6) % 6
	}
	isl.refreshStructure()
	return isl, nil
}

// Load reads an island and attaches the genomes and journeys stored for its hexalots.
func Load(store Storage, name string) (*Island, error) {
	data, err := store.LoadIsland(name)
	if err != nil {
		return nil, fmt.Errorf("load island %s: %w", name, err)
	}
	if data == nil {
		return nil, ErrIslandNotFound
	}
	isl, err := FromData(*data)
	if err != nil {
		return nil, err
	}
	isl.storage = store
	for _, h := range isl.Hexalots {
		gd, err := store.GetGenome(h.ID)
		if err != nil {
			return nil, fmt.Errorf("load genome %s: %w", h.ID, err)
		}
		if gd != nil {
			h.Genome = genome.FromData(*gd)
		}
	}
	for _, h := range isl.Hexalots {
		if err := isl.LoadJourney(h); err != nil {
			return nil, err
		}
	}
	isl.refreshStructure()
	slog.Info("island loaded", "name", name, "hexalots", len(isl.Hexalots), "occupied", len(isl.Occupied()))
	return isl, nil
}

// LoadJourney resolves the stored visit ids of h through the island.
// Unknown ids are dropped, as are visits that would repeat their predecessor.
func (isl *Island) LoadJourney(h *Hexalot) error {
	if isl.storage == nil {
		return nil
	}
	ids, err := isl.storage.LoadJourney(h.ID)
	if err != nil {
		return fmt.Errorf("load journey %s: %w", h.ID, err)
	}
	if ids == nil {
		if h.Occupied() && h.Journey == nil {
			h.Journey = NewJourney(h)
		}
		return nil
	}
	j := &Journey{}
	for _, id := range ids {
		visit := isl.Hexalot(id)
		if visit == nil {
			slog.Warn("journey visit dropped", "home", h.ID, "visit", id)
			continue
		}
		_ = j.AddVisit(visit) // repeats collapse when an unknown id sat between them
	}
	if j.Len() == 0 || j.visits[0] != h {
		j.visits = append([]*Hexalot{h}, j.visits...)
		if len(j.visits) > 1 && j.visits[1] == h {
			j.visits = j.visits[1:]
		}
	}
	h.Journey = j
	return nil
}

// SaveJourney persists the visit ids of h's journey.
func (isl *Island) SaveJourney(h *Hexalot) error {
	if isl.storage == nil || h.Journey == nil {
		return nil
	}
	if err := isl.storage.SaveJourney(h.ID, h.Journey.IDs()); err != nil {
		return fmt.Errorf("save journey %s: %w", h.ID, err)
	}
	return nil
}

// ForgetJourney resets h's journey to just its home and persists that.
func (isl *Island) ForgetJourney(h *Hexalot) error {
	h.Journey = NewJourney(h)
	return isl.SaveJourney(h)
}
