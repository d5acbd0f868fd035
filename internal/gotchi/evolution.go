package gotchi

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/geralddejong/galapagotchi/internal/fabric"
	"github.com/geralddejong/galapagotchi/internal/genome"
	"github.com/geralddejong/galapagotchi/internal/island"
	"github.com/geralddejong/galapagotchi/internal/telemetry"
)

var (
	ErrDisposed = errors.New("evolution disposed")
	ErrNoLeg    = errors.New("evolution needs a leg to travel")
)

// EvolutionConfig tunes the generational loop.
type EvolutionConfig struct {
	MaxPopulation    int
	TickQuantum      int // ticks per Iterate for every live evolver
	GenerationTicks  int // ticks after maturity before an evolver freezes
	MaxAgeTicks      int // an evolver that never matures freezes at this age
	SurvivorFraction float64
	Mutations        int
	GenomeLength     int // length of a fresh genome when the hexalot has none
	Seed             int64
	Gotchi           Config
}

// DefaultEvolutionConfig returns the tuning used by the host.
func DefaultEvolutionConfig() EvolutionConfig {
	return EvolutionConfig{
		MaxPopulation:    16,
		TickQuantum:      5,
		GenerationTicks:  2000,
		MaxAgeTicks:      20000,
		SurvivorFraction: 0.25,
		Mutations:        8,
		GenomeLength:     256,
		Seed:             1,
		Gotchi:           DefaultConfig(),
	}
}

// GenomeSaver persists a hexalot's best genome; the island implements it.
type GenomeSaver interface {
	SaveGenome(h *island.Hexalot, g *genome.Genome) error
}

// Evolver is one member of the population with its lineage.
type Evolver struct {
	ID        uuid.UUID
	ParentID  uuid.UUID // uuid.Nil in the first generation
	Index     int
	Gotchi    *Gotchi
	Fitness   float64
	Proximity []float64 // distance to the target at every mature settle
	Stored    bool      // unmutated copy of the hexalot's saved genome
	maturedAt int
}

// Score is an evolver's result at a generation boundary.
type Score struct {
	ID      uuid.UUID
	Index   int
	Fitness float64
}

// Report is delivered to generation observers at every boundary.
type Report struct {
	RunID   uuid.UUID
	Stats   telemetry.GenerationStats
	Ranking []Score
}

// Evolution races a population of gotchis from a hexalot along one leg.
type Evolution struct {
	kernel  *fabric.Kernel
	saver   GenomeSaver
	hexalot *island.Hexalot
	leg     *island.Leg
	cfg     EvolutionConfig
	rng     *rand.Rand
	runID   uuid.UUID
	target  r3.Vec
	stored  *genome.Genome

	population  int
	generation  int
	evolvers    []*Evolver
	best        *genome.Genome
	bestFitness float64
	observers   []func(Report)
	disposed    bool
}

// NewEvolution spawns the first generation from the hexalot's genome, or a
// fresh one when the hexalot has none. A saved genome also races unmutated,
// so it is only replaced by a child that beats it.
func NewEvolution(k *fabric.Kernel, saver GenomeSaver, leg *island.Leg, cfg EvolutionConfig) (*Evolution, error) {
	if leg == nil {
		return nil, ErrNoLeg
	}
	population := min(cfg.MaxPopulation, k.Free())
	if population <= 0 {
		return nil, fabric.ErrSlotExhausted
	}
	target := r3.Sub(leg.GoTo.Center(), leg.Hexalot.Center())
	target.Y = 0
	e := &Evolution{
		kernel:      k,
		saver:       saver,
		hexalot:     leg.Hexalot,
		leg:         leg,
		cfg:         cfg,
		rng:         rand.New(rand.NewPCG(uint64(cfg.Seed), 0)),
		runID:       RunID(leg, cfg.Seed),
		target:      target,
		stored:      leg.Hexalot.Genome,
		population:  population,
		bestFitness: math.Inf(-1),
	}
	seed := leg.Hexalot.Genome
	if seed == nil {
		seed = genome.Fresh(e.rng, cfg.GenomeLength)
	}
	seeds := []*genome.Genome{seed}
	if err := e.spawn(seeds, []uuid.UUID{uuid.Nil}); err != nil {
		e.Dispose()
		return nil, err
	}
	slog.Info("evolution started",
		"run", e.runID,
		"hexalot", e.hexalot.ID,
		"goto", leg.GoTo.ID,
		"population", population,
		"target", humanize.FormatFloat("#.##", r3.Norm(target)))
	return e, nil
}

// RunID derives a stable run id from the leg and seed.
func RunID(leg *island.Leg, seed int64) uuid.UUID {
	name := fmt.Sprintf("%s/%d/%s/%d", leg.Hexalot.ID, leg.Visited, leg.GoTo.ID, seed)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

func (e *Evolution) evolverID(generation, index int) uuid.UUID {
	return uuid.NewSHA1(e.runID, []byte(fmt.Sprintf("%d/%d", generation, index)))
}

// spawn fills the population with mutated clones of seeds, round robin.
// The first slot of generation zero holds the stored genome itself.
func (e *Evolution) spawn(seeds []*genome.Genome, parents []uuid.UUID) error {
	e.evolvers = make([]*Evolver, 0, e.population)
	for i := 0; i < e.population; i++ {
		f, err := e.kernel.Allocate()
		if err != nil {
			return fmt.Errorf("spawn evolver %d: %w", i, err)
		}
		stored := i == 0 && e.generation == 0 && e.stored != nil
		child := e.stored
		if !stored {
			child = seeds[i%len(seeds)].WithMutatedBehavior(e.rng, e.cfg.Mutations)
		}
		g := NewFacing(f, child, e.cfg.Gotchi, e.hexalot.Heading())
		g.SetDirection(genome.Forward)
		e.evolvers = append(e.evolvers, &Evolver{
			ID:        e.evolverID(e.generation, i),
			ParentID:  parents[i%len(parents)],
			Index:     i,
			Gotchi:    g,
			Stored:    stored,
			maturedAt: -1,
		})
	}
	return nil
}

// OnGeneration registers an observer for generation reports.
func (e *Evolution) OnGeneration(fn func(Report)) {
	e.observers = append(e.observers, fn)
}

func (e *Evolution) RunID() uuid.UUID                { return e.runID }
func (e *Evolution) Generation() int                 { return e.generation }
func (e *Evolution) Hexalot() *island.Hexalot        { return e.hexalot }
func (e *Evolution) Leg() *island.Leg                { return e.leg }
func (e *Evolution) Evolvers() []*Evolver            { return e.evolvers }
func (e *Evolution) Disposed() bool                  { return e.disposed }
func (e *Evolution) Best() (*genome.Genome, float64) { return e.best, e.bestFitness }

// Fitness scores a midpoint by how much closer it is to the target than the start.
func (e *Evolution) Fitness(midpoint r3.Vec) float64 {
	ground := r3.Vec{X: midpoint.X, Z: midpoint.Z}
	return r3.Norm(e.target) - r3.Norm(r3.Sub(e.target, ground))
}

// Iterate advances every live evolver by one tick quantum and crosses the
// generation boundary once all of them are frozen.
func (e *Evolution) Iterate() error {
	if e.disposed {
		return ErrDisposed
	}
	allFrozen := true
	for _, ev := range e.evolvers {
		g := ev.Gotchi
		if g.Frozen() {
			continue
		}
		residual := g.Iterate(e.cfg.TickQuantum)
		age := g.Age()
		ev.Fitness = e.Fitness(g.Midpoint())
		switch {
		case g.Mature():
			if ev.maturedAt < 0 {
				ev.maturedAt = age
			}
			if residual == 0 {
				ev.Proximity = append(ev.Proximity, r3.Norm(e.target)-ev.Fitness)
			}
			if age-ev.maturedAt >= e.cfg.GenerationTicks {
				g.Freeze()
			}
		case age >= e.cfg.MaxAgeTicks:
			g.Freeze()
		}
		if !g.Frozen() {
			allFrozen = false
		}
	}
	if allFrozen {
		return e.nextGeneration()
	}
	return nil
}

// Ranking orders the population by fitness, best first; ties keep index order.
func (e *Evolution) Ranking() []*Evolver {
	ranked := append([]*Evolver(nil), e.evolvers...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

func (e *Evolution) nextGeneration() error {
	ranked := e.Ranking()
	if len(ranked) == 0 {
		return fmt.Errorf("generation %d: empty population: %w", e.generation, fabric.ErrSlotExhausted)
	}
	stats := telemetry.GenerationStats{
		RunID:      e.runID.String(),
		Hexalot:    e.hexalot.ID,
		Generation: e.generation,
	}
	fitness := make([]float64, len(ranked))
	scores := make([]Score, len(ranked))
	for i, ev := range ranked {
		fitness[i] = ev.Fitness
		scores[i] = Score{ID: ev.ID, Index: ev.Index, Fitness: ev.Fitness}
		if ev.maturedAt >= 0 {
			stats.Matured++
		}
	}
	stats.Summarize(fitness)

	champion := ranked[0]
	if champion.Fitness > e.bestFitness {
		// the stored genome winning only sets the baseline
		if !champion.Stored {
			if err := e.saver.SaveGenome(e.hexalot, champion.Gotchi.Genome()); err != nil {
				return fmt.Errorf("generation %d: %w", e.generation, err)
			}
			stats.Improved = true
		}
		e.best = champion.Gotchi.Genome()
		e.bestFitness = champion.Fitness
	}
	stats.RecordFitness = e.bestFitness

	survivors := max(1, int(math.Ceil(float64(len(ranked))*e.cfg.SurvivorFraction)))
	seeds := make([]*genome.Genome, survivors)
	parents := make([]uuid.UUID, survivors)
	for i := range seeds {
		seeds[i] = ranked[i].Gotchi.Genome()
		parents[i] = ranked[i].ID
	}
	e.release()
	e.generation++
	if err := e.spawn(seeds, parents); err != nil {
		return err
	}

	slog.Info("generation report", "run", e.runID, "stats", stats)
	report := Report{RunID: e.runID, Stats: stats, Ranking: scores}
	for _, fn := range e.observers {
		fn(report)
	}
	return nil
}

// Midpoint is the centroid of the population.
func (e *Evolution) Midpoint() r3.Vec {
	var sum r3.Vec
	if len(e.evolvers) == 0 {
		return sum
	}
	for _, ev := range e.evolvers {
		sum = r3.Add(sum, ev.Gotchi.Midpoint())
	}
	return r3.Scale(1/float64(len(e.evolvers)), sum)
}

func (e *Evolution) release() {
	for _, ev := range e.evolvers {
		ev.Gotchi.Recycle(e.kernel)
	}
	e.evolvers = nil
}

// Dispose releases every slot of the population. The evolution cannot be
// iterated afterwards.
func (e *Evolution) Dispose() {
	if e.disposed {
		return
	}
	e.release()
	e.disposed = true
	slog.Info("evolution disposed", "run", e.runID, "generations", e.generation)
}
