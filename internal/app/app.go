package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/geralddejong/galapagotchi/internal/fabric"
	"github.com/geralddejong/galapagotchi/internal/genome"
	"github.com/geralddejong/galapagotchi/internal/gotchi"
	"github.com/geralddejong/galapagotchi/internal/island"
)

var (
	ErrNoSelection = errors.New("no spot selected")
	ErrNoHome      = errors.New("no home hexalot")
	ErrNoGenome    = errors.New("home hexalot has no genome")
	ErrNoGotchi    = errors.New("no gotchi running")
	ErrNoJourney   = errors.New("home journey has no leg")
)

// App owns the running gotchi or evolution and executes commands.
type App struct {
	Island *island.Island
	Kernel *fabric.Kernel
	cfg    gotchi.EvolutionConfig
	rng    *rand.Rand

	gotchi      *gotchi.Gotchi
	evolution   *gotchi.Evolution
	observers   []func(gotchi.Report)
	unsubscribe func()
}

// New wires an app to an island and subscribes to its state.
func New(isl *island.Island, k *fabric.Kernel, cfg gotchi.EvolutionConfig) *App {
	a := &App{
		Island: isl,
		Kernel: k,
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(uint64(cfg.Seed), 1)),
	}
	a.unsubscribe = isl.State.Subscribe(a.onState)
	return a
}

// Close detaches from the island and frees every kernel slot the app holds.
func (a *App) Close() {
	a.halt()
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// OnGeneration registers an observer for every evolution the app starts.
func (a *App) OnGeneration(fn func(gotchi.Report)) {
	a.observers = append(a.observers, fn)
}

func (a *App) Gotchi() *gotchi.Gotchi       { return a.gotchi }
func (a *App) Evolution() *gotchi.Evolution { return a.evolution }
func (a *App) State() island.IslandState    { return a.Island.State.Value() }

// Select publishes a new selection.
func (a *App) Select(c island.HexCoord) {
	a.Island.State.Next(a.State().WithSelectedSpot(a.Island.Spot(c)))
}

// onState extends the home journey with every other hexalot that gets
// selected. Without a home, selecting a free hexalot makes it home.
func (a *App) onState(st island.IslandState) {
	home := st.HomeHexalot
	selected := st.SelectedHexalot
	if home == nil {
		if selected != nil && !selected.Occupied() {
			a.Island.State.Next(st.WithHomeToSelected())
		}
		return
	}
	if selected == nil || selected == home || !home.Occupied() {
		return
	}
	if home.Journey == nil {
		home.Journey = island.NewJourney(home)
	}
	if err := home.Journey.AddVisit(selected); err != nil {
		return
	}
	if err := a.Island.SaveJourney(home); err != nil {
		slog.Error("journey not saved", "home", home.ID, "error", err)
		return
	}
	slog.Info("journey extended", "home", home.ID, "visit", selected.ID, "visits", home.Journey.Len())
}

// Execute runs one command. Unknown commands panic.
func (a *App) Execute(cmd Command) error {
	st := a.State()
	spot := st.SelectedSpot
	home := st.HomeHexalot

	switch cmd {
	case ClaimHexalot:
		if spot == nil {
			return ErrNoSelection
		}
		return a.claim(spot)

	case CreateLand, CreateWater:
		if spot == nil {
			return ErrNoSelection
		}
		surface := island.SurfaceLand
		if cmd == CreateWater {
			surface = island.SurfaceWater
		}
		if err := a.Island.SetSurface(spot, surface); err != nil {
			return err
		}
		a.Island.State.Next(st.WithMode(island.ModeLandscaping).WithSelectedSpot(spot))
		return a.save()

	case RandomGenome:
		if home == nil {
			return ErrNoHome
		}
		if !home.Occupied() {
			return ErrNoGenome
		}
		home.Genome = genome.Fresh(a.rng, a.cfg.GenomeLength)
		return nil

	case SaveGenome:
		if home == nil {
			return ErrNoHome
		}
		if a.gotchi == nil {
			return ErrNoGotchi
		}
		return a.Island.SaveGenome(home, a.gotchi.Genome())

	case Drive:
		if home == nil {
			return ErrNoHome
		}
		return a.drive(home)

	case Evolve:
		if home == nil {
			return ErrNoHome
		}
		return a.evolve(home)

	case ForgetJourney:
		if home == nil {
			return ErrNoHome
		}
		return a.Island.ForgetJourney(home)

	case Detach:
		a.halt()
		a.Island.State.Next(st.WithMode(island.ModeVisiting).WithHomeToSelected())
		return nil

	case ReturnToSeed:
		a.halt()
		a.Island.State.Next(st.WithMode(island.ModeVisiting))
		return nil

	case TurnLeft, TurnRight:
		if home == nil {
			return ErrNoHome
		}
		home.Rotate(cmd == TurnLeft)
		slog.Info("hexalot turned", "id", home.ID, "rotation", home.Rotation)
		a.Island.State.Next(st.WithSelectedSpot(home.CenterSpot))
		return a.save()

	// The selected spot stands in for the viewer: come toward it, or go
	// away from it.
	case ComeHere, GoThere:
		if a.gotchi == nil {
			return ErrNoGotchi
		}
		if spot == nil {
			return ErrNoSelection
		}
		if home == nil {
			return ErrNoHome
		}
		where := r3.Sub(spot.Center, home.Center())
		d := a.gotchi.Approach(where, cmd == ComeHere)
		slog.Debug("approach", "spot", spot.Coord, "direction", d)
		return nil

	case Stop:
		if a.gotchi != nil {
			a.gotchi.SetDirection(genome.Rest)
		}
		return nil

	default:
		panic(fmt.Sprintf("app: unknown command %v", cmd))
	}
}

func (a *App) claim(spot *island.Spot) error {
	removed := a.Island.RemoveFreeHexalots()
	if !spot.Available {
		return island.ErrNotAvailable
	}
	h, err := a.Island.CreateHexalot(spot)
	if err != nil {
		return err
	}
	if err := a.Island.ClaimHexalot(h, genome.Fresh(a.rng, a.cfg.GenomeLength)); err != nil {
		return err
	}
	slog.Info("claimed", "hexalot", h.ID, "removed_free", removed)
	a.Island.State.Next(a.State().WithSelectedSpot(spot).WithHomeToSelected())
	return a.save()
}

func (a *App) save() error {
	if !a.Island.Persistent() {
		return nil
	}
	return a.Island.Save()
}

func (a *App) drive(home *island.Hexalot) error {
	if !home.Occupied() {
		return ErrNoGenome
	}
	a.halt()
	f, err := a.Kernel.Allocate()
	if err != nil {
		return err
	}
	a.gotchi = gotchi.NewFacing(f, home.Genome, a.cfg.Gotchi, home.Heading())
	a.gotchi.SetDirection(genome.Forward)
	mode := island.ModeDrivingFree
	if home.FirstLeg() != nil {
		mode = island.ModeDrivingJourney
	}
	a.Island.State.Next(a.State().WithMode(mode))
	return nil
}

func (a *App) evolve(home *island.Hexalot) error {
	leg := home.FirstLeg()
	if leg == nil {
		return ErrNoJourney
	}
	a.halt()
	e, err := gotchi.NewEvolution(a.Kernel, a.Island, leg, a.cfg)
	if err != nil {
		return err
	}
	for _, fn := range a.observers {
		e.OnGeneration(fn)
	}
	a.evolution = e
	a.Island.State.Next(a.State().WithMode(island.ModeEvolving))
	return nil
}

// halt frees the driven gotchi and disposes the evolution.
func (a *App) halt() {
	if a.gotchi != nil {
		a.gotchi.Recycle(a.Kernel)
		a.gotchi = nil
	}
	if a.evolution != nil {
		a.evolution.Dispose()
		a.evolution = nil
	}
}

// Iterate advances whatever is running by one tick quantum.
func (a *App) Iterate() error {
	if a.gotchi != nil {
		a.gotchi.Iterate(a.cfg.TickQuantum)
	}
	if a.evolution != nil {
		return a.evolution.Iterate()
	}
	return nil
}
