// Package gotchi runs creatures: the lifecycle of a single gotchi bound to a
// fabric slot, and the evolution of a population of them along a journey leg.
package gotchi

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/geralddejong/galapagotchi/internal/fabric"
	"github.com/geralddejong/galapagotchi/internal/genome"
)

// ErrZeroAge is returned when distance is asked of a gotchi that never iterated.
var ErrZeroAge = errors.New("gotchi has zero age")

// State is a lifecycle stage. Stages only ever advance.
type State int

const (
	Embryo State = iota
	Hanging
	Resting
	Mature
	Frozen
)

var stateNames = [...]string{"embryo", "hanging", "resting", "mature", "frozen"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config holds the countdowns, in ticks, and the seed body shape.
type Config struct {
	HangingDelay int
	RestDelay    int
	SeedCorners  int
	Altitude     float64
}

// DefaultConfig returns the lifecycle timing used by the host.
func DefaultConfig() Config {
	return Config{
		HangingDelay: 30,
		RestDelay:    40,
		SeedCorners:  5,
		Altitude:     2,
	}
}

// Gotchi is one creature: a genome growing and walking in one fabric slot.
type Gotchi struct {
	fabric  *fabric.Fabric
	genome  *genome.Genome
	cfg     Config
	heading float64

	embryology       *genome.Embryology
	behavior         *genome.Behavior
	hangingCountdown int
	restCountdown    int
	state            State
}

// grower adapts a fabric to the embryology decoder.
type grower struct {
	*fabric.Fabric
}

func (g grower) Unfold(faceIndex, jointNumber int) int {
	return len(g.Fabric.Unfold(faceIndex, jointNumber))
}

// New seeds a body in f and starts g growing in it.
func New(f *fabric.Fabric, g *genome.Genome, cfg Config) *Gotchi {
	return NewFacing(f, g, cfg, 0)
}

// NewFacing seeds the body turned by heading radians, as a rotated hexalot does.
func NewFacing(f *fabric.Fabric, g *genome.Genome, cfg Config, heading float64) *Gotchi {
	f.CreateSeedFacing(cfg.SeedCorners, cfg.Altitude, heading)
	return attach(f, g, cfg, heading)
}

func attach(f *fabric.Fabric, g *genome.Genome, cfg Config, heading float64) *Gotchi {
	return &Gotchi{
		fabric:           f,
		genome:           g,
		cfg:              cfg,
		heading:          heading,
		embryology:       g.Embryology(grower{f}),
		behavior:         g.Behavior(f),
		hangingCountdown: cfg.HangingDelay,
		restCountdown:    cfg.RestDelay,
		state:            Embryo,
	}
}

// WithNewBody starts the same genome over in a fresh fabric slot.
func (g *Gotchi) WithNewBody(f *fabric.Fabric) *Gotchi {
	return NewFacing(f, g.genome, g.cfg, g.heading)
}

func (g *Gotchi) State() State            { return g.state }
func (g *Gotchi) Genome() *genome.Genome  { return g.genome }
func (g *Gotchi) GenomeData() genome.Data { return g.genome.Data() }
func (g *Gotchi) Fabric() *fabric.Fabric  { return g.fabric }
func (g *Gotchi) Frozen() bool            { return g.state == Frozen }
func (g *Gotchi) Mature() bool            { return g.state == Mature }
func (g *Gotchi) Growing() bool           { return g.state == Embryo }

// Age is the number of ticks the fabric has run.
func (g *Gotchi) Age() int {
	return g.fabric.Age()
}

// Midpoint is the body's center of mass.
func (g *Gotchi) Midpoint() r3.Vec {
	return g.fabric.Midpoint()
}

// Distance is the ground-plane distance of the midpoint from where the body
// was seeded.
func (g *Gotchi) Distance() (float64, error) {
	if g.fabric.Age() == 0 {
		return 0, ErrZeroAge
	}
	m := g.fabric.Midpoint()
	return math.Hypot(m.X, m.Z), nil
}

// SetDirection steers the gotchi from its next cycle on.
func (g *Gotchi) SetDirection(d genome.Direction) {
	g.fabric.SetDirection(d)
}

// Approach steers toward where, or directly away from it, by picking the
// direction whose heading on the ground is closest. Both where and the
// midpoint are relative to the seed position. Without a heading to compare
// against, or with nowhere to go, the gotchi rests.
func (g *Gotchi) Approach(where r3.Vec, toward bool) genome.Direction {
	goal := r3.Sub(where, g.fabric.Midpoint())
	goal.Y = 0
	if !toward {
		goal = r3.Scale(-1, goal)
	}
	forward, right := g.fabric.Forward(), g.fabric.Right()
	d := genome.Rest
	if r3.Norm(goal) > 1e-9 && r3.Norm(forward) > 0 {
		ahead, side := r3.Dot(goal, forward), r3.Dot(goal, right)
		switch {
		case math.Abs(ahead) >= math.Abs(side) && ahead > 0:
			d = genome.Forward
		case math.Abs(ahead) >= math.Abs(side):
			d = genome.Reverse
		case side > 0:
			d = genome.Right
		default:
			d = genome.Left
		}
	}
	g.SetDirection(d)
	return d
}

// Iterate advances the fabric by ticks and returns the residual sweep.
// Only a settle (zero residual) moves the lifecycle forward.
func (g *Gotchi) Iterate(ticks int) int {
	if g.state == Frozen {
		return 0
	}
	residual := g.fabric.Iterate(ticks, g.hangingCountdown > 0)
	if residual != 0 {
		return residual
	}
	switch g.state {
	case Embryo:
		if !g.embryology.Step() {
			g.embryology = nil
			g.state = Hanging
		}
	case Hanging:
		if g.hangingCountdown > 0 {
			g.hangingCountdown -= ticks
		}
		if g.hangingCountdown <= 0 {
			g.hangingCountdown = 0
			g.fabric.RemoveHanger()
			g.state = Resting
		}
	case Resting:
		if g.restCountdown > 0 {
			g.restCountdown -= ticks
		}
		if g.restCountdown <= 0 {
			g.behavior.Apply()
			g.fabric.TriggerAllIntervals()
			g.state = Mature
		}
	case Mature:
		g.fabric.TriggerAllIntervals()
	}
	return residual
}

// Freeze stops the gotchi; it keeps its slot until recycled.
func (g *Gotchi) Freeze() {
	g.state = Frozen
}

// Recycle freezes the gotchi and hands its slot back to the kernel.
func (g *Gotchi) Recycle(k *fabric.Kernel) {
	g.Freeze()
	k.Release(g.fabric)
}

func (g *Gotchi) String() string {
	return fmt.Sprintf("Gotchi(%s slot=%d age=%d)", g.state, g.fabric.Index(), g.fabric.Age())
}
