package gotchi

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/geralddejong/galapagotchi/internal/fabric"
	"github.com/geralddejong/galapagotchi/internal/genome"
	"github.com/geralddejong/galapagotchi/internal/softbody"
)

func testKernel(t *testing.T, instances int) *fabric.Kernel {
	t.Helper()
	k, err := fabric.NewKernel(softbody.New(softbody.DefaultConfig()), instances, 30)
	if err != nil {
		t.Fatalf("NewKernel: %v", err)
	}
	return k
}

func testGenome(seed uint64, length int) *genome.Genome {
	return genome.Fresh(rand.New(rand.NewPCG(seed, 0)), length)
}

func testConfig() Config {
	return Config{HangingDelay: 10, RestDelay: 10, SeedCorners: 5, Altitude: 2}
}

func newTestGotchi(t *testing.T, k *fabric.Kernel) *Gotchi {
	t.Helper()
	f, err := k.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	return New(f, testGenome(1, 16), testConfig())
}

func TestDistanceRequiresAge(t *testing.T) {
	g := newTestGotchi(t, testKernel(t, 1))
	if _, err := g.Distance(); !errors.Is(err, ErrZeroAge) {
		t.Fatalf("Distance err = %v, want ErrZeroAge", err)
	}
	g.Iterate(5)
	d, err := g.Distance()
	if err != nil {
		t.Fatalf("Distance after iterate: %v", err)
	}
	if d < 0 {
		t.Errorf("distance = %v", d)
	}
}

func TestHangingWithZeroCountdownRestsOnSettle(t *testing.T) {
	g := newTestGotchi(t, testKernel(t, 1))
	g.state = Hanging
	g.hangingCountdown = 0

	if r := g.Iterate(5); r != 0 {
		t.Fatalf("residual = %d, want settle", r)
	}
	if g.State() != Resting {
		t.Errorf("state = %v, want resting", g.State())
	}
}

func TestOnlySettleAdvances(t *testing.T) {
	g := newTestGotchi(t, testKernel(t, 1))
	g.state = Hanging
	g.hangingCountdown = 0
	g.fabric.TriggerAllIntervals()

	if r := g.Iterate(5); r == 0 {
		t.Fatal("triggered intervals settled immediately")
	}
	if g.State() != Hanging {
		t.Errorf("state = %v moved without a settle", g.State())
	}
	for g.Iterate(5) != 0 {
	}
	if g.State() != Resting {
		t.Errorf("state = %v after settle", g.State())
	}
}

func TestLifecycleReachesMaturity(t *testing.T) {
	k := testKernel(t, 1)
	g := newTestGotchi(t, k)
	joints := g.fabric.JointCount()

	last := g.State()
	for i := 0; i < 2000 && !g.Mature(); i++ {
		g.Iterate(5)
		if g.State() < last {
			t.Fatalf("state went back from %v to %v", last, g.State())
		}
		last = g.State()
	}
	if !g.Mature() {
		t.Fatalf("never matured, stuck in %v", g.State())
	}
	if g.fabric.JointCount() <= joints {
		t.Error("embryology grew nothing")
	}

	// Mature gotchis re-trigger on every settle.
	for g.Iterate(5) != 0 {
	}
	if r := g.Iterate(5); r == 0 {
		t.Error("mature gotchi did not re-trigger its intervals")
	}
}

func TestFrozenStopsIterating(t *testing.T) {
	k := testKernel(t, 1)
	g := newTestGotchi(t, k)
	g.Iterate(5)
	age := g.Age()
	g.Freeze()
	if r := g.Iterate(5); r != 0 {
		t.Errorf("frozen residual = %d", r)
	}
	if g.Age() != age {
		t.Error("frozen gotchi aged")
	}
}

func TestRecycleReleasesSlot(t *testing.T) {
	k := testKernel(t, 1)
	g := newTestGotchi(t, k)
	g.Recycle(k)
	if !g.Frozen() || k.Live() != 0 {
		t.Fatalf("frozen=%v live=%d", g.Frozen(), k.Live())
	}
	f, err := k.Allocate()
	if err != nil {
		t.Fatalf("slot not returned: %v", err)
	}
	clone := g.WithNewBody(f)
	if !clone.Genome().Equal(g.Genome()) || clone.State() != Embryo {
		t.Error("clone should restart the same genome")
	}
}

func TestApproachPicksClosestDirection(t *testing.T) {
	g := newTestGotchi(t, testKernel(t, 1))
	cases := []struct {
		where  r3.Vec
		toward bool
		want   genome.Direction
	}{
		{r3.Vec{X: 10}, true, genome.Forward},
		{r3.Vec{X: 10}, false, genome.Reverse},
		{r3.Vec{X: 2, Z: 10}, true, genome.Right},
		{r3.Vec{X: -2, Z: -10}, true, genome.Left},
		{r3.Vec{X: -2, Z: -10}, false, genome.Right},
		{g.Midpoint(), true, genome.Rest},
	}
	for _, c := range cases {
		if got := g.Approach(c.where, c.toward); got != c.want {
			t.Errorf("Approach(%v, %v) = %v, want %v", c.where, c.toward, got, c.want)
		}
		if d := g.Fabric().Direction(); d != c.want {
			t.Errorf("fabric direction = %v, want %v", d, c.want)
		}
	}
}

func TestFacingTurnsTheSeed(t *testing.T) {
	k := testKernel(t, 2)
	f, err := k.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	g := NewFacing(f, testGenome(1, 16), testConfig(), math.Pi/2)
	if fw := g.Fabric().Forward(); fw.Z > -0.99 {
		t.Fatalf("forward = %v, want -Z", fw)
	}
	if got := g.Approach(r3.Vec{Z: -10}, true); got != genome.Forward {
		t.Errorf("Approach = %v, want Forward", got)
	}
	f2, err := k.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	if fw := g.WithNewBody(f2).Fabric().Forward(); fw.Z > -0.99 {
		t.Errorf("new body forward = %v, heading lost", fw)
	}
}
