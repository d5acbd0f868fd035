package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/geralddejong/galapagotchi/internal/fabric"
	"github.com/geralddejong/galapagotchi/internal/genome"
	"github.com/geralddejong/galapagotchi/internal/gotchi"
	"github.com/geralddejong/galapagotchi/internal/island"
	"github.com/geralddejong/galapagotchi/internal/softbody"
)

func testApp(t *testing.T) *App {
	t.Helper()
	isl := island.New("app", 20)
	n := len(isl.Spots)
	terrain := strings.Repeat("5", n/2)
	if n%2 == 1 {
		terrain += "4"
	}
	if err := isl.ApplyTerrain(terrain); err != nil {
		t.Fatal(err)
	}
	k, err := fabric.NewKernel(softbody.New(softbody.DefaultConfig()), 6, 30)
	if err != nil {
		t.Fatal(err)
	}
	cfg := gotchi.EvolutionConfig{
		MaxPopulation:    4,
		TickQuantum:      5,
		GenerationTicks:  100,
		MaxAgeTicks:      2000,
		SurvivorFraction: 0.5,
		Mutations:        2,
		GenomeLength:     12,
		Seed:             5,
		Gotchi:           gotchi.Config{HangingDelay: 5, RestDelay: 5, SeedCorners: 5, Altitude: 2},
	}
	a := New(isl, k, cfg)
	t.Cleanup(a.Close)
	return a
}

func claimAt(t *testing.T, a *App, c island.HexCoord) *island.Hexalot {
	t.Helper()
	a.Select(c)
	if err := a.Execute(ClaimHexalot); err != nil {
		t.Fatalf("claim %v: %v", c, err)
	}
	return a.State().HomeHexalot
}

func TestClaimMakesHome(t *testing.T) {
	a := testApp(t)
	home := claimAt(t, a, island.HexCoord{})
	if home == nil || !home.Occupied() {
		t.Fatalf("home = %v", home)
	}
	if home.Coord() != (island.HexCoord{}) {
		t.Errorf("home at %v", home.Coord())
	}
}

func TestClaimUnavailable(t *testing.T) {
	a := testApp(t)
	claimAt(t, a, island.HexCoord{})
	a.Select(island.HexCoord{Q: 2})
	if err := a.Execute(ClaimHexalot); !errors.Is(err, island.ErrNotAvailable) {
		t.Errorf("err = %v", err)
	}
	a.Island.State.Next(island.IslandState{})
	if err := a.Execute(ClaimHexalot); !errors.Is(err, ErrNoSelection) {
		t.Errorf("no selection err = %v", err)
	}
}

func TestSelectingExtendsJourney(t *testing.T) {
	a := testApp(t)
	home := claimAt(t, a, island.HexCoord{})
	away, err := a.Island.CreateHexalot(a.Island.Spot(island.HexCoord{Q: 8}))
	if err != nil {
		t.Fatal(err)
	}
	a.Select(away.Coord())
	a.Select(away.Coord())
	if got := home.Journey.Len(); got != 2 {
		t.Fatalf("journey length = %d", got)
	}
	if leg := home.FirstLeg(); leg == nil || leg.GoTo != away {
		t.Error("first leg does not lead to the selection")
	}
	if err := a.Execute(ForgetJourney); err != nil {
		t.Fatal(err)
	}
	if home.Journey.Len() != 1 {
		t.Error("journey not forgotten")
	}
}

func TestLandscaping(t *testing.T) {
	a := testApp(t)
	a.Select(island.HexCoord{Q: 3})
	if err := a.Execute(CreateWater); err != nil {
		t.Fatal(err)
	}
	if a.Island.Spot(island.HexCoord{Q: 3}).Surface != island.SurfaceWater {
		t.Error("surface not changed")
	}
	if a.State().Mode != island.ModeLandscaping {
		t.Errorf("mode = %v", a.State().Mode)
	}

	claimAt(t, a, island.HexCoord{})
	a.Select(island.HexCoord{Q: 3})
	if err := a.Execute(CreateLand); !errors.Is(err, island.ErrSpotNotFree) {
		t.Errorf("err = %v", err)
	}
}

func TestDriveAndSave(t *testing.T) {
	a := testApp(t)
	home := claimAt(t, a, island.HexCoord{})
	if err := a.Execute(SaveGenome); !errors.Is(err, ErrNoGotchi) {
		t.Errorf("save without gotchi err = %v", err)
	}
	if err := a.Execute(Drive); err != nil {
		t.Fatal(err)
	}
	if a.Gotchi() == nil || a.Kernel.Live() != 1 {
		t.Fatal("drive did not start a gotchi")
	}
	if a.State().Mode != island.ModeDrivingFree {
		t.Errorf("mode = %v", a.State().Mode)
	}
	for i := 0; i < 20; i++ {
		if err := a.Iterate(); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.Execute(Stop); err != nil {
		t.Fatal(err)
	}
	if err := a.Execute(SaveGenome); err != nil {
		t.Fatal(err)
	}
	if home.Genome != a.Gotchi().Genome() {
		t.Error("genome not saved to home")
	}
	if err := a.Execute(ReturnToSeed); err != nil {
		t.Fatal(err)
	}
	if a.Gotchi() != nil || a.Kernel.Live() != 0 {
		t.Error("return to seed kept the gotchi")
	}
}

func TestTurnRotatesHome(t *testing.T) {
	a := testApp(t)
	if err := a.Execute(TurnLeft); !errors.Is(err, ErrNoHome) {
		t.Errorf("err = %v", err)
	}
	home := claimAt(t, a, island.HexCoord{})
	a.Select(island.HexCoord{Q: 3})
	if err := a.Execute(TurnLeft); err != nil {
		t.Fatal(err)
	}
	if err := a.Execute(TurnLeft); err != nil {
		t.Fatal(err)
	}
	if err := a.Execute(TurnRight); err != nil {
		t.Fatal(err)
	}
	if home.Rotation != 1 {
		t.Errorf("rotation = %d, want 1", home.Rotation)
	}
	if a.State().SelectedSpot != home.CenterSpot {
		t.Error("turning did not reselect the home center")
	}
	if home.Journey.Len() != 1 {
		t.Error("reselecting home extended the journey")
	}
	if err := a.Execute(Drive); err != nil {
		t.Fatal(err)
	}
	if fw := a.Gotchi().Fabric().Forward(); fw.Z > -0.8 {
		t.Errorf("forward = %v, body not turned with its hexalot", fw)
	}
}

func TestComeHereAndGoThere(t *testing.T) {
	a := testApp(t)
	claimAt(t, a, island.HexCoord{})
	if err := a.Execute(ComeHere); !errors.Is(err, ErrNoGotchi) {
		t.Errorf("err = %v", err)
	}
	if err := a.Execute(Drive); err != nil {
		t.Fatal(err)
	}
	a.Select(island.HexCoord{Q: 4, R: -2})
	spot := a.State().SelectedSpot
	if err := a.Execute(ComeHere); err != nil {
		t.Fatal(err)
	}
	toward := a.Gotchi().Fabric().Direction()
	if err := a.Execute(GoThere); err != nil {
		t.Fatal(err)
	}
	away := a.Gotchi().Fabric().Direction()
	if toward == genome.Rest || away == genome.Rest || toward == away {
		t.Errorf("toward %v = %v, away = %v", spot.Coord, toward, away)
	}
}

func TestEvolveNeedsLeg(t *testing.T) {
	a := testApp(t)
	if err := a.Execute(Evolve); !errors.Is(err, ErrNoHome) {
		t.Errorf("err = %v", err)
	}
	home := claimAt(t, a, island.HexCoord{})
	if err := a.Execute(Evolve); !errors.Is(err, ErrNoJourney) {
		t.Errorf("err = %v", err)
	}
	away, err := a.Island.CreateHexalot(a.Island.Spot(island.HexCoord{Q: -8, R: 4}))
	if err != nil {
		t.Fatal(err)
	}
	a.Select(away.Coord())
	a.Select(home.Coord())

	var reports []gotchi.Report
	a.OnGeneration(func(r gotchi.Report) { reports = append(reports, r) })
	if err := a.Execute(Evolve); err != nil {
		t.Fatal(err)
	}
	if a.State().Mode != island.ModeEvolving || a.Kernel.Live() != 4 {
		t.Fatalf("mode = %v live = %d", a.State().Mode, a.Kernel.Live())
	}
	for i := 0; len(reports) == 0; i++ {
		if i > 50000 {
			t.Fatal("no generation finished")
		}
		if err := a.Iterate(); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.Execute(Detach); err != nil {
		t.Fatal(err)
	}
	if a.Evolution() != nil || a.Kernel.Live() != 0 {
		t.Error("detach left the evolution running")
	}
}

func TestUnknownCommandPanics(t *testing.T) {
	a := testApp(t)
	defer func() {
		if recover() == nil {
			t.Error("unknown command did not panic")
		}
	}()
	a.Execute(Command(99))
}

func TestParseCommand(t *testing.T) {
	for c := ClaimHexalot; c <= Stop; c++ {
		got, err := ParseCommand(c.String())
		if err != nil || got != c {
			t.Errorf("%v: got %v, %v", c, got, err)
		}
	}
	if _, err := ParseCommand("fly"); err == nil {
		t.Error("fly accepted")
	}
}
