package island

import (
	"errors"
	"testing"
)

func TestSubjectDeliversInOrder(t *testing.T) {
	s := NewSubject(IslandState{})
	var got []string
	s.Subscribe(func(st IslandState) { got = append(got, "a:"+st.Mode.String()) })
	s.Subscribe(func(st IslandState) { got = append(got, "b:"+st.Mode.String()) })

	s.Next(IslandState{Mode: ModeLandscaping})
	want := []string{"a:landscaping", "b:landscaping"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
	if s.Value().Mode != ModeLandscaping {
		t.Errorf("value = %v", s.Value().Mode)
	}
}

func TestSubjectQueuesReentrantNext(t *testing.T) {
	s := NewSubject(IslandState{})
	var got []Mode
	s.Subscribe(func(st IslandState) {
		if st.Mode == ModeDrivingFree {
			s.Next(st.WithMode(ModeVisiting))
		}
	})
	s.Subscribe(func(st IslandState) { got = append(got, st.Mode) })

	s.Next(IslandState{Mode: ModeDrivingFree})
	if len(got) != 2 || got[0] != ModeDrivingFree || got[1] != ModeVisiting {
		t.Errorf("second subscriber saw %v", got)
	}
	if s.Value().Mode != ModeVisiting {
		t.Errorf("value = %v", s.Value().Mode)
	}
}

func TestSubjectUnsubscribe(t *testing.T) {
	s := NewSubject(IslandState{})
	calls := 0
	unsubscribe := s.Subscribe(func(IslandState) { calls++ })
	s.Next(IslandState{})
	unsubscribe()
	unsubscribe()
	s.Next(IslandState{})
	if calls != 1 {
		t.Errorf("calls = %d", calls)
	}
}

func TestStateTransitionsCopy(t *testing.T) {
	isl := landIsland(t, HexalotRadius)
	h, err := isl.CreateHexalot(isl.Spot(HexCoord{}))
	if err != nil {
		t.Fatal(err)
	}
	base := IslandState{}
	selected := base.WithSelectedSpot(isl.Spot(HexCoord{}))
	if base.SelectedSpot != nil {
		t.Error("transition mutated the original")
	}
	if selected.SelectedHexalot != h {
		t.Error("selecting a center should select its hexalot")
	}
	home := selected.WithHomeToSelected()
	if home.HomeHexalot != h || selected.HomeHexalot != nil {
		t.Error("WithHomeToSelected")
	}
	if off := home.WithSelectedSpot(isl.Spot(HexCoord{Q: 1})); off.SelectedHexalot != nil || off.HomeHexalot != h {
		t.Error("selecting a non-center spot")
	}
}

func TestJourneyLegs(t *testing.T) {
	isl := landIsland(t, 20)
	home, _ := isl.CreateHexalot(isl.Spot(HexCoord{}))
	if err := isl.ClaimHexalot(home, testGenome()); err != nil {
		t.Fatal(err)
	}
	if home.FirstLeg() != nil {
		t.Fatal("a journey of one visit has no leg")
	}
	a, err := isl.CreateHexalot(isl.Spot(HexCoord{Q: 8}))
	if err != nil {
		t.Fatal(err)
	}
	if err := home.Journey.AddVisit(a); err != nil {
		t.Fatal(err)
	}
	if err := home.Journey.AddVisit(a); !errors.Is(err, ErrRepeatVisit) {
		t.Errorf("repeat err = %v", err)
	}
	if err := home.Journey.AddVisit(home); err != nil {
		t.Fatal(err)
	}

	leg := home.FirstLeg()
	if leg.Hexalot != home || leg.GoTo != a || leg.Visited != 0 {
		t.Fatalf("first leg %+v", leg)
	}
	leg = leg.Next()
	if leg == nil || leg.Hexalot != a || leg.GoTo != home {
		t.Fatalf("second leg %+v", leg)
	}
	if leg.Next() != nil {
		t.Error("journey should end after two legs")
	}
}
