package genome

import (
	"encoding/json"
	"math/rand/v2"
	"testing"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestMutationIsNonDestructive(t *testing.T) {
	original := Fresh(testRNG(1), 40)
	before := original.Data()

	const n = 7
	mutated := original.WithMutatedBehavior(testRNG(2), n)

	after := original.Data()
	for d := range before.Genes {
		for i := range before.Genes[d] {
			if before.Genes[d][i] != after.Genes[d][i] {
				t.Fatalf("original changed at %v[%d]", Direction(d), i)
			}
		}
	}

	changed := 0
	md := mutated.Data()
	for d := range before.Genes {
		for i := range before.Genes[d] {
			if before.Genes[d][i] != md.Genes[d][i] {
				changed++
			}
		}
	}
	if changed == 0 || changed > n {
		t.Errorf("changed positions = %d, want 1..%d", changed, n)
	}
}

func TestMutationDeterministic(t *testing.T) {
	g := Fresh(testRNG(3), 20)
	a := g.WithMutatedBehavior(testRNG(9), 5)
	b := g.WithMutatedBehavior(testRNG(9), 5)
	if !a.Equal(b) {
		t.Error("same seed produced different mutations")
	}
}

func TestMutationClampsToByteRange(t *testing.T) {
	var d Data
	for i := range d.Genes {
		d.Genes[i] = []uint8{0, 255}
	}
	g := FromData(d)
	for seed := uint64(0); seed < 50; seed++ {
		m := g.WithMutatedBehavior(testRNG(seed), 10)
		for _, seq := range m.Data().Genes {
			if len(seq) != 2 {
				t.Fatalf("sequence length changed: %d", len(seq))
			}
		}
	}
}

func TestFromDataCopies(t *testing.T) {
	var d Data
	d.Genes[Forward] = []uint8{1, 2, 3}
	g := FromData(d)
	d.Genes[Forward][0] = 99
	if g.Reader(Forward).Next() != 1 {
		t.Error("genome shares storage with its source data")
	}
	out := g.Data()
	out.Genes[Forward][1] = 99
	r := g.Reader(Forward)
	r.Next()
	if r.Next() != 2 {
		t.Error("genome shares storage with its exported data")
	}
}

func TestGeneReaderNeutralWhenExhausted(t *testing.T) {
	var d Data
	d.Genes[Left] = []uint8{7}
	r := FromData(d).Reader(Left)
	if v := r.Next(); v != 7 {
		t.Fatalf("first value = %d", v)
	}
	if !r.Exhausted() || r.Remaining() != 0 {
		t.Fatal("reader should be exhausted")
	}
	for i := 0; i < 3; i++ {
		if v := r.Next(); v != Neutral {
			t.Errorf("exhausted read = %d, want %d", v, Neutral)
		}
	}
}

func TestDataJSON(t *testing.T) {
	g := Fresh(testRNG(4), 12)
	raw, err := json.Marshal(g.Data())
	if err != nil {
		t.Fatal(err)
	}
	var back Data
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if !FromData(back).Equal(g) {
		t.Error("genome changed through JSON")
	}
}

type fakeGrower struct {
	faces    int
	capacity int
	unfolds  [][2]int
}

func (f *fakeGrower) FaceCount() int { return f.faces }

func (f *fakeGrower) Unfold(face, joint int) int {
	if len(f.unfolds) >= f.capacity {
		return 0
	}
	f.unfolds = append(f.unfolds, [2]int{face, joint})
	f.faces += 2
	return 3
}

func TestEmbryologyStopsWhenGenesRunOut(t *testing.T) {
	var d Data
	d.Genes[Rest] = []uint8{5, 1, 9, 2}
	body := &fakeGrower{faces: 4, capacity: 100}
	e := FromData(d).Embryology(body)

	if !e.Step() {
		t.Fatal("first step should leave more to do")
	}
	if e.Step() {
		t.Fatal("second step consumed the last genes")
	}
	if e.Step() {
		t.Fatal("embryology restarted after completion")
	}
	if len(body.unfolds) != 2 {
		t.Fatalf("unfolds = %d, want 2", len(body.unfolds))
	}
	if body.unfolds[0] != [2]int{5 % 4, 1 % 3} {
		t.Errorf("first unfold = %v", body.unfolds[0])
	}
	if body.unfolds[1] != [2]int{9 % 6, 2 % 3} {
		t.Errorf("second unfold = %v", body.unfolds[1])
	}
}

func TestEmbryologyStopsAtCapacity(t *testing.T) {
	g := Fresh(testRNG(5), 100)
	body := &fakeGrower{faces: 8, capacity: 3}
	e := g.Embryology(body)
	steps := 0
	for e.Step() {
		steps++
		if steps > 100 {
			t.Fatal("embryology never ended")
		}
	}
	if len(body.unfolds) != 3 {
		t.Errorf("unfolds = %d, want 3", len(body.unfolds))
	}
}

type fakeActuator struct {
	first, end int
	set        map[[2]int][2]uint8
}

func (f *fakeActuator) IntervalRange() (int, int) { return f.first, f.end }

func (f *fakeActuator) SetIntervalHighLow(interval int, d Direction, high, low uint8) {
	f.set[[2]int{interval, int(d)}] = [2]uint8{high, low}
}

func TestBehaviorApply(t *testing.T) {
	var d Data
	d.Genes[Forward] = []uint8{200, 10, 30}
	body := &fakeActuator{first: 1, end: 3, set: make(map[[2]int][2]uint8)}
	FromData(d).Behavior(body).Apply()

	if got := body.set[[2]int{1, int(Forward)}]; got != [2]uint8{200, 10} {
		t.Errorf("interval 1 forward = %v", got)
	}
	if got := body.set[[2]int{2, int(Forward)}]; got != [2]uint8{30, Neutral} {
		t.Errorf("interval 2 forward = %v", got)
	}
	if _, ok := body.set[[2]int{0, int(Forward)}]; ok {
		t.Error("reserved interval actuated")
	}
	if _, ok := body.set[[2]int{1, int(Rest)}]; ok {
		t.Error("rest direction actuated")
	}
	if len(body.set) != 2*4 {
		t.Errorf("settings = %d, want 8", len(body.set))
	}
}
