package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	var s GenerationStats
	s.Summarize([]float64{3, 1, 2, 4})
	if s.Population != 4 || s.BestFitness != 4 || s.WorstFitness != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.MeanFitness != 2.5 {
		t.Errorf("mean = %v", s.MeanFitness)
	}
	if s.MedianFitness != 2 {
		t.Errorf("median = %v", s.MedianFitness)
	}
	if math.Abs(s.StdDevFitness-math.Sqrt(5.0/3)) > 1e-9 {
		t.Errorf("stddev = %v", s.StdDevFitness)
	}
}

func TestSummarizeDegenerate(t *testing.T) {
	var empty GenerationStats
	empty.Summarize(nil)
	if empty.Population != 0 || empty.BestFitness != 0 {
		t.Errorf("empty = %+v", empty)
	}
	var single GenerationStats
	single.Summarize([]float64{-1.5})
	if single.StdDevFitness != 0 || single.MedianFitness != -1.5 {
		t.Errorf("single = %+v", single)
	}
}

func TestWriteGenerations(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	for gen := 0; gen < 3; gen++ {
		if err := om.WriteGeneration(GenerationStats{RunID: "run", Generation: gen}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "run_id,") {
		t.Errorf("csv = %q", data)
	}
}

func TestNilOutputManager(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("om = %v, err = %v", om, err)
	}
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}
