// Package telemetry summarises evolution generations and writes them out as CSV.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats is one row of generations.csv.
type GenerationStats struct {
	RunID      string `csv:"run_id"`
	Hexalot    string `csv:"hexalot"`
	Generation int    `csv:"generation"`
	Population int    `csv:"population"`
	Matured    int    `csv:"matured"`

	BestFitness   float64 `csv:"best_fitness"`
	MeanFitness   float64 `csv:"mean_fitness"`
	StdDevFitness float64 `csv:"stddev_fitness"`
	MedianFitness float64 `csv:"median_fitness"`
	WorstFitness  float64 `csv:"worst_fitness"`

	// Best fitness ever persisted, and whether this generation raised it.
	RecordFitness float64 `csv:"record_fitness"`
	Improved      bool    `csv:"improved"`
}

// Summarize fills the fitness distribution fields from one generation's scores.
// An empty generation leaves them zero.
func (s *GenerationStats) Summarize(fitness []float64) {
	s.Population = len(fitness)
	if len(fitness) == 0 {
		return
	}
	sorted := append([]float64(nil), fitness...)
	sort.Float64s(sorted)
	s.BestFitness = floats.Max(sorted)
	s.WorstFitness = floats.Min(sorted)
	s.MeanFitness, s.StdDevFitness = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		s.StdDevFitness = 0
	}
	s.MedianFitness = stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// LogValue lets a stats row be passed straight to slog.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Int("matured", s.Matured),
		slog.Float64("best", s.BestFitness),
		slog.Float64("mean", s.MeanFitness),
		slog.Float64("stddev", s.StdDevFitness),
		slog.Float64("record", s.RecordFitness),
		slog.Bool("improved", s.Improved),
	)
}
