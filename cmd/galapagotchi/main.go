// Command galapagotchi runs a headless island: it loads or generates the
// terrain, claims a home hexalot and evolves gotchis along its journey.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/geralddejong/galapagotchi/internal/app"
	"github.com/geralddejong/galapagotchi/internal/config"
	"github.com/geralddejong/galapagotchi/internal/engine"
	"github.com/geralddejong/galapagotchi/internal/fabric"
	"github.com/geralddejong/galapagotchi/internal/gotchi"
	"github.com/geralddejong/galapagotchi/internal/island"
	"github.com/geralddejong/galapagotchi/internal/persistence"
	"github.com/geralddejong/galapagotchi/internal/softbody"
	"github.com/geralddejong/galapagotchi/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Directory for generations.csv and a config snapshot")
	generations := flag.Int("generations", -1, "Stop after N generations (-1 = use config, 0 = until stopped)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *generations >= 0 {
		cfg.Evolution.Generations = *generations
	}

	// ── Database ──────────────────────────────────────────────────────
	if err := ensureDataDir(cfg.Storage.Path); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.Storage.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Storage.Path)

	// ── Island (load, or generate and save) ──────────────────────────
	isl, err := island.Load(db, cfg.Island.Name)
	switch {
	case errors.Is(err, island.ErrIslandNotFound):
		slog.Info("no saved island found, generating...", "name", cfg.Island.Name)
		isl = island.Generate(cfg.Island.Name, island.GenConfig{
			Radius:   cfg.Island.Radius,
			Seed:     cfg.Island.Seed,
			SeaLevel: cfg.Island.SeaLevel,
		})
		isl.SetStorage(db)
		if err := isl.Save(); err != nil {
			slog.Error("initial save failed", "error", err)
			os.Exit(1)
		}
	case err != nil:
		slog.Error("failed to load island", "error", err)
		os.Exit(1)
	}
	isl.SetPolicy(island.PolicyByName(cfg.Island.Policy))
	slog.Info("island ready",
		"spots", humanize.Comma(int64(len(isl.Spots))),
		"hexalots", len(isl.Hexalots),
		"occupied", len(isl.Occupied()),
		"available", len(isl.AvailableCenters()),
	)

	// ── Kernel ────────────────────────────────────────────────────────
	exports := softbody.New(softbody.Config{
		TriggerTicks: cfg.Kernel.TriggerTicks,
		MuscleStates: cfg.Kernel.MuscleStates,
		StrideScale:  cfg.Kernel.StrideScale,
	})
	kernel, err := fabric.NewKernel(exports, cfg.Kernel.InstanceMax, cfg.Kernel.JointCountMax)
	if err != nil {
		slog.Error("failed to create kernel", "error", err)
		os.Exit(1)
	}

	host := app.New(isl, kernel, evolutionConfig(cfg))
	defer host.Close()

	// ── Telemetry ─────────────────────────────────────────────────────
	out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("config snapshot failed", "error", err)
	}

	eng := engine.NewEngine()
	eng.Interval = cfg.Derived.Interval
	eng.Speed = cfg.Engine.Speed
	eng.ReportEvery = uint64(cfg.Engine.ReportEvery)

	finished := 0
	host.OnGeneration(func(r gotchi.Report) {
		if err := out.WriteGeneration(r.Stats); err != nil {
			slog.Error("csv write failed", "error", err)
		}
		if err := db.SaveGeneration(r.Stats); err != nil {
			slog.Error("run record failed", "error", err)
		}
		finished++
		if cfg.Evolution.Generations > 0 && finished >= cfg.Evolution.Generations {
			eng.Stop()
		}
	})

	if err := startEvolution(host); err != nil {
		slog.Error("cannot evolve", "error", err)
		os.Exit(1)
	}
	run := host.Evolution()
	if err := db.SaveMeta("last_run", run.RunID().String()); err != nil {
		slog.Warn("meta save failed", "error", err)
	}

	eng.OnTick = func(uint64) error { return host.Iterate() }
	eng.OnReport = func(tick uint64) {
		_, best := run.Best()
		slog.Info("status",
			"tick", humanize.Comma(int64(tick)),
			"generation", run.Generation(),
			"live", kernel.Live(),
			"best", humanize.FormatFloat("#.###", best),
		)
	}

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	home := host.State().HomeHexalot
	fmt.Printf("\n%s: evolving from %s toward %s with %d gotchis.\n",
		isl.Name, home.ID, run.Leg().GoTo.ID, len(run.Evolvers()))
	fmt.Println("Starting evolution... (Ctrl+C to stop)")

	if err := eng.Run(); err != nil {
		slog.Error("engine failed", "error", err)
	}

	host.Close()
	if err := isl.Save(); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Printf("Stopped after %d generations. Island saved.\n", finished)
}

// ensureDataDir creates the directory that will hold the database file.
func ensureDataDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func evolutionConfig(cfg *config.Config) gotchi.EvolutionConfig {
	return gotchi.EvolutionConfig{
		MaxPopulation:    cfg.Evolution.MaxPopulation,
		TickQuantum:      cfg.Evolution.TickQuantum,
		GenerationTicks:  cfg.Evolution.GenerationTicks,
		MaxAgeTicks:      cfg.Evolution.MaxAgeTicks,
		SurvivorFraction: cfg.Evolution.SurvivorFraction,
		Mutations:        cfg.Genome.Mutations,
		GenomeLength:     cfg.Genome.Length,
		Seed:             cfg.Evolution.Seed,
		Gotchi: gotchi.Config{
			HangingDelay: cfg.Gotchi.HangingDelay,
			RestDelay:    cfg.Gotchi.RestDelay,
			SeedCorners:  cfg.Gotchi.SeedCorners,
			Altitude:     cfg.Gotchi.Altitude,
		},
	}
}

// startEvolution picks a home (the first occupied hexalot, or a fresh claim),
// gives its journey a first leg if it has none, and starts evolving.
func startEvolution(host *app.App) error {
	isl := host.Island
	var home *island.Hexalot
	if occupied := isl.Occupied(); len(occupied) > 0 {
		home = occupied[0]
		host.Island.State.Next(host.State().WithSelectedSpot(home.CenterSpot).WithHome(home))
	} else {
		avail := isl.AvailableCenters()
		if len(avail) == 0 {
			return island.ErrNotAvailable
		}
		host.Select(avail[0].Coord)
		if err := host.Execute(app.ClaimHexalot); err != nil {
			return fmt.Errorf("claim: %w", err)
		}
		home = host.State().HomeHexalot
	}

	if home.FirstLeg() == nil {
		target := isl.AvailableCenters()
		if len(target) == 0 {
			return errors.New("no hexalot to travel to")
		}
		goTo, err := isl.CreateHexalot(target[len(target)-1])
		if err != nil {
			return err
		}
		host.Select(goTo.Coord())
		host.Select(home.Coord())
		if err := isl.Save(); err != nil {
			return err
		}
	}
	return host.Execute(app.Evolve)
}
