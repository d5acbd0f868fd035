// Package config provides configuration loading and access for the host.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all host configuration parameters.
type Config struct {
	Island    IslandConfig    `yaml:"island"`
	Kernel    KernelConfig    `yaml:"kernel"`
	Gotchi    GotchiConfig    `yaml:"gotchi"`
	Genome    GenomeConfig    `yaml:"genome"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Storage   StorageConfig   `yaml:"storage"`
	Engine    EngineConfig    `yaml:"engine"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// IslandConfig drives island generation and the center legality rule.
type IslandConfig struct {
	Name     string  `yaml:"name"`
	Radius   int     `yaml:"radius"`
	Seed     int64   `yaml:"seed"`      // 0 = random
	SeaLevel float64 `yaml:"sea_level"` // elevation below which spots are water
	Policy   string  `yaml:"policy"`    // "bordering" or "free-for-all"
}

// KernelConfig sizes the simulation kernel.
type KernelConfig struct {
	InstanceMax   int     `yaml:"instance_max"`
	JointCountMax int     `yaml:"joint_count_max"`
	TriggerTicks  int     `yaml:"trigger_ticks"`
	MuscleStates  int     `yaml:"muscle_states"`
	StrideScale   float64 `yaml:"stride_scale"`
}

// GotchiConfig holds lifecycle countdowns in ticks and the seed body shape.
type GotchiConfig struct {
	HangingDelay int     `yaml:"hanging_delay"`
	RestDelay    int     `yaml:"rest_delay"`
	SeedCorners  int     `yaml:"seed_corners"`
	Altitude     float64 `yaml:"altitude"`
}

// GenomeConfig sizes fresh genomes and mutation strength.
type GenomeConfig struct {
	Length    int `yaml:"length"`
	Mutations int `yaml:"mutations"`
}

// EvolutionConfig tunes the generational loop.
type EvolutionConfig struct {
	MaxPopulation    int     `yaml:"max_population"`
	TickQuantum      int     `yaml:"tick_quantum"`
	GenerationTicks  int     `yaml:"generation_ticks"` // ticks after maturity before freezing
	MaxAgeTicks      int     `yaml:"max_age_ticks"`    // freeze immature evolvers at this age
	SurvivorFraction float64 `yaml:"survivor_fraction"`
	Seed             int64   `yaml:"seed"`
	Generations      int     `yaml:"generations"` // headless run length, 0 = until stopped
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// EngineConfig paces the host tick loop.
type EngineConfig struct {
	IntervalMS  int     `yaml:"interval_ms"`
	Speed       float64 `yaml:"speed"`
	ReportEvery int     `yaml:"report_every"` // ticks between status reports
}

// TelemetryConfig controls CSV output.
type TelemetryConfig struct {
	OutputDir string `yaml:"output_dir"` // empty disables output
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	Population int           // min(max_population, instance_max)
	Interval   time.Duration // engine tick interval
}

var global *Config

// Init loads configuration into the global instance.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Island.Radius < 6:
		return fmt.Errorf("island.radius %d cannot hold a hexalot", c.Island.Radius)
	case c.Kernel.InstanceMax <= 0:
		return fmt.Errorf("kernel.instance_max must be positive")
	case c.Kernel.JointCountMax <= 0:
		return fmt.Errorf("kernel.joint_count_max must be positive")
	case c.Evolution.TickQuantum <= 0:
		return fmt.Errorf("evolution.tick_quantum must be positive")
	case c.Evolution.SurvivorFraction <= 0 || c.Evolution.SurvivorFraction > 1:
		return fmt.Errorf("evolution.survivor_fraction %v out of (0,1]", c.Evolution.SurvivorFraction)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Population = min(c.Evolution.MaxPopulation, c.Kernel.InstanceMax)
	c.Derived.Interval = time.Duration(c.Engine.IntervalMS) * time.Millisecond
}

// WriteYAML writes the configuration to a file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
