// Island authoring using layered simplex noise.
package island

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds island generation parameters.
type GenConfig struct {
	Radius   int     // Hex grid radius; must be >= HexalotRadius to hold a lot
	Seed     int64   // Random seed (0 = random)
	SeaLevel float64 // Elevation threshold for water (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:   24,
		Seed:     0,
		SeaLevel: 0.22,
	}
}

// SmallTestConfig returns an island just large enough for a few lots.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:   10,
		Seed:     42,
		SeaLevel: 0.15,
	}
}

// Generate creates an island and authors every spot as land or water.
// Land is guaranteed under the seed hexalot at the origin so a fresh island
// always has a first available center.
func Generate(name string, cfg GenConfig) *Island {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	elevNoise := opensimplex.NewNormalized(seed)

	isl := New(name, cfg.Radius)
	for _, s := range isl.Spots {
		// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
		x := float64(s.Coord.Q) + float64(s.Coord.R)*0.5
		y := float64(s.Coord.R) * math.Sqrt(3.0) / 2.0

		elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)

		// Island shaping: sink the edges into the sea.
		distFromCenter := math.Sqrt(x*x+y*y) / float64(cfg.Radius)
		edgeFalloff := 1.0 - math.Pow(distFromCenter, 3.5)
		if edgeFalloff < 0 {
			edgeFalloff = 0
		}
		elev *= edgeFalloff

		switch {
		case Distance(HexCoord{}, s.Coord) <= HexalotRadius:
			s.Surface = SurfaceLand
		case elev < cfg.SeaLevel:
			s.Surface = SurfaceWater
		default:
			s.Surface = SurfaceLand
		}
	}
	isl.refreshStructure()
	return isl
}

// octaveNoise samples multi-octave simplex noise, normalized to 0..1.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxAmp := 0.0
	freq := frequency
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*freq, y*freq) * amplitude
		maxAmp += amplitude
		amplitude *= persistence
		freq *= 2
	}
	return total / maxAmp
}
