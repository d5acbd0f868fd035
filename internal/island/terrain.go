package island

import (
	"fmt"
	"strings"
)

const hexDigits = "0123456789abcdef"

// TerrainString encodes every spot's surface in enumeration order, two bits
// per spot and two spots per hex digit (first spot in the high bits).
// An odd trailing spot is padded with Unknown.
func (isl *Island) TerrainString() string {
	var b strings.Builder
	b.Grow(terrainLength(len(isl.Spots)))
	for i := 0; i < len(isl.Spots); i += 2 {
		high := isl.Spots[i].Surface
		low := SurfaceUnknown
		if i+1 < len(isl.Spots) {
			low = isl.Spots[i+1].Surface
		}
		b.WriteByte(hexDigits[byte(high)<<2|byte(low)])
	}
	return b.String()
}

// ApplyTerrain replays a terrain string into the spot surfaces and re-derives
// every hexalot id. The string must match this island's spot count.
func (isl *Island) ApplyTerrain(terrain string) error {
	if len(terrain) != terrainLength(len(isl.Spots)) {
		return fmt.Errorf("terrain length %d, want %d", len(terrain), terrainLength(len(isl.Spots)))
	}
	surfaces := make([]Surface, 0, len(terrain)*2)
	for i := 0; i < len(terrain); i++ {
		v := strings.IndexByte(hexDigits, terrain[i])
		if v < 0 {
			return fmt.Errorf("terrain digit %q at %d", terrain[i], i)
		}
		high, low := Surface(v>>2), Surface(v&3)
		if high > SurfaceWater || low > SurfaceWater {
			return fmt.Errorf("terrain digit %q at %d: bad surface", terrain[i], i)
		}
		surfaces = append(surfaces, high, low)
	}
	for i, s := range isl.Spots {
		s.Surface = surfaces[i]
	}
	for _, h := range isl.Hexalots {
		if err := h.RefreshFingerprint(); err != nil {
			return err
		}
	}
	isl.refreshStructure()
	return nil
}

func terrainLength(spots int) int {
	return (spots + 1) / 2
}
