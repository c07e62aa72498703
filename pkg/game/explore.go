package game

import (
	"starhold/pkg/core"
	"starhold/pkg/types"
)

// SectorPotential is what exists at a coordinate purely based on math: the
// digest of (world seed, coordinate) is the sector's DNA, so every lookup
// agrees without storing anything.
type SectorPotential struct {
	HasSystem bool    `json:"has_system"`
	StarType  string  `json:"star_type"`
	Richness  float64 `json:"richness"` // 0.1 (poor) to 2.5 (rich)
	Hazards   float64 `json:"hazards"`  // 0.0 to 1.0
	Fields    int     `json:"fields"`
}

func SectorData(worldSeed string, coord types.Coord) SectorPotential {
	h := core.SeedBytes(worldSeed, string(coord))

	// Byte 0: existence. Habitable systems sit on roughly a quarter of the grid.
	if h[0] >= 64 {
		return SectorPotential{}
	}

	starByte := h[1]
	starType := "M-Dwarf"
	switch {
	case starByte > 200:
		starType = "O-Type"
	case starByte > 150:
		starType = "G2V"
	case starByte < 10:
		starType = "BlackHole"
	}

	return SectorPotential{
		HasSystem: true,
		StarType:  starType,
		Richness:  (float64(h[2])/255.0)*2.4 + 0.1,
		Hazards:   float64(h[7]) / 255.0,
		Fields:    120 + int(h[3])%121,
	}
}
