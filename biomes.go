package ridemap

import (
	"fmt"
	"os"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

// BiomeConfig themes one spoke. The hazard surface and grade apply to the
// first leg out of the hub.
type BiomeConfig struct {
	Name          string  `json:"name" yaml:"name" validate:"required"`
	Color         string  `json:"color" yaml:"color" validate:"omitempty,hexcolor"`
	HazardSurface Surface `json:"hazardSurface" yaml:"hazard_surface" validate:"omitempty,oneof=asphalt gravel dirt mud"`
	HazardGrade   float64 `json:"hazardGrade" yaml:"hazard_grade" validate:"gte=0,lte=0.3"`
}

// BiomeTable is an ordered biome list; spoke i uses entry i modulo its length.
type BiomeTable []BiomeConfig

// DefaultBiomes returns the built-in table.
func DefaultBiomes() BiomeTable {
	return BiomeTable{
		{Name: "coastal", Color: "#3a9ad9", HazardSurface: SurfaceGravel, HazardGrade: 0.03},
		{Name: "forest", Color: "#2e8b57", HazardSurface: SurfaceDirt, HazardGrade: 0.04},
		{Name: "alpine", Color: "#b0c4de", HazardSurface: SurfaceAsphalt, HazardGrade: 0.08},
		{Name: "desert", Color: "#e3b04b", HazardSurface: SurfaceGravel, HazardGrade: 0.03},
		{Name: "canyon", Color: "#c1440e", HazardSurface: SurfaceDirt, HazardGrade: 0.06},
		{Name: "tundra", Color: "#dfe7ee", HazardSurface: SurfaceMud, HazardGrade: 0.02},
		{Name: "volcanic", Color: "#4a2c2a", HazardSurface: SurfaceGravel, HazardGrade: 0.07},
		{Name: "marsh", Color: "#6b8e23", HazardSurface: SurfaceMud, HazardGrade: 0.01},
	}
}

// For returns the biome for spoke index i.
func (t BiomeTable) For(i int) BiomeConfig {
	if len(t) == 0 {
		return DefaultBiomes().For(i)
	}
	return t[i%len(t)]
}

// Lookup finds a biome by name, tolerating small typos.
func (t BiomeTable) Lookup(name string) (BiomeConfig, bool) {
	in := strings.ToLower(strings.TrimSpace(name))
	if in == "" {
		return BiomeConfig{}, false
	}
	for _, b := range t {
		if strings.ToLower(b.Name) == in {
			return b, true
		}
	}
	best, bestDist := -1, 0
	for i, b := range t {
		alias := strings.ToLower(b.Name)
		dist := levenshtein.ComputeDistance(in, alias)
		if dist > typoLimit(len(alias)) {
			continue
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return BiomeConfig{}, false
	}
	return t[best], true
}

func typoLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

type biomeFile struct {
	Biomes []BiomeConfig `yaml:"biomes"`
}

// ParseBiomes decodes a YAML biome table of the form
//
//	biomes:
//	  - name: coastal
//	    color: "#3a9ad9"
//	    hazard_surface: gravel
//	    hazard_grade: 0.03
func ParseBiomes(data []byte) (BiomeTable, error) {
	var f biomeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ridemap: parse biomes: %w", err)
	}
	if len(f.Biomes) == 0 {
		return nil, fmt.Errorf("ridemap: parse biomes: no biomes defined")
	}
	for i, b := range f.Biomes {
		if err := configValidate.Struct(b); err != nil {
			return nil, fmt.Errorf("ridemap: biome %d (%q): %w", i, b.Name, err)
		}
	}
	return BiomeTable(f.Biomes), nil
}

// LoadBiomes reads a YAML biome table from path.
func LoadBiomes(path string) (BiomeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ridemap: read biomes: %w", err)
	}
	return ParseBiomes(data)
}
