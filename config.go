package ridemap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
)

// Difficulty is the run's difficulty tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

var difficulties = []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard}

// GradeScale is the multiplier applied to every edge's baseline grade.
// Unknown tiers scale like normal.
func (d Difficulty) GradeScale() float64 {
	switch d {
	case DifficultyEasy:
		return 0.7
	case DifficultyHard:
		return 1.5
	case DifficultyNormal:
		return 1.0
	default:
		return 1.0
	}
}

// ParseDifficulty resolves a difficulty name. Case is ignored and a single
// typo is tolerated ("norml" -> normal).
func ParseDifficulty(s string) (Difficulty, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return DifficultyNormal, nil
	}
	for _, d := range difficulties {
		if in == string(d) {
			return d, nil
		}
	}
	for _, d := range difficulties {
		if levenshtein.ComputeDistance(in, string(d)) <= 1 {
			return d, nil
		}
	}
	return "", fmt.Errorf("ridemap: unknown difficulty %q", s)
}

// RunConfig is the caller-supplied input to map generation.
// Biomes may be empty, in which case the generator's table is used.
type RunConfig struct {
	TotalDistanceKm float64       `json:"totalDistanceKm" yaml:"total_distance_km" validate:"gt=0,lte=10000"`
	Difficulty      Difficulty    `json:"difficulty" yaml:"difficulty" validate:"omitempty,oneof=easy normal hard"`
	Biomes          []BiomeConfig `json:"biomes,omitempty" yaml:"biomes" validate:"omitempty,dive"`
}

var configValidate = validator.New()

// Validate checks the config at service boundaries. Generate itself clamps
// instead of failing, so calling it is optional for trusted callers.
func (c RunConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("ridemap: invalid run config: %s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("ridemap: invalid run config: %w", err)
	}
	return nil
}
