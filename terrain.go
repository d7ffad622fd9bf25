package ridemap

import "math"

const (
	bookendFraction = 0.05
	bookendMinM     = 50.0
	bookendMaxM     = 1500.0

	segMaxFraction = 0.04
	segMaxMinM     = 200.0
	segMaxMaxM     = 2500.0
	segMinFloorM   = 100.0
	segMinRatio    = 0.35

	// pressureLimit is the normalized net elevation beyond which the next
	// segment is forced back toward level.
	pressureLimit   = 0.7
	recoveryChance  = 0.08
	baseClimbChance = 0.52
	pressureBias    = 0.5
)

// gradeSteps are the allowed magnitudes as fractions of the max grade.
var gradeSteps = [...]float64{0.25, 0.5, 0.75, 1.0}

// Synthesize generates a terrain profile of exactly distanceKm kilometers.
//
// The course opens and closes with flat bookends. Between them, segments of
// bounded random length are emitted while a running net elevation biases the
// next climb/descent choice back toward level, so long courses wander without
// drifting away. Every segment carries surface. A nil src uses RandomSource.
func Synthesize(src Source, distanceKm, maxGrade float64, surface Surface) Profile {
	if src == nil {
		src = RandomSource()
	}
	maxGrade = math.Abs(maxGrade)
	totalM := distanceKm * 1000

	bookend := clampFloat(totalM*bookendFraction, bookendMinM, bookendMaxM)
	if bookend > totalM/3 {
		bookend = totalM / 3
	}
	segMax := clampFloat(totalM*segMaxFraction, segMaxMinM, segMaxMaxM)
	segMin := math.Max(segMinFloorM, segMinRatio*segMax)

	segs := make([]Segment, 0, 2+int(totalM/segMin))
	segs = append(segs, Segment{LengthM: bookend, Surface: surface})

	remaining := totalM - 2*bookend
	net := 0.0
	for remaining >= segMin {
		hi := math.Min(segMax, remaining-segMin)
		if hi < segMin {
			hi = segMin
		}
		length := segMin + unit(src)*(hi-segMin)
		grade := nextGrade(src, net, totalM, maxGrade)
		segs = append(segs, Segment{LengthM: length, Grade: grade, Surface: surface})
		net += grade * length
		remaining -= length
	}

	if len(segs) == 1 {
		segs = append(segs, Segment{LengthM: remaining, Grade: randomGrade(src, maxGrade), Surface: surface})
		bridgedProfiles.Inc()
	} else if remaining > 0 {
		segs[len(segs)-1].LengthM += remaining
	}
	ensureRelief(src, segs[1:], maxGrade)

	segs = append(segs, Segment{LengthM: bookend, Surface: surface})
	profileSegments.Observe(float64(len(segs)))
	return NewProfile(segs...)
}

// nextGrade picks the signed grade of the next terrain segment.
func nextGrade(src Source, netM, totalM, maxGrade float64) float64 {
	pressure := 0.0
	if maxGrade > 0 && totalM > 0 {
		pressure = clampFloat(netM/(totalM*maxGrade), -1, 1)
	}

	var sign float64
	switch {
	case pressure > pressureLimit:
		sign = -1
	case pressure < -pressureLimit:
		sign = 1
	default:
		if unit(src) < recoveryChance {
			return 0
		}
		climb := clampFloat(baseClimbChance-pressureBias*pressure, 0, 1)
		if unit(src) < climb {
			sign = 1
		} else {
			sign = -1
		}
	}
	return sign * magnitude(src, maxGrade)
}

func randomGrade(src Source, maxGrade float64) float64 {
	sign := 1.0
	if unit(src) < 0.5 {
		sign = -1
	}
	return sign * magnitude(src, maxGrade)
}

func magnitude(src Source, maxGrade float64) float64 {
	return gradeSteps[int(unit(src)*float64(len(gradeSteps)))] * maxGrade
}

// ensureRelief gives the longest terrain segment a nonzero grade when every
// draw came up as a recovery segment.
func ensureRelief(src Source, terrain []Segment, maxGrade float64) {
	if maxGrade <= 0 || len(terrain) == 0 {
		return
	}
	longest := 0
	for i, s := range terrain {
		if s.Grade != 0 {
			return
		}
		if s.LengthM > terrain[longest].LengthM {
			longest = i
		}
	}
	terrain[longest].Grade = randomGrade(src, maxGrade)
}
