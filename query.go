package ridemap

import (
	"iter"
	"math"
)

// rollingResistance is the rolling resistance coefficient per surface.
var rollingResistance = map[Surface]float64{
	SurfaceAsphalt: 0.005,
	SurfaceGravel:  0.012,
	SurfaceDirt:    0.020,
	SurfaceMud:     0.040,
}

// RollingResistance returns the rolling resistance coefficient for s.
// Unknown surfaces fall back to asphalt.
func RollingResistance(s Surface) float64 {
	if crr, ok := rollingResistance[s.OrDefault()]; ok {
		return crr
	}
	return rollingResistance[SurfaceAsphalt]
}

// wrap maps distance onto [0, total). The profile is treated as a loop.
func (p Profile) wrap(distance float64) float64 {
	if p.totalM <= 0 {
		return 0
	}
	d := math.Mod(distance, p.totalM)
	if d < 0 {
		d += p.totalM
	}
	return d
}

// segmentAt returns the index of the segment whose half-open interval
// [start, start+length) contains the wrapped distance.
func (p Profile) segmentAt(distance float64) int {
	if len(p.segments) == 0 {
		return -1
	}
	d := p.wrap(distance)
	start := 0.0
	for i, s := range p.segments {
		if d >= start && d < start+s.LengthM {
			return i
		}
		start += s.LengthM
	}
	return len(p.segments) - 1
}

// GradeAt returns the grade at distance meters, wrapping past the end.
func GradeAt(p Profile, distance float64) float64 {
	i := p.segmentAt(distance)
	if i < 0 {
		return 0
	}
	return p.segments[i].Grade
}

// SurfaceAt returns the surface at distance meters, wrapping past the end.
func SurfaceAt(p Profile, distance float64) Surface {
	i := p.segmentAt(distance)
	if i < 0 {
		return SurfaceAsphalt
	}
	return p.segments[i].Surface.OrDefault()
}

// ElevationAt returns the elevation in meters relative to the profile start at
// the wrapped distance. It is zero at every multiple of the total length.
func ElevationAt(p Profile, distance float64) float64 {
	return p.elevation(p.wrap(distance))
}

// elevation integrates grade over [0, d] without wrapping.
func (p Profile) elevation(d float64) float64 {
	elev := 0.0
	start := 0.0
	for _, s := range p.segments {
		end := start + s.LengthM
		if d >= end {
			elev += s.Grade * s.LengthM
			start = end
			continue
		}
		if d > start {
			elev += s.Grade * (d - start)
		}
		break
	}
	return elev
}

// SampleElevation yields (distance, elevation) pairs every step meters from 0
// to the total length, always ending on the exact final point. Elevation is
// the unwrapped cumulative rise, so the last sample is the course's net
// elevation. A step that is not a positive finite number yields only the two
// endpoints. The sequence can be ranged over any number of times.
func SampleElevation(p Profile, step float64) iter.Seq2[float64, float64] {
	return func(yield func(float64, float64) bool) {
		total := p.totalM
		if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 || step > total {
			step = total
		}
		if total <= 0 {
			yield(0, 0)
			return
		}
		for i := 0; ; i++ {
			d := float64(i) * step
			if d >= total {
				break
			}
			if !yield(d, p.elevation(d)) {
				return
			}
		}
		yield(total, p.elevation(total))
	}
}

// Invert returns the profile ridden in reverse: segment order reversed and
// every grade negated. Lengths and surfaces are preserved.
func Invert(p Profile) Profile {
	segs := make([]Segment, len(p.segments))
	for i, s := range p.segments {
		s.Grade = -s.Grade
		segs[len(segs)-1-i] = s
	}
	return NewProfile(segs...)
}

// ProfileSummary condenses a profile for elevation previews.
type ProfileSummary struct {
	TotalDistanceM float64 `json:"totalDistanceM"`
	AscentM        float64 `json:"ascentM"`
	DescentM       float64 `json:"descentM"`
	NetElevationM  float64 `json:"netElevationM"`
	MaxGrade       float64 `json:"maxGrade"`
	MinGrade       float64 `json:"minGrade"`
	Segments       int     `json:"segments"`
}

// Summarize totals climbing and descending over the profile.
func Summarize(p Profile) ProfileSummary {
	sum := ProfileSummary{TotalDistanceM: p.totalM, Segments: len(p.segments)}
	for i, s := range p.segments {
		rise := s.Grade * s.LengthM
		if rise > 0 {
			sum.AscentM += rise
		} else {
			sum.DescentM -= rise
		}
		sum.NetElevationM += rise
		if i == 0 || s.Grade > sum.MaxGrade {
			sum.MaxGrade = s.Grade
		}
		if i == 0 || s.Grade < sum.MinGrade {
			sum.MinGrade = s.Grade
		}
	}
	return sum
}
