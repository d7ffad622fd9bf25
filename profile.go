package ridemap

import (
	"encoding/json"
	"fmt"
)

// Surface is the road material of a segment.
type Surface string

const (
	SurfaceAsphalt Surface = "asphalt"
	SurfaceGravel  Surface = "gravel"
	SurfaceDirt    Surface = "dirt"
	SurfaceMud     Surface = "mud"
)

// OrDefault returns asphalt for the zero value.
func (s Surface) OrDefault() Surface {
	if s == "" {
		return SurfaceAsphalt
	}
	return s
}

// Valid reports whether s is empty or a known surface.
func (s Surface) Valid() bool {
	switch s {
	case "", SurfaceAsphalt, SurfaceGravel, SurfaceDirt, SurfaceMud:
		return true
	default:
		return false
	}
}

// Segment is a fixed-grade, fixed-surface stretch of road.
// Grade is rise over run as a signed fraction.
type Segment struct {
	LengthM float64 `json:"lengthM"`
	Grade   float64 `json:"grade"`
	Surface Surface `json:"surface,omitempty"`
}

// Profile is an ordered, non-empty run of segments. Its total length is
// always the sum of the segment lengths and cannot be set independently.
type Profile struct {
	segments []Segment
	totalM   float64
}

// NewProfile builds a profile from segments, deriving the total length.
func NewProfile(segments ...Segment) Profile {
	p := Profile{segments: make([]Segment, len(segments))}
	copy(p.segments, segments)
	for _, s := range p.segments {
		p.totalM += s.LengthM
	}
	return p
}

// Segments returns a copy of the profile's segments.
func (p Profile) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Len returns the number of segments.
func (p Profile) Len() int { return len(p.segments) }

// Segment returns the i-th segment.
func (p Profile) Segment(i int) Segment { return p.segments[i] }

// TotalDistanceM returns the summed segment length in meters.
func (p Profile) TotalDistanceM() float64 { return p.totalM }

type profileJSON struct {
	Segments       []Segment `json:"segments"`
	TotalDistanceM float64   `json:"totalDistanceM"`
}

// MarshalJSON encodes segments and the derived total.
func (p Profile) MarshalJSON() ([]byte, error) {
	segs := p.segments
	if segs == nil {
		segs = []Segment{}
	}
	return json.Marshal(profileJSON{Segments: segs, TotalDistanceM: p.totalM})
}

// UnmarshalJSON decodes segments and recomputes the total; any encoded total
// is ignored.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw profileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ridemap: decode profile: %w", err)
	}
	*p = NewProfile(raw.Segments...)
	return nil
}
