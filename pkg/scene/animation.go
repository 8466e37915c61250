package scene

import "fmt"

// TrackPath names the node property a track animates.
type TrackPath int

const (
	PathTranslation TrackPath = iota
	PathRotation
	PathScale
)

// String returns the glTF channel path name.
func (p TrackPath) String() string {
	switch p {
	case PathTranslation:
		return "translation"
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// Components returns the number of floats per keyframe value.
func (p TrackPath) Components() int {
	if p == PathRotation {
		return 4
	}
	return 3
}

// Interpolation is the sampling mode between keyframes.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

// String returns the glTF interpolation name.
func (i Interpolation) String() string {
	switch i {
	case InterpolationLinear:
		return "LINEAR"
	case InterpolationStep:
		return "STEP"
	case InterpolationCubicSpline:
		return "CUBICSPLINE"
	default:
		return fmt.Sprintf("Unknown(%d)", i)
	}
}

// Track is a time-sampled property of the node named Node.
type Track struct {
	Node          string
	Path          TrackPath
	Interpolation Interpolation
	Times         []float32
	Values        []float32
}

// AnimationClip is a named set of tracks. Clips are identified by name when
// deduplicating.
type AnimationClip struct {
	Name   string
	Tracks []Track
}

// Duration returns the last keyframe time across all tracks.
func (c *AnimationClip) Duration() float32 {
	var d float32
	for _, t := range c.Tracks {
		if n := len(t.Times); n > 0 && t.Times[n-1] > d {
			d = t.Times[n-1]
		}
	}
	return d
}
