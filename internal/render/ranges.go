package render

import (
	"math"

	"github.com/banshee-data/trajfix/internal/trajectory"
	"gonum.org/v1/gonum/floats"
)

// Range is a closed axis interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns Max - Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// drawable widens a zero-width range so plots keep a visible axis.
func (r Range) drawable() Range {
	if r.Span() > 0 {
		return r
	}
	return Range{Min: r.Min - 0.5, Max: r.Max + 0.5}
}

// Limits holds one Range per axis.
type Limits struct {
	X Range `json:"x"`
	Y Range `json:"y"`
	Z Range `json:"z"`
}

// Axis returns the range of a.
func (l Limits) Axis(a trajectory.Axis) Range {
	switch a {
	case trajectory.AxisY:
		return l.Y
	case trajectory.AxisZ:
		return l.Z
	default:
		return l.X
	}
}

// DynamicRange returns [min - m, max + m] where m is margin times the
// spread of values. Empty input yields the zero Range.
func DynamicRange(values []float64, margin float64) Range {
	if len(values) == 0 {
		return Range{}
	}
	lo, hi := floats.Min(values), floats.Max(values)
	m := (hi - lo) * margin
	return Range{Min: lo - m, Max: hi + m}
}

// Bounds computes per-axis limits over the union of all sample sets.
// With shared set, every axis gets the common [min, max] of the three
// per-axis ranges so distances compare visually across projections.
func Bounds(sets []trajectory.Trajectory, margin float64, shared bool) Limits {
	var combined trajectory.Trajectory
	for _, s := range sets {
		combined = append(combined, s...)
	}

	l := Limits{
		X: DynamicRange(combined.Column(trajectory.AxisX), margin),
		Y: DynamicRange(combined.Column(trajectory.AxisY), margin),
		Z: DynamicRange(combined.Column(trajectory.AxisZ), margin),
	}
	if shared && len(combined) > 0 {
		common := Range{
			Min: math.Min(l.X.Min, math.Min(l.Y.Min, l.Z.Min)),
			Max: math.Max(l.X.Max, math.Max(l.Y.Max, l.Z.Max)),
		}
		l = Limits{X: common, Y: common, Z: common}
	}
	return l
}
