package trajectory

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Axis identifies one coordinate of a Sample.
//
// Recording convention: X is left(-)/right(+), Y is down(-)/up(+),
// Z is forward(-)/backward(+).
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists the axes in column order.
var Axes = []Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// ParseAxis maps "x", "y" or "z" (either case) to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Sample is one position of the tracked device.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Coord returns the coordinate of s along a.
func (s Sample) Coord(a Axis) float64 {
	switch a {
	case AxisY:
		return s.Y
	case AxisZ:
		return s.Z
	default:
		return s.X
	}
}

// Vec converts s to a gonum vector.
func (s Sample) Vec() r3.Vec {
	return r3.Vec{X: s.X, Y: s.Y, Z: s.Z}
}

// FromVec converts a gonum vector back to a Sample.
func FromVec(v r3.Vec) Sample {
	return Sample{X: v.X, Y: v.Y, Z: v.Z}
}

// Sub returns s - o component-wise.
func (s Sample) Sub(o Sample) Sample {
	return FromVec(r3.Sub(s.Vec(), o.Vec()))
}

// Norm returns the Euclidean length of s.
func (s Sample) Norm() float64 {
	return r3.Norm(s.Vec())
}

func (s Sample) String() string {
	return fmt.Sprintf("(%g, %g, %g)", s.X, s.Y, s.Z)
}

// Trajectory is an ordered sequence of samples. Index order is temporal
// order and is never changed by this package.
type Trajectory []Sample

// Clone returns an independent copy of t. A nil trajectory stays nil.
func (t Trajectory) Clone() Trajectory {
	if t == nil {
		return nil
	}
	out := make(Trajectory, len(t))
	copy(out, t)
	return out
}

// Column returns the values of one axis in sample order.
func (t Trajectory) Column(a Axis) []float64 {
	out := make([]float64, len(t))
	for i, s := range t {
		out[i] = s.Coord(a)
	}
	return out
}

// FromRows builds a trajectory from rows of coordinates. Each row must
// carry at least three finite values; values past the third are ignored.
func FromRows(rows [][]float64) (Trajectory, error) {
	t := make(Trajectory, len(rows))
	for i, row := range rows {
		s, err := SampleFromRow(row, i+1)
		if err != nil {
			return nil, err
		}
		t[i] = s
	}
	return t, nil
}

// SampleFromRow builds one sample from the first three values of row.
// rowNum is the 1-based position reported in a MalformedInputError. NaN
// and infinite coordinates are rejected: they would hide jumps from
// detection and spread through a corrected suffix.
func SampleFromRow(row []float64, rowNum int) (Sample, error) {
	if len(row) < 3 {
		return Sample{}, &MalformedInputError{
			Row:    rowNum,
			Column: len(row) + 1,
			Reason: fmt.Sprintf("expected 3 coordinates, got %d", len(row)),
		}
	}
	for col, v := range row[:3] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sample{}, &MalformedInputError{
				Row:    rowNum,
				Column: col + 1,
				Reason: fmt.Sprintf("coordinate is not finite: %v", v),
			}
		}
	}
	return Sample{X: row[0], Y: row[1], Z: row[2]}, nil
}
