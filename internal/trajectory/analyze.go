package trajectory

import (
	"fmt"
	"math"
)

// DefaultThreshold is the displacement magnitude above which a step is
// treated as a discontinuity when no threshold is configured. Finely
// sampled recordings usually need a smaller value such as 0.1.
const DefaultThreshold = 1.0

// Displacements returns the per-step difference t[i] - t[i-1].
// The first entry is the zero vector because it has no predecessor.
// The result has the same length as t.
func Displacements(t Trajectory) []Sample {
	out := make([]Sample, len(t))
	for i := 1; i < len(t); i++ {
		out[i] = t[i].Sub(t[i-1])
	}
	return out
}

// Magnitudes returns the Euclidean norm of every displacement.
func Magnitudes(d []Sample) []float64 {
	out := make([]float64, len(d))
	for i, v := range d {
		out[i] = v.Norm()
	}
	return out
}

// DetectDiscontinuities returns, in ascending order, the indices whose
// displacement magnitude is strictly greater than threshold.
func DetectDiscontinuities(d []Sample, threshold float64) ([]int, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	var indices []int
	for i, m := range Magnitudes(d) {
		if m > threshold {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

func validateThreshold(threshold float64) error {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// PathLength is the total distance travelled along t.
func PathLength(t Trajectory) float64 {
	var total float64
	for _, m := range Magnitudes(Displacements(t)) {
		total += m
	}
	return total
}
