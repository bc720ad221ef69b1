package trajectory

import (
	"sort"
)

// Result bundles the outputs of DetectAndCorrect.
type Result struct {
	// Corrected is the trajectory after every jump has been removed.
	Corrected Trajectory
	// Discontinuities holds the flagged indices in ascending order.
	Discontinuities []int
	// Displacements and Magnitudes describe the input trajectory.
	Displacements []Sample
	Magnitudes    []float64
}

// Correct removes the jump at each index by translating the suffix that
// starts there. Indices are processed in ascending order and each jump is
// measured on the already-corrected state, so after the pass the step into
// every flagged index is zero.
//
// The input is never modified; Correct returns a new trajectory. All
// indices are validated before any work is done: an index outside
// [1, len(t)-1] yields an *InvalidIndexError.
func Correct(t Trajectory, indices []int) (Trajectory, error) {
	for _, i := range indices {
		if i < 1 || i >= len(t) {
			return nil, &InvalidIndexError{Index: i, Len: len(t)}
		}
	}

	order := append([]int(nil), indices...)
	sort.Ints(order)

	out := t.Clone()
	prev := -1
	for _, i := range order {
		// A repeated index would see a zero jump; skip it.
		if i == prev {
			continue
		}
		prev = i

		jump := out[i].Sub(out[i-1])
		for j := i; j < len(out); j++ {
			out[j] = out[j].Sub(jump)
		}
	}
	return out, nil
}

// DetectAndCorrect runs detection with threshold and corrects every
// flagged index. Displacements and Magnitudes in the result describe the
// input trajectory.
func DetectAndCorrect(t Trajectory, threshold float64) (Result, error) {
	d := Displacements(t)
	indices, err := DetectDiscontinuities(d, threshold)
	if err != nil {
		return Result{}, err
	}
	corrected, err := Correct(t, indices)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Corrected:       corrected,
		Discontinuities: indices,
		Displacements:   d,
		Magnitudes:      Magnitudes(d),
	}, nil
}

// Analyze runs detection only. Corrected is a copy of t.
func Analyze(t Trajectory, threshold float64) (Result, error) {
	d := Displacements(t)
	indices, err := DetectDiscontinuities(d, threshold)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Corrected:       t.Clone(),
		Discontinuities: indices,
		Displacements:   d,
		Magnitudes:      Magnitudes(d),
	}, nil
}

// Summary holds headline numbers for one analysis.
type Summary struct {
	Samples             int     `json:"samples"`
	Discontinuities     int     `json:"discontinuities"`
	LargestJump         float64 `json:"largest_jump"`
	LargestJumpIndex    int     `json:"largest_jump_index"`
	PathLengthRaw       float64 `json:"path_length_raw"`
	PathLengthCorrected float64 `json:"path_length_corrected"`
}

// Summarize reports headline numbers for raw against r.
// LargestJumpIndex is -1 when raw has fewer than two samples.
func Summarize(raw Trajectory, r Result) Summary {
	s := Summary{
		Samples:             len(raw),
		Discontinuities:     len(r.Discontinuities),
		LargestJumpIndex:    -1,
		PathLengthRaw:       PathLength(raw),
		PathLengthCorrected: PathLength(r.Corrected),
	}
	for i := 1; i < len(r.Magnitudes); i++ {
		if s.LargestJumpIndex < 0 || r.Magnitudes[i] > s.LargestJump {
			s.LargestJump = r.Magnitudes[i]
			s.LargestJumpIndex = i
		}
	}
	return s
}
