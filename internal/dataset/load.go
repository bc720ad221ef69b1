package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/trajfix/internal/fsutil"
	"github.com/banshee-data/trajfix/internal/trajectory"
)

// Checkpoint is a labeled position recorded alongside the trajectory.
// Checkpoints are drawn next to the path but never corrected with it
// unless a checkpoint threshold is configured.
type Checkpoint struct {
	Label    string            `json:"label"`
	Position trajectory.Sample `json:"position"`
}

// Recording is the loaded content of one dataset.
type Recording struct {
	Dataset     Dataset
	Samples     trajectory.Trajectory
	Checkpoints []Checkpoint
}

// CheckpointPath returns the checkpoint positions as a trajectory.
func (r *Recording) CheckpointPath() trajectory.Trajectory {
	out := make(trajectory.Trajectory, len(r.Checkpoints))
	for i, c := range r.Checkpoints {
		out[i] = c.Position
	}
	return out
}

// ReadSamples parses a headerless CSV whose first three columns are X, Y
// and Z. Extra columns are ignored. A short row or a non-numeric
// coordinate is reported as a *trajectory.MalformedInputError.
func ReadSamples(r io.Reader) (trajectory.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	t := trajectory.Trajectory{}
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		s, err := parseRow(rec, row)
		if err != nil {
			return nil, err
		}
		t = append(t, s)
	}
}

func parseRow(rec []string, row int) (trajectory.Sample, error) {
	n := min(len(rec), 3)
	v := make([]float64, n)
	for col := 0; col < n; col++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
		if err != nil {
			return trajectory.Sample{}, &trajectory.MalformedInputError{
				Row:    row,
				Column: col + 1,
				Reason: fmt.Sprintf("not a number: %q", rec[col]),
			}
		}
		v[col] = f
	}
	return trajectory.SampleFromRow(v, row)
}

// ReadCheckpoints parses checkpoints in the sample format and labels them
// "1", "2", ... in file order.
func ReadCheckpoints(r io.Reader) ([]Checkpoint, error) {
	t, err := ReadSamples(r)
	if err != nil {
		return nil, err
	}
	out := make([]Checkpoint, len(t))
	for i, s := range t {
		out[i] = Checkpoint{Label: strconv.Itoa(i + 1), Position: s}
	}
	return out, nil
}

// Load opens and parses both files of a dataset.
func Load(fsys fsutil.FileSystem, ds Dataset) (*Recording, error) {
	samples, err := readFile(fsys, ds.DataPath, ReadSamples)
	if err != nil {
		return nil, err
	}
	checkpoints, err := readFile(fsys, ds.CheckpointPath, ReadCheckpoints)
	if err != nil {
		return nil, err
	}
	return &Recording{Dataset: ds, Samples: samples, Checkpoints: checkpoints}, nil
}

func readFile[T any](fsys fsutil.FileSystem, path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := fsys.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
