package render

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/trajfix/internal/dataset"
	"github.com/banshee-data/trajfix/internal/trajectory"
)

// Output file names inside a run directory.
const (
	FileProjectionXY   = "projection_xy.png"
	FileProjectionXZ   = "projection_xz.png"
	FileProjectionZY   = "projection_zy.png"
	FileDerivativeX    = "derivative_x.png"
	FileDerivativeY    = "derivative_y.png"
	FileDerivativeZ    = "derivative_z.png"
	FileDerivativeNorm = "derivative_magnitude.png"
	FileScene3D        = "trajectory_3d.html"
)

// Axis captions. Y is vertical in the recording frame.
var axisCaption = map[trajectory.Axis]string{
	trajectory.AxisX: "X (left/right)",
	trajectory.AxisY: "Y (down/up)",
	trajectory.AxisZ: "Z (forward/back)",
}

// Scene is everything drawn for one run.
type Scene struct {
	Title           string
	Trajectory      trajectory.Trajectory
	Checkpoints     []dataset.Checkpoint
	Discontinuities []int
	Limits          Limits
}

// Options control presentation only.
type Options struct {
	// ShowCheckpoints draws the checkpoint markers and labels.
	ShowCheckpoints bool
	// Invert flips the direction of the listed axes in 2D projections.
	Invert map[trajectory.Axis]bool
	// AssetsHost overrides where the HTML page loads echarts from.
	AssetsHost string
}

// InvertFromNames converts axis names ("x", "y", "z") to an Invert set.
func InvertFromNames(names map[string]bool) (map[trajectory.Axis]bool, error) {
	out := make(map[trajectory.Axis]bool, len(names))
	for n, on := range names {
		if !on {
			continue
		}
		a, err := trajectory.ParseAxis(n)
		if err != nil {
			return nil, err
		}
		out[a] = true
	}
	return out, nil
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// OutputDir returns <base>/<dataset>/<timestamp> for one run.
func OutputDir(base, datasetName string, now time.Time) string {
	return filepath.Join(base, datasetName, FormatTimestamp(now))
}

func checkpointPositions(cps []dataset.Checkpoint) trajectory.Trajectory {
	out := make(trajectory.Trajectory, len(cps))
	for i, c := range cps {
		out[i] = c.Position
	}
	return out
}

func hoverText(s trajectory.Sample) string {
	return fmt.Sprintf("X: %.2f Y: %.2f Z: %.2f", s.X, s.Y, s.Z)
}
