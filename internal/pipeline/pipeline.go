// Package pipeline runs one dataset through loading, analysis, correction,
// rendering and archiving.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/trajfix/internal/config"
	"github.com/banshee-data/trajfix/internal/dataset"
	"github.com/banshee-data/trajfix/internal/db"
	"github.com/banshee-data/trajfix/internal/fsutil"
	"github.com/banshee-data/trajfix/internal/monitoring"
	"github.com/banshee-data/trajfix/internal/render"
	"github.com/banshee-data/trajfix/internal/timeutil"
	"github.com/banshee-data/trajfix/internal/trajectory"
)

// RunRecorder archives a finished run and returns its id.
type RunRecorder interface {
	RecordRun(r db.Run) (string, error)
}

// Runner holds the collaborators shared by every run. Store may be nil.
type Runner struct {
	FS    fsutil.FileSystem
	Store RunRecorder
	Clock timeutil.Clock
}

// Report describes one finished run.
type Report struct {
	Dataset dataset.Dataset
	// Result is the analysis of the main trajectory. Result.Corrected
	// equals the input when correction is disabled.
	Result trajectory.Result
	// CheckpointResult is set only when checkpoints were corrected too.
	CheckpointResult *trajectory.Result
	Checkpoints      []dataset.Checkpoint
	Summary          trajectory.Summary
	OutputDir        string
	Files            []string
	RunID            string
	Elapsed          time.Duration
}

// Layout converts the configured file layout for dataset discovery.
func Layout(cfg *config.PipelineConfig) dataset.Layout {
	l := cfg.GetLayout()
	return dataset.Layout{DataPrefix: l.DataPrefix, CheckpointPrefix: l.CheckpointPrefix, Suffix: l.Suffix}
}

func (r *Runner) fs() fsutil.FileSystem {
	if r.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return r.FS
}

func (r *Runner) clock() timeutil.Clock {
	if r.Clock == nil {
		return timeutil.RealClock{}
	}
	return r.Clock
}

// Run processes ds according to cfg. A nil cfg uses defaults.
func (r *Runner) Run(ctx context.Context, cfg *config.PipelineConfig, ds dataset.Dataset) (*Report, error) {
	if cfg == nil {
		cfg = config.Empty()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	fsys, clock := r.fs(), r.clock()
	start := clock.Now()

	rec, err := dataset.Load(fsys, ds)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("[pipeline] %s: loaded %d samples, %d checkpoints", ds.Name, len(rec.Samples), len(rec.Checkpoints))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{Dataset: ds, Checkpoints: rec.Checkpoints}
	if err := r.analyze(ctx, cfg, rec, report); err != nil {
		return nil, err
	}
	report.Summary = trajectory.Summarize(rec.Samples, report.Result)
	monitoring.Logf("[pipeline] %s: %d discontinuities above %.3g %v",
		ds.Name, len(report.Result.Discontinuities), cfg.GetThreshold(), report.Result.Discontinuities)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.OutputDir = render.OutputDir(cfg.GetOutputDir(), ds.Name, clock.Now())
	files, err := r.render(cfg, report)
	report.Files = files
	if err != nil {
		return report, err
	}
	monitoring.Logf("[pipeline] %s: wrote %d files to %s", ds.Name, len(files), report.OutputDir)

	if r.Store != nil {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		id, err := r.Store.RecordRun(db.Run{
			Dataset:             ds.Name,
			RecordedAt:          clock.Now(),
			Threshold:           cfg.GetThreshold(),
			Corrected:           cfg.GetCorrect(),
			SampleCount:         report.Summary.Samples,
			Discontinuities:     report.Result.Discontinuities,
			PathLengthRaw:       report.Summary.PathLengthRaw,
			PathLengthCorrected: report.Summary.PathLengthCorrected,
			OutputDir:           report.OutputDir,
		})
		if err != nil {
			return report, fmt.Errorf("failed to archive run: %w", err)
		}
		report.RunID = id
	}

	report.Elapsed = clock.Since(start)
	return report, nil
}

// analyze runs the main path and, when configured, the checkpoint path
// concurrently. The two share no state.
func (r *Runner) analyze(ctx context.Context, cfg *config.PipelineConfig, rec *dataset.Recording, report *Report) error {
	correct := cfg.GetCorrect()
	cpThreshold, cpEnabled := cfg.GetCheckpointThreshold()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var (
			res trajectory.Result
			err error
		)
		if correct {
			res, err = trajectory.DetectAndCorrect(rec.Samples, cfg.GetThreshold())
		} else {
			res, err = trajectory.Analyze(rec.Samples, cfg.GetThreshold())
		}
		if err != nil {
			return fmt.Errorf("trajectory: %w", err)
		}
		report.Result = res
		return ctx.Err()
	})

	if correct && cpEnabled {
		g.Go(func() error {
			res, err := trajectory.DetectAndCorrect(rec.CheckpointPath(), cpThreshold)
			if err != nil {
				return fmt.Errorf("checkpoints: %w", err)
			}
			cps := make([]dataset.Checkpoint, len(rec.Checkpoints))
			for i, c := range rec.Checkpoints {
				cps[i] = dataset.Checkpoint{Label: c.Label, Position: res.Corrected[i]}
			}
			report.CheckpointResult = &res
			report.Checkpoints = cps
			return ctx.Err()
		})
	}
	return g.Wait()
}

func (r *Runner) render(cfg *config.PipelineConfig, report *Report) ([]string, error) {
	fsys := r.fs()
	dir := report.OutputDir
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	invert, err := render.InvertFromNames(cfg.GetInvertAxes())
	if err != nil {
		return nil, err
	}
	opt := render.Options{ShowCheckpoints: cfg.GetShowCheckpoints(), Invert: invert}

	sc := render.Scene{
		Title:           report.Dataset.Label(),
		Trajectory:      report.Result.Corrected,
		Checkpoints:     report.Checkpoints,
		Discontinuities: report.Result.Discontinuities,
		Limits:          sceneLimits(cfg, report),
	}

	var files []string
	proj, err := render.Projections(fsys, dir, sc, opt)
	files = append(files, proj...)
	if err != nil {
		return files, fmt.Errorf("projections: %w", err)
	}

	if cfg.GetDerivativeCharts() {
		d, mags := chartSeries(report.Result, cfg.GetCorrect())
		deriv, err := render.DerivativeCharts(fsys, dir, sc.Title, d, mags, cfg.GetThreshold())
		files = append(files, deriv...)
		if err != nil {
			return files, fmt.Errorf("derivative charts: %w", err)
		}
	}

	if len(sc.Trajectory) > 0 {
		path, err := render.Scene3DFile(fsys, dir, sc, opt)
		if err != nil {
			return files, fmt.Errorf("3d scene: %w", err)
		}
		files = append(files, path)
	}
	return files, nil
}

// sceneLimits spans the drawn trajectory and every checkpoint, hidden or
// not, so toggling checkpoint visibility keeps the same axes.
func sceneLimits(cfg *config.PipelineConfig, report *Report) render.Limits {
	cp := make(trajectory.Trajectory, len(report.Checkpoints))
	for i, c := range report.Checkpoints {
		cp[i] = c.Position
	}
	sets := []trajectory.Trajectory{report.Result.Corrected, cp}
	return render.Bounds(sets, cfg.GetMarginRatio(), cfg.GetSharedScale())
}

// chartSeries returns the displacements the derivative charts plot: those
// of the corrected path when correcting, else those of the input.
func chartSeries(res trajectory.Result, corrected bool) ([]trajectory.Sample, []float64) {
	if !corrected {
		return res.Displacements, res.Magnitudes
	}
	d := trajectory.Displacements(res.Corrected)
	return d, trajectory.Magnitudes(d)
}
