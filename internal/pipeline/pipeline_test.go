package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajfix/internal/config"
	"github.com/banshee-data/trajfix/internal/dataset"
	"github.com/banshee-data/trajfix/internal/db"
	"github.com/banshee-data/trajfix/internal/fsutil"
	"github.com/banshee-data/trajfix/internal/render"
	"github.com/banshee-data/trajfix/internal/timeutil"
	"github.com/banshee-data/trajfix/internal/trajectory"
)

const (
	testFolder = "walk2024-05-01_10-00-00"
	testStamp  = "2024-05-01_10-00-00"
)

var testNow = time.Date(2025, 1, 7, 17, 31, 29, 0, time.UTC)

type fakeRecorder struct {
	mu   sync.Mutex
	runs []db.Run
	err  error
}

func (f *fakeRecorder) RecordRun(r db.Run) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.runs = append(f.runs, r)
	return "run-1", nil
}

func setupDataset(t *testing.T, samples, checkpoints string) (*fsutil.MemoryFileSystem, dataset.Dataset) {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	dir := filepath.Join("files", testFolder)
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "dane-"+testStamp+".csv"), []byte(samples), 0644))
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "checkpoint-"+testStamp+".csv"), []byte(checkpoints), 0644))

	list, err := dataset.Discover(fsys, "files", dataset.DefaultLayout())
	require.NoError(t, err)
	require.Len(t, list, 1)
	return fsys, list[0]
}

func TestRun_CorrectWithCheckpoints(t *testing.T) {
	t.Parallel()

	fsys, ds := setupDataset(t, "0,0,0\n0.1,0,0\n5,0,0\n5.1,0,0\n", "0,0,0\n5,0,0\n")
	store := &fakeRecorder{}
	r := &Runner{FS: fsys, Store: store, Clock: timeutil.NewMockClock(testNow)}
	cfg := &config.PipelineConfig{
		Threshold:           config.PtrFloat64(1),
		Correct:             config.PtrBool(true),
		CheckpointThreshold: config.PtrFloat64(3),
	}

	report, err := r.Run(context.Background(), cfg, ds)
	require.NoError(t, err)

	approx := cmpopts.EquateApprox(0, 1e-9)
	want := trajectory.Trajectory{{}, {X: 0.1}, {X: 0.1}, {X: 0.2}}
	if diff := cmp.Diff(want, report.Result.Corrected, approx); diff != "" {
		t.Errorf("corrected mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{2}, report.Result.Discontinuities)

	require.NotNil(t, report.CheckpointResult)
	assert.Equal(t, []int{1}, report.CheckpointResult.Discontinuities)
	assert.Equal(t, "2", report.Checkpoints[1].Label)
	assert.Equal(t, trajectory.Sample{}, report.Checkpoints[1].Position)

	assert.Equal(t, 4, report.Summary.Samples)
	assert.Equal(t, 2, report.Summary.LargestJumpIndex)

	wantDir := filepath.Join("plots", testFolder, "20250107_173129")
	assert.Equal(t, wantDir, report.OutputDir)
	assert.Len(t, report.Files, 8)
	for _, name := range []string{
		render.FileProjectionXY, render.FileProjectionXZ, render.FileProjectionZY,
		render.FileDerivativeX, render.FileDerivativeY, render.FileDerivativeZ,
		render.FileDerivativeNorm, render.FileScene3D,
	} {
		assert.True(t, fsutil.IsFile(fsys, filepath.Join(wantDir, name)), name)
	}

	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, store.runs, 1)
	run := store.runs[0]
	assert.Equal(t, testFolder, run.Dataset)
	assert.True(t, run.Corrected)
	assert.Equal(t, []int{2}, run.Discontinuities)
	assert.Equal(t, testNow, run.RecordedAt)
	assert.Equal(t, wantDir, run.OutputDir)
}

func TestRun_AnalyzeOnly(t *testing.T) {
	t.Parallel()

	fsys, ds := setupDataset(t, "0,0,0\n0.1,0,0\n5,0,0\n", "0,0,0\n5,0,0\n")
	r := &Runner{FS: fsys, Clock: timeutil.NewMockClock(testNow)}
	cfg := &config.PipelineConfig{
		CheckpointThreshold: config.PtrFloat64(3),
		DerivativeCharts:    config.PtrBool(false),
	}

	report, err := r.Run(context.Background(), cfg, ds)
	require.NoError(t, err)

	assert.Equal(t, []int{2}, report.Result.Discontinuities)
	assert.Equal(t, trajectory.Trajectory{{}, {X: 0.1}, {X: 5}}, report.Result.Corrected, "samples untouched")
	assert.Nil(t, report.CheckpointResult, "checkpoints are only corrected alongside the trajectory")
	assert.Len(t, report.Files, 4)
	assert.Empty(t, report.RunID)
}

func TestRun_MalformedInput(t *testing.T) {
	t.Parallel()

	fsys, ds := setupDataset(t, "0,0,0\n1,abc,0\n", "0,0,0\n")
	r := &Runner{FS: fsys, Clock: timeutil.NewMockClock(testNow)}

	_, err := r.Run(context.Background(), nil, ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, trajectory.ErrMalformedInput))
	assert.Empty(t, fsys.Files("plots"))
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Parallel()

	fsys, ds := setupDataset(t, "0,0,0\n", "0,0,0\n")
	r := &Runner{FS: fsys}

	_, err := r.Run(context.Background(), &config.PipelineConfig{Threshold: config.PtrFloat64(-1)}, ds)
	assert.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	fsys, ds := setupDataset(t, "0,0,0\n1,0,0\n", "0,0,0\n")
	r := &Runner{FS: fsys, Clock: timeutil.NewMockClock(testNow)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, nil, ds)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fsys.Files("plots"))
}

func TestRun_StoreError(t *testing.T) {
	t.Parallel()

	fsys, ds := setupDataset(t, "0,0,0\n1,0,0\n", "0,0,0\n")
	r := &Runner{FS: fsys, Store: &fakeRecorder{err: errors.New("disk full")}, Clock: timeutil.NewMockClock(testNow)}

	report, err := r.Run(context.Background(), nil, ds)
	require.Error(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.Files)
}

func TestRun_SQLiteStore(t *testing.T) {
	t.Parallel()

	store, err := db.NewDB(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	fsys, ds := setupDataset(t, "0,0,0\n0.1,0,0\n5,0,0\n", "0,0,0\n")
	r := &Runner{FS: fsys, Store: store, Clock: timeutil.NewMockClock(testNow)}

	report, err := r.Run(context.Background(), &config.PipelineConfig{Correct: config.PtrBool(true)}, ds)
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)

	runs, err := store.ListRuns(testFolder, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunID, runs[0].ID)
	assert.Equal(t, []int{2}, runs[0].Discontinuities)
}

func TestLayout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, dataset.DefaultLayout(), Layout(config.Empty()))
	cfg := &config.PipelineConfig{Layout: &config.LayoutConfig{DataPrefix: "data"}}
	assert.Equal(t, "data", Layout(cfg).DataPrefix)
	assert.Equal(t, "checkpoint", Layout(cfg).CheckpointPrefix)
}

func TestChartSeries(t *testing.T) {
	t.Parallel()

	res, err := trajectory.DetectAndCorrect(trajectory.Trajectory{{}, {X: 0.1}, {X: 5}, {X: 5.1}}, 1)
	require.NoError(t, err)

	_, raw := chartSeries(res, false)
	assert.Equal(t, res.Magnitudes, raw)
	assert.InDelta(t, 4.9, raw[2], 1e-9)

	d, cleaned := chartSeries(res, true)
	require.Len(t, d, 4)
	approx := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff([]float64{0, 0.1, 0, 0.1}, cleaned, approx); diff != "" {
		t.Errorf("corrected magnitudes mismatch (-want +got):\n%s", diff)
	}
}

func TestSceneLimits_IncludesHiddenCheckpoints(t *testing.T) {
	t.Parallel()

	report := &Report{
		Result:      trajectory.Result{Corrected: trajectory.Trajectory{{}, {X: 1, Y: 1, Z: 1}}},
		Checkpoints: []dataset.Checkpoint{{Label: "1", Position: trajectory.Sample{X: 10, Y: -4, Z: 2}}},
	}
	cfg := &config.PipelineConfig{Correct: config.PtrBool(true), MarginRatio: config.PtrFloat64(0)}
	require.False(t, cfg.GetShowCheckpoints())

	l := sceneLimits(cfg, report)
	assert.Equal(t, render.Range{Min: 0, Max: 10}, l.X)
	assert.Equal(t, render.Range{Min: -4, Max: 1}, l.Y)
	assert.Equal(t, render.Range{Min: 0, Max: 2}, l.Z)
}
