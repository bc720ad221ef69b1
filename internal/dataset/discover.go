// Package dataset finds recorded sessions on disk and loads their samples
// and checkpoints.
//
// A session lives in a folder whose name ends with a timestamp
// (YYYY-MM-DD_HH-MM-SS). The folder holds two headerless CSV files:
// <data prefix>-<timestamp><suffix> with the trajectory and
// <checkpoint prefix>-<timestamp><suffix> with the checkpoints.
package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/trajfix/internal/fsutil"
)

// TimestampLayout is the time layout of folder name suffixes.
const TimestampLayout = "2006-01-02_15-04-05"

var (
	// ErrNoDatasets is returned when discovery finds no complete folder.
	ErrNoDatasets = errors.New("no folders with valid data found")

	// ErrDatasetNotFound is returned by Select for an unknown key.
	ErrDatasetNotFound = errors.New("dataset not found")
)

var folderPattern = regexp.MustCompile(`^(.*)(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})$`)

// Layout names the files inside a dataset folder.
type Layout struct {
	DataPrefix       string
	CheckpointPrefix string
	Suffix           string
}

// DefaultLayout returns the naming used by the recording app.
func DefaultLayout() Layout {
	return Layout{DataPrefix: "dane", CheckpointPrefix: "checkpoint", Suffix: ".csv"}
}

// DataFile returns the trajectory file name for a timestamp.
func (l Layout) DataFile(ts string) string {
	return fmt.Sprintf("%s-%s%s", l.DataPrefix, ts, l.Suffix)
}

// CheckpointFile returns the checkpoint file name for a timestamp.
func (l Layout) CheckpointFile(ts string) string {
	return fmt.Sprintf("%s-%s%s", l.CheckpointPrefix, ts, l.Suffix)
}

// Dataset is one discovered recording session.
type Dataset struct {
	Name           string    `json:"name"`
	Prefix         string    `json:"prefix"`
	Timestamp      string    `json:"timestamp"`
	RecordedAt     time.Time `json:"recorded_at"`
	Dir            string    `json:"dir"`
	DataPath       string    `json:"data_path"`
	CheckpointPath string    `json:"checkpoint_path"`
}

// Label is the human-readable line shown when choosing a dataset. The
// separator between prefix and timestamp is dropped.
func (d Dataset) Label() string {
	return fmt.Sprintf("%s | data: %s", strings.TrimRight(d.Prefix, "_-"), d.Timestamp)
}

// Discover lists the immediate subdirectories of baseDir that match the
// folder pattern and contain both CSV files, sorted by folder name.
func Discover(fsys fsutil.FileSystem, baseDir string, layout Layout) ([]Dataset, error) {
	entries, err := fsys.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", baseDir, err)
	}

	var out []Dataset
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := folderPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}

		dir := filepath.Join(baseDir, e.Name())
		ts := m[2]
		ds := Dataset{
			Name:           e.Name(),
			Prefix:         m[1],
			Timestamp:      ts,
			Dir:            dir,
			DataPath:       filepath.Join(dir, layout.DataFile(ts)),
			CheckpointPath: filepath.Join(dir, layout.CheckpointFile(ts)),
		}
		if !fsutil.IsFile(fsys, ds.DataPath) || !fsutil.IsFile(fsys, ds.CheckpointPath) {
			continue
		}
		// The regexp admits impossible dates such as month 13; keep the
		// folder but leave RecordedAt zero.
		if t, err := time.Parse(TimestampLayout, ts); err == nil {
			ds.RecordedAt = t
		}
		out = append(out, ds)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDatasets, baseDir)
	}
	return out, nil
}

// Select picks a dataset by 0-based index or by folder name.
func Select(datasets []Dataset, key string) (Dataset, error) {
	if idx, err := strconv.Atoi(key); err == nil {
		if idx < 0 || idx >= len(datasets) {
			return Dataset{}, fmt.Errorf("%w: index %d out of range [0, %d]", ErrDatasetNotFound, idx, len(datasets)-1)
		}
		return datasets[idx], nil
	}
	for _, d := range datasets {
		if d.Name == key {
			return d, nil
		}
	}
	return Dataset{}, fmt.Errorf("%w: %q", ErrDatasetNotFound, key)
}
