package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// recordedAtLayout has fixed-width fractions so text ordering is time ordering.
const recordedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is the archived record of one analysis.
type Run struct {
	ID                  string    `json:"id"`
	Dataset             string    `json:"dataset"`
	RecordedAt          time.Time `json:"recorded_at"`
	Threshold           float64   `json:"threshold"`
	Corrected           bool      `json:"corrected"`
	SampleCount         int       `json:"sample_count"`
	Discontinuities     []int     `json:"discontinuities"`
	PathLengthRaw       float64   `json:"path_length_raw"`
	PathLengthCorrected float64   `json:"path_length_corrected"`
	OutputDir           string    `json:"output_dir"`
}

// RecordRun inserts r. An empty ID is replaced with a new UUID and the
// stored ID is returned.
func (db *DB) RecordRun(r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Discontinuities == nil {
		r.Discontinuities = []int{}
	}
	disc, err := json.Marshal(r.Discontinuities)
	if err != nil {
		return "", fmt.Errorf("failed to encode discontinuities: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO runs (
			id, dataset, recorded_at, threshold, corrected, sample_count,
			discontinuities, path_length_raw, path_length_corrected, output_dir
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Dataset, r.RecordedAt.UTC().Format(recordedAtLayout), r.Threshold,
		boolToInt(r.Corrected), r.SampleCount, string(disc),
		r.PathLengthRaw, r.PathLengthCorrected, r.OutputDir,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", r.ID, err)
	}
	return r.ID, nil
}

const runColumns = `id, dataset, recorded_at, threshold, corrected, sample_count,
	discontinuities, path_length_raw, path_length_corrected, output_dir`

// ListRuns returns runs newest first. An empty dataset lists every run;
// limit <= 0 means no limit.
func (db *DB) ListRuns(dataset string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []interface{}
	if dataset != "" {
		query += ` WHERE dataset = ?`
		args = append(args, dataset)
	}
	query += ` ORDER BY recorded_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given id or ErrRunNotFound.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		r         Run
		recorded  string
		corrected int
		disc      string
	)
	err := s.Scan(&r.ID, &r.Dataset, &recorded, &r.Threshold, &corrected, &r.SampleCount,
		&disc, &r.PathLengthRaw, &r.PathLengthCorrected, &r.OutputDir)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	r.RecordedAt, err = time.Parse(time.RFC3339Nano, recorded)
	if err != nil {
		return nil, fmt.Errorf("run %s: bad recorded_at %q: %w", r.ID, recorded, err)
	}
	r.Corrected = corrected != 0
	if err := json.Unmarshal([]byte(disc), &r.Discontinuities); err != nil {
		return nil, fmt.Errorf("run %s: bad discontinuities: %w", r.ID, err)
	}
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
