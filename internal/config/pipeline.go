package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is looked up in the working directory when no
// --config flag is given. A missing default file is not an error.
const DefaultConfigPath = "trajfix.yaml"

// Defaults for fields left unset.
const (
	DefaultThreshold        = 1.0
	DefaultMarginRatio      = 0.1
	DefaultDataDir          = "files"
	DefaultOutputDir        = "plots"
	DefaultDataPrefix       = "dane"
	DefaultCheckpointPrefix = "checkpoint"
	DefaultSuffix           = ".csv"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// PipelineConfig holds the policy knobs of one analysis run. Every field
// is optional; the Get* methods supply defaults for nil fields so partial
// files are safe. The same schema is accepted as JSON or YAML.
type PipelineConfig struct {
	// Detection and correction
	Threshold           *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	CheckpointThreshold *float64 `json:"checkpoint_threshold,omitempty" yaml:"checkpoint_threshold,omitempty"`
	Correct             *bool    `json:"correct,omitempty" yaml:"correct,omitempty"`

	// Rendering
	SharedScale                  *bool    `json:"shared_scale,omitempty" yaml:"shared_scale,omitempty"`
	MarginRatio                  *float64 `json:"margin_ratio,omitempty" yaml:"margin_ratio,omitempty"`
	ShowCheckpointsWhenCorrected *bool    `json:"show_checkpoints_when_corrected,omitempty" yaml:"show_checkpoints_when_corrected,omitempty"`
	InvertAxes                   []string `json:"invert_axes,omitempty" yaml:"invert_axes,omitempty"`
	DerivativeCharts             *bool    `json:"derivative_charts,omitempty" yaml:"derivative_charts,omitempty"`

	// Locations
	DataDir   *string       `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	OutputDir *string       `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	DBPath    *string       `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	Layout    *LayoutConfig `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// LayoutConfig names the files inside a dataset folder:
// <DataPrefix>-<timestamp><Suffix> and <CheckpointPrefix>-<timestamp><Suffix>.
type LayoutConfig struct {
	DataPrefix       string `json:"data_prefix,omitempty" yaml:"data_prefix,omitempty"`
	CheckpointPrefix string `json:"checkpoint_prefix,omitempty" yaml:"checkpoint_prefix,omitempty"`
	Suffix           string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
}

// Helper functions to create pointers
func PtrFloat64(v float64) *float64 { return &v }
func PtrBool(v bool) *bool          { return &v }
func PtrString(v string) *string    { return &v }

// Empty returns a PipelineConfig with all fields unset.
func Empty() *PipelineConfig {
	return &PipelineConfig{}
}

// Load reads a PipelineConfig from a .json, .yaml or .yml file and
// validates it. Unknown keys are rejected.
func Load(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg *PipelineConfig
	if ext == ".json" {
		cfg, err = ParseJSON(data)
	} else {
		cfg, err = ParseYAML(data)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional behaves like Load but returns an empty config when path
// does not exist.
func LoadOptional(path string) (*PipelineConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Empty(), nil
	}
	return Load(path)
}

// ParseJSON decodes and validates a JSON config.
func ParseJSON(data []byte) (*PipelineConfig, error) {
	cfg := Empty()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ParseYAML decodes and validates a YAML config.
func ParseYAML(data []byte) (*PipelineConfig, error) {
	cfg := Empty()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *PipelineConfig) Validate() error {
	if c.Threshold != nil && !positiveFinite(*c.Threshold) {
		return fmt.Errorf("threshold must be a positive number, got %v", *c.Threshold)
	}
	if c.CheckpointThreshold != nil && !positiveFinite(*c.CheckpointThreshold) {
		return fmt.Errorf("checkpoint_threshold must be a positive number, got %v", *c.CheckpointThreshold)
	}
	if c.MarginRatio != nil {
		if m := *c.MarginRatio; m < 0 || m >= 1 || math.IsNaN(m) {
			return fmt.Errorf("margin_ratio must be in [0, 1), got %v", m)
		}
	}
	for _, a := range c.InvertAxes {
		switch strings.ToLower(a) {
		case "x", "y", "z":
		default:
			return fmt.Errorf("invert_axes: unknown axis %q", a)
		}
	}
	if c.Layout != nil {
		for name, v := range map[string]string{
			"data_prefix":       c.Layout.DataPrefix,
			"checkpoint_prefix": c.Layout.CheckpointPrefix,
			"suffix":            c.Layout.Suffix,
		} {
			if strings.ContainsAny(v, `/\`) {
				return fmt.Errorf("layout.%s must not contain path separators, got %q", name, v)
			}
		}
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Merge overlays every field set in o onto c and returns c.
func (c *PipelineConfig) Merge(o *PipelineConfig) *PipelineConfig {
	if o == nil {
		return c
	}
	if o.Threshold != nil {
		c.Threshold = o.Threshold
	}
	if o.CheckpointThreshold != nil {
		c.CheckpointThreshold = o.CheckpointThreshold
	}
	if o.Correct != nil {
		c.Correct = o.Correct
	}
	if o.SharedScale != nil {
		c.SharedScale = o.SharedScale
	}
	if o.MarginRatio != nil {
		c.MarginRatio = o.MarginRatio
	}
	if o.ShowCheckpointsWhenCorrected != nil {
		c.ShowCheckpointsWhenCorrected = o.ShowCheckpointsWhenCorrected
	}
	if o.InvertAxes != nil {
		c.InvertAxes = o.InvertAxes
	}
	if o.DerivativeCharts != nil {
		c.DerivativeCharts = o.DerivativeCharts
	}
	if o.DataDir != nil {
		c.DataDir = o.DataDir
	}
	if o.OutputDir != nil {
		c.OutputDir = o.OutputDir
	}
	if o.DBPath != nil {
		c.DBPath = o.DBPath
	}
	if o.Layout != nil {
		c.Layout = o.Layout
	}
	return c
}

// GetThreshold returns the threshold value or the default.
func (c *PipelineConfig) GetThreshold() float64 {
	if c.Threshold == nil {
		return DefaultThreshold
	}
	return *c.Threshold
}

// GetCheckpointThreshold returns the checkpoint threshold and whether
// checkpoint correction is enabled.
func (c *PipelineConfig) GetCheckpointThreshold() (float64, bool) {
	if c.CheckpointThreshold == nil {
		return 0, false
	}
	return *c.CheckpointThreshold, true
}

// GetCorrect returns the correct value or the default.
func (c *PipelineConfig) GetCorrect() bool {
	if c.Correct == nil {
		return false
	}
	return *c.Correct
}

// GetSharedScale returns the shared_scale value or the default.
func (c *PipelineConfig) GetSharedScale() bool {
	if c.SharedScale == nil {
		return false
	}
	return *c.SharedScale
}

// GetMarginRatio returns the margin_ratio value or the default.
func (c *PipelineConfig) GetMarginRatio() float64 {
	if c.MarginRatio == nil {
		return DefaultMarginRatio
	}
	return *c.MarginRatio
}

// GetShowCheckpoints reports whether checkpoints are drawn. They are
// always drawn for uncorrected runs; corrected runs hide them unless
// show_checkpoints_when_corrected is set, since the corrected path no
// longer shares their frame of reference.
func (c *PipelineConfig) GetShowCheckpoints() bool {
	if !c.GetCorrect() {
		return true
	}
	return c.ShowCheckpointsWhenCorrected != nil && *c.ShowCheckpointsWhenCorrected
}

// GetInvertAxes returns the lower-cased set of inverted axes.
func (c *PipelineConfig) GetInvertAxes() map[string]bool {
	out := make(map[string]bool, len(c.InvertAxes))
	for _, a := range c.InvertAxes {
		out[strings.ToLower(a)] = true
	}
	return out
}

// GetDerivativeCharts returns the derivative_charts value or the default.
func (c *PipelineConfig) GetDerivativeCharts() bool {
	if c.DerivativeCharts == nil {
		return true
	}
	return *c.DerivativeCharts
}

// GetDataDir returns the data_dir value or the default.
func (c *PipelineConfig) GetDataDir() string {
	if c.DataDir == nil || *c.DataDir == "" {
		return DefaultDataDir
	}
	return *c.DataDir
}

// GetOutputDir returns the output_dir value or the default.
func (c *PipelineConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return DefaultOutputDir
	}
	return *c.OutputDir
}

// GetDBPath returns the archive path; empty disables archiving.
func (c *PipelineConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetLayout returns the file layout with defaults filled in.
func (c *PipelineConfig) GetLayout() LayoutConfig {
	l := LayoutConfig{
		DataPrefix:       DefaultDataPrefix,
		CheckpointPrefix: DefaultCheckpointPrefix,
		Suffix:           DefaultSuffix,
	}
	if c.Layout == nil {
		return l
	}
	if c.Layout.DataPrefix != "" {
		l.DataPrefix = c.Layout.DataPrefix
	}
	if c.Layout.CheckpointPrefix != "" {
		l.CheckpointPrefix = c.Layout.CheckpointPrefix
	}
	if c.Layout.Suffix != "" {
		l.Suffix = c.Layout.Suffix
	}
	return l
}
