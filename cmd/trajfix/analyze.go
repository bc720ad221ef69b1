package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/trajfix/internal/config"
	"github.com/banshee-data/trajfix/internal/dataset"
	"github.com/banshee-data/trajfix/internal/db"
	"github.com/banshee-data/trajfix/internal/pipeline"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [dataset]",
		Short: "Analyze a dataset and write charts",
		Long: `Analyze loads one dataset, flags jumps between consecutive samples that
exceed the threshold and writes projections, derivative charts and a 3D
view. With --correct the path after each jump is shifted back so the
trajectory is continuous. The dataset is given by index or folder name;
when omitted it is chosen interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, a, args)
		},
	}
	f := cmd.Flags()
	f.Float64("threshold", config.DefaultThreshold, "Displacement magnitude above which a step is a discontinuity")
	f.Bool("correct", false, "Shift the trajectory to remove detected discontinuities")
	f.Bool("shared-scale", false, "Use one common range for all axes")
	f.String("output-dir", "", "Base directory for charts (default from config, else \"plots\")")
	f.String("db", "", "SQLite file to archive the run in")
	f.BoolP("interactive", "i", false, "Ask for options not given as flags")
	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Merge(analyzeFlags(cmd))

	datasets, err := dataset.Discover(a.fs, cfg.GetDataDir(), pipeline.Layout(cfg))
	if err != nil {
		return err
	}
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		printDatasets(a, datasets)
		if key, err = a.readLine("Select dataset number: "); err != nil {
			return err
		}
	}
	ds, err := dataset.Select(datasets, key)
	if err != nil {
		return err
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		if err := askOptions(cmd, a, cfg); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runner := &pipeline.Runner{FS: a.fs, Clock: a.clock}
	if path := cfg.GetDBPath(); path != "" {
		store, err := db.NewDB(path)
		if err != nil {
			return fmt.Errorf("failed to open archive %s: %w", path, err)
		}
		defer store.Close()
		runner.Store = store
	}

	report, err := runner.Run(cmd.Context(), cfg, ds)
	if err != nil {
		return err
	}
	printReport(a, report)
	return nil
}

// analyzeFlags collects the explicitly set analyze flags as a config
// overlay.
func analyzeFlags(cmd *cobra.Command) *config.PipelineConfig {
	f := cmd.Flags()
	o := config.Empty()
	if f.Changed("threshold") {
		v, _ := f.GetFloat64("threshold")
		o.Threshold = config.PtrFloat64(v)
	}
	if f.Changed("correct") {
		v, _ := f.GetBool("correct")
		o.Correct = config.PtrBool(v)
	}
	if f.Changed("shared-scale") {
		v, _ := f.GetBool("shared-scale")
		o.SharedScale = config.PtrBool(v)
	}
	if f.Changed("output-dir") {
		v, _ := f.GetString("output-dir")
		o.OutputDir = config.PtrString(v)
	}
	if f.Changed("db") {
		v, _ := f.GetString("db")
		o.DBPath = config.PtrString(v)
	}
	return o
}

// askOptions asks, in order, the yes/no questions whose flags were not
// given.
func askOptions(cmd *cobra.Command, a *app, cfg *config.PipelineConfig) error {
	for _, opt := range []struct {
		flag, question string
		dst            **bool
	}{
		{"correct", "Repair the trajectory?", &cfg.Correct},
		{"shared-scale", "Use one scale for all axes?", &cfg.SharedScale},
	} {
		if cmd.Flags().Changed(opt.flag) {
			continue
		}
		v, err := a.confirm(opt.question)
		if err != nil {
			return err
		}
		*opt.dst = config.PtrBool(v)
	}
	return nil
}

func printReport(a *app, r *pipeline.Report) {
	s := r.Summary
	fmt.Fprintf(a.out, "Dataset:          %s\n", r.Dataset.Label())
	fmt.Fprintf(a.out, "Samples:          %d\n", s.Samples)
	fmt.Fprintf(a.out, "Discontinuities:  %d %v\n", s.Discontinuities, r.Result.Discontinuities)
	if s.LargestJumpIndex >= 0 {
		fmt.Fprintf(a.out, "Largest jump:     %.3f at %d-%d\n", s.LargestJump, s.LargestJumpIndex-1, s.LargestJumpIndex)
	}
	fmt.Fprintf(a.out, "Path length:      %.3f raw, %.3f corrected\n", s.PathLengthRaw, s.PathLengthCorrected)
	if r.CheckpointResult != nil {
		fmt.Fprintf(a.out, "Checkpoint jumps: %v\n", r.CheckpointResult.Discontinuities)
	}
	fmt.Fprintf(a.out, "Output:           %s (%d files)\n", r.OutputDir, len(r.Files))
	if r.RunID != "" {
		fmt.Fprintf(a.out, "Run:              %s\n", r.RunID)
	}
}
