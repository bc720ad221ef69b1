package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/banshee-data/trajfix/internal/config"
	"github.com/banshee-data/trajfix/internal/fsutil"
	"github.com/banshee-data/trajfix/internal/monitoring"
	"github.com/banshee-data/trajfix/internal/timeutil"
)

// app carries the IO and collaborators shared by subcommands.
type app struct {
	in    *bufio.Reader
	out   io.Writer
	fs    fsutil.FileSystem
	clock timeutil.Clock
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "trajfix",
		Short:         "Detect and repair discontinuities in recorded trajectories",
		Long:          `trajfix lists recorded datasets, flags jumps between consecutive samples, optionally shifts the rest of the path to close them, and writes 2D and 3D charts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				monitoring.SetLogger(log.Printf)
			} else {
				monitoring.SetLogger(nil)
			}
		},
	}
	root.SetOut(a.out)

	root.PersistentFlags().String("config", config.DefaultConfigPath, "Path to a JSON or YAML config file")
	root.PersistentFlags().String("data-dir", "", "Directory containing dataset folders (default from config, else \"files\")")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log pipeline progress")

	root.AddCommand(newListCmd(a), newAnalyzeCmd(a), newHistoryCmd(a), newVersionCmd(a))
	return root
}

// Execute runs the CLI against the process environment and exits non-zero
// on error.
func Execute() {
	a := &app{
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
		fs:    fsutil.OSFileSystem{},
		clock: timeutil.RealClock{},
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config and applies persistent flag overrides. A
// missing file is only an error when the path was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.PipelineConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.PipelineConfig
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return nil, err
	}
	overlay := config.Empty()
	if cmd.Flags().Changed("data-dir") {
		dir, _ := cmd.Flags().GetString("data-dir")
		overlay.DataDir = config.PtrString(dir)
	}
	return cfg.Merge(overlay), nil
}
