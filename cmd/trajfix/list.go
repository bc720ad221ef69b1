package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/trajfix/internal/dataset"
	"github.com/banshee-data/trajfix/internal/pipeline"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List datasets found in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			datasets, err := dataset.Discover(a.fs, cfg.GetDataDir(), pipeline.Layout(cfg))
			if err != nil {
				return err
			}
			printDatasets(a, datasets)
			return nil
		},
	}
}

func printDatasets(a *app, datasets []dataset.Dataset) {
	for i, d := range datasets {
		fmt.Fprintf(a.out, "%d: %s\n", i, d.Label())
	}
}
