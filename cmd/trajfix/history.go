package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/trajfix/internal/config"
	"github.com/banshee-data/trajfix/internal/db"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [dataset]",
		Short: "List archived runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				v, _ := cmd.Flags().GetString("db")
				cfg.Merge(&config.PipelineConfig{DBPath: config.PtrString(v)})
			}
			path := cfg.GetDBPath()
			if path == "" {
				return errors.New("no archive configured: pass --db or set db_path")
			}

			store, err := db.NewDB(path)
			if err != nil {
				return fmt.Errorf("failed to open archive %s: %w", path, err)
			}
			defer store.Close()

			var name string
			if len(args) == 1 {
				name = args[0]
			}
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := store.ListRuns(name, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.out, "No runs recorded.")
				return nil
			}
			for _, r := range runs {
				mode := "analyzed"
				if r.Corrected {
					mode = "corrected"
				}
				fmt.Fprintf(a.out, "%s  %s  %-40s %-9s threshold=%g samples=%d jumps=%v\n",
					r.RecordedAt.Local().Format("2006-01-02 15:04:05"), r.ID, r.Dataset, mode,
					r.Threshold, r.SampleCount, r.Discontinuities)
			}
			return nil
		},
	}
	cmd.Flags().String("db", "", "SQLite archive file")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}
