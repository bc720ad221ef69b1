package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/trajfix/internal/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of trajfix",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.out, version.String())
		},
	}
}
