package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumenlabsco/exam-eval/internal/export"
	"github.com/lumenlabsco/exam-eval/internal/extract"
	"github.com/lumenlabsco/exam-eval/internal/llm"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "list [strategies|providers|exporters]",
		Short:     "List available extraction strategies, providers and export formats",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"strategies", "providers", "exporters"},
		RunE: func(cmd *cobra.Command, args []string) error {
			what := ""
			if len(args) == 1 {
				what = strings.ToLower(strings.TrimSpace(args[0]))
			}

			out := cmd.OutOrStdout()
			if what == "" || what == "strategies" {
				fmt.Fprintf(out, "strategies: %s\n", strings.Join(extract.DefaultRegistry().Names(), ", "))
			}
			if what == "" || what == "providers" {
				fmt.Fprintf(out, "providers: %s\n", strings.Join(llm.DefaultRegistry().Names(), ", "))
			}
			if what == "" || what == "exporters" {
				fmt.Fprintf(out, "exporters: %s\n", strings.Join(export.DefaultRegistry().Names(), ", "))
			}
			return nil
		},
	}
}
