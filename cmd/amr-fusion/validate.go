package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/amr-fusion/internal/hit"
	"github.com/inodb/amr-fusion/internal/output"
	"github.com/inodb/amr-fusion/internal/parser"
	"github.com/inodb/amr-fusion/internal/pipeline"
	"github.com/inodb/amr-fusion/internal/quality"
)

func newValidateCmd() *cobra.Command {
	var (
		tool     string
		sampleID string
		strict   bool
		filter   quality.Options
	)

	cmd := &cobra.Command{
		Use:   "validate [options] <file>",
		Short: "Check a tool report or fused CSV for schema and range problems",
		Long: `Parse one report, apply the quality filter and print validation messages.
Without --tool the file is read as a table with canonical column names, such
as an amr_fused.csv from an earlier run. Exits non-zero when any ERROR is
reported.`,
		Example: `  amr-fusion validate --tool rgi --sample-id S1 rgi.txt
  amr-fusion validate --strict outputs/S1.amr_fused.csv`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := loadForValidation(args[0], tool, sampleID)
			if err != nil {
				return err
			}

			res, err := pipeline.Default().Fuse(sampleID, tbl, filter, strict)
			if res == nil {
				return err
			}
			if werr := printValidation(cmd.OutOrStdout(), res); werr != nil {
				return werr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&tool, "tool", "", "Tool that produced the file: resfinder, amrfinder, rgi (empty for canonical CSV)")
	cmd.Flags().StringVar(&sampleID, "sample-id", "SAMPLE", "Sample identifier injected into tool reports")
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as failures")
	cmd.Flags().Float64Var(&filter.MinIdentity, "min-identity", 0, "Identity threshold applied before validation")
	cmd.Flags().Float64Var(&filter.MinCoverage, "min-coverage", 0, "Coverage threshold applied before validation")

	return cmd
}

func loadForValidation(path, tool, sampleID string) (hit.Table, error) {
	if tool != "" {
		return parser.ParseFile(path, tool, sampleID)
	}

	f, err := os.Open(path)
	if err != nil {
		return hit.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return parser.ReadCanonical(f, path)
}

func printValidation(w io.Writer, res *pipeline.Result) error {
	vw := output.NewValidationWriter(w)
	if err := vw.WriteHeader(); err != nil {
		return err
	}
	for _, m := range res.Messages {
		if err := vw.WriteMessage(m); err != nil {
			return err
		}
	}
	if err := vw.Flush(); err != nil {
		return err
	}
	vw.WriteSummary(w, len(res.Hits))
	return nil
}
