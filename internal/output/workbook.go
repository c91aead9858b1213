package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/inodb/amr-fusion/internal/hit"
)

// Workbook sheet names.
const (
	SheetHits          = "hits"
	SheetGeneSummary   = "gene_summary"
	SheetDisagreements = "disagreements"
)

// WriteWorkbook writes scored hits, the gene summary and disagreements to
// one sheet each of an xlsx workbook. Numbers are stored as numbers;
// absent metrics as empty cells.
func WriteWorkbook(path string, scored []hit.Scored, summary, disagreements []hit.GeneSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetHits); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetGeneSummary, SheetDisagreements} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	hitRows := make([][]any, len(scored))
	for i, s := range scored {
		hitRows[i] = []any{
			s.SampleID, s.Tool, s.Gene, s.DrugClass,
			cellMetric(s.Identity), cellMetric(s.Coverage),
			s.DrugClassNormalized, s.ConfidenceScore, s.Confidence, s.Rationale,
		}
	}
	if err := writeSheet(f, SheetHits, header, hit.ScoredColumns, hitRows); err != nil {
		return err
	}
	if err := writeSheet(f, SheetGeneSummary, header, hit.SummaryColumns, summaryRows(summary)); err != nil {
		return err
	}
	if err := writeSheet(f, SheetDisagreements, header, hit.SummaryColumns, summaryRows(disagreements)); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func summaryRows(rows []hit.GeneSummary) [][]any {
	out := make([][]any, len(rows))
	for i, g := range rows {
		out[i] = []any{
			g.SampleID, g.Gene, g.ToolsDetected, g.ToolCount, g.NormalizedDrugClasses,
			cellMetric(g.BestIdentity), cellMetric(g.BestCoverage),
			g.MaxConfidenceScore, g.WeightedConsensusScore, g.ConsensusLevel, g.ConsensusTier,
		}
	}
	return out
}

func cellMetric(m hit.Metric) any {
	if v, ok := m.Float(); ok {
		return v
	}
	return ""
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, columns []string, rows [][]any) error {
	head := make([]any, len(columns))
	for i, c := range columns {
		head[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
