// Package output writes the fused evidence tables, reports and run
// manifest for one sample.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/inodb/amr-fusion/internal/hit"
)

// TableWriter writes one fused table as CSV.
type TableWriter struct {
	w       *csv.Writer
	columns []string
}

// NewTableWriter creates a CSV writer for rows with the given columns.
func NewTableWriter(w io.Writer, columns []string) *TableWriter {
	return &TableWriter{
		w:       csv.NewWriter(w),
		columns: columns,
	}
}

// WriteHeader writes the header line.
func (tw *TableWriter) WriteHeader() error {
	return tw.w.Write(tw.columns)
}

// Write writes one row. The row must have one value per column.
func (tw *TableWriter) Write(values []string) error {
	if len(values) != len(tw.columns) {
		return fmt.Errorf("row has %d values, want %d", len(values), len(tw.columns))
	}
	return tw.w.Write(values)
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TableWriter) Flush() error {
	tw.w.Flush()
	return tw.w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ScoredRecord formats a scored hit in hit.ScoredColumns order.
func ScoredRecord(s hit.Scored) []string {
	return []string{
		s.SampleID,
		s.Tool,
		s.Gene,
		s.DrugClass,
		s.Identity.String(),
		s.Coverage.String(),
		s.DrugClassNormalized,
		formatFloat(s.ConfidenceScore),
		s.Confidence,
		s.Rationale,
	}
}

// SummaryRecord formats a gene summary in hit.SummaryColumns order.
func SummaryRecord(g hit.GeneSummary) []string {
	return []string{
		g.SampleID,
		g.Gene,
		g.ToolsDetected,
		strconv.Itoa(g.ToolCount),
		g.NormalizedDrugClasses,
		g.BestIdentity.String(),
		g.BestCoverage.String(),
		formatFloat(g.MaxConfidenceScore),
		formatFloat(g.WeightedConsensusScore),
		g.ConsensusLevel,
		g.ConsensusTier,
	}
}

// WriteScoredCSV writes scored hits with a header. An empty slice still
// produces the header.
func WriteScoredCSV(w io.Writer, rows []hit.Scored) error {
	tw := NewTableWriter(w, hit.ScoredColumns)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tw.Write(ScoredRecord(r)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteSummaryCSV writes gene summary rows with a header.
func WriteSummaryCSV(w io.Writer, rows []hit.GeneSummary) error {
	tw := NewTableWriter(w, hit.SummaryColumns)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tw.Write(SummaryRecord(r)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteJSON writes v as indented JSON records.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
