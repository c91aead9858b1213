package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/amr-fusion/internal/hit"
)

// Evidence is everything exported for one sample.
type Evidence struct {
	SampleID      string
	Inputs        []FileFingerprint
	Scored        []hit.Scored
	Summary       []hit.GeneSummary
	Disagreements []hit.GeneSummary
}

// Export replaces the sample's rows in every table with ev.
func (s *Store) Export(ev Evidence) error {
	if err := s.ClearSample(ev.SampleID); err != nil {
		return err
	}
	if err := s.WriteHits(ev.Scored); err != nil {
		return err
	}
	if err := s.writeSummaries(TableGeneSummary, ev.Summary); err != nil {
		return err
	}
	if err := s.writeSummaries(TableDisagreements, ev.Disagreements); err != nil {
		return err
	}
	return s.writeInputs(ev.SampleID, ev.Inputs)
}

// WriteHits batch-inserts scored hits using the Appender API.
func (s *Store) WriteHits(rows []hit.Scored) error {
	return s.appendRows(TableHits, len(rows), func(i int) []driver.Value {
		r := rows[i]
		return []driver.Value{
			r.SampleID, r.Tool, r.Gene, r.DrugClass,
			metricValue(r.Identity), metricValue(r.Coverage),
			r.DrugClassNormalized, r.ConfidenceScore, r.Confidence, r.Rationale,
		}
	})
}

func (s *Store) writeSummaries(table string, rows []hit.GeneSummary) error {
	return s.appendRows(table, len(rows), func(i int) []driver.Value {
		g := rows[i]
		return []driver.Value{
			g.SampleID, g.Gene, g.ToolsDetected, int64(g.ToolCount), g.NormalizedDrugClasses,
			metricValue(g.BestIdentity), metricValue(g.BestCoverage),
			g.MaxConfidenceScore, g.WeightedConsensusScore, g.ConsensusLevel, g.ConsensusTier,
		}
	})
}

func (s *Store) writeInputs(sampleID string, inputs []FileFingerprint) error {
	return s.appendRows(TableInputs, len(inputs), func(i int) []driver.Value {
		in := inputs[i]
		return []driver.Value{sampleID, in.Tool, in.Path, in.Size, in.ModTime}
	})
}

// appendRows appends n rows to table; row(i) returns the values of row i.
func (s *Store) appendRows(table string, n int, row func(i int) []driver.Value) error {
	if n == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create %s appender: %w", table, err)
	}
	defer appender.Close()

	for i := 0; i < n; i++ {
		if err := appender.AppendRow(row(i)...); err != nil {
			return fmt.Errorf("append %s row %d: %w", table, i, err)
		}
	}

	return appender.Flush()
}

// metricValue maps absent metrics to NULL.
func metricValue(m hit.Metric) driver.Value {
	if v, ok := m.Float(); ok {
		return v
	}
	return nil
}
