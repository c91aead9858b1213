// Package duckdb exports fused evidence tables into a DuckDB file for ad-hoc
// SQL. The pipeline never reads the database back.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Table names.
const (
	TableHits          = "hits"
	TableGeneSummary   = "gene_summary"
	TableDisagreements = "disagreements"
	TableInputs        = "inputs"
)

// Store manages a DuckDB connection holding the evidence tables.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

const summaryColumnsDDL = `
	sample_id VARCHAR,
	gene VARCHAR,
	tools_detected VARCHAR,
	tool_count BIGINT,
	normalized_drug_classes VARCHAR,
	best_identity DOUBLE,
	best_coverage DOUBLE,
	max_confidence_score DOUBLE,
	weighted_consensus_score DOUBLE,
	consensus_level VARCHAR,
	consensus_tier VARCHAR`

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + TableHits + ` (
			sample_id VARCHAR,
			tool VARCHAR,
			gene VARCHAR,
			drug_class VARCHAR,
			identity DOUBLE,
			coverage DOUBLE,
			drug_class_normalized VARCHAR,
			confidence_score DOUBLE,
			confidence VARCHAR,
			rationale VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS ` + TableGeneSummary + ` (` + summaryColumnsDDL + `)`,
		`CREATE TABLE IF NOT EXISTS ` + TableDisagreements + ` (` + summaryColumnsDDL + `)`,
		`CREATE TABLE IF NOT EXISTS ` + TableInputs + ` (
			sample_id VARCHAR,
			tool VARCHAR,
			path VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ClearSample removes every row of sampleID from all tables.
func (s *Store) ClearSample(sampleID string) error {
	for _, table := range []string{TableHits, TableGeneSummary, TableDisagreements, TableInputs} {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE sample_id = ?", sampleID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Count returns the number of rows of sampleID in table.
func (s *Store) Count(table, sampleID string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE sample_id = ?", sampleID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
