package output

import (
	"github.com/inodb/amr-fusion/internal/duckdb"
	"github.com/inodb/amr-fusion/internal/quality"
)

// PDF export states recorded in the manifest.
const (
	PDFEnabled = "enabled"
	PDFSkipped = "skipped_not_requested"
)

// Manifest records what one run produced.
type Manifest struct {
	RunID          string   `json:"run_id"`
	SampleID       string   `json:"sample_id"`
	GeneratedAtUTC string   `json:"generated_at_utc"`
	OutputFiles    []string `json:"output_files"`
	RunMeta        RunMeta  `json:"run_meta"`
	PDFExport      string   `json:"pdf_export"`
}

// RunMeta holds the settings a run was made with.
type RunMeta struct {
	Version            string                   `json:"version,omitempty"`
	Inputs             []duckdb.FileFingerprint `json:"inputs"`
	Filters            quality.Options          `json:"filters"`
	StrictValidation   bool                     `json:"strict_validation"`
	ValidationMessages []string                 `json:"validation_messages"`
	AIProvider         string                   `json:"ai_provider,omitempty"`
	AIModel            string                   `json:"ai_model,omitempty"`
}
