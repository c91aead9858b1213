package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/inodb/amr-fusion/internal/validate"
)

// ValidationWriter prints validator messages as an aligned table.
type ValidationWriter struct {
	w        *tabwriter.Writer
	warnings int
	errors   int
}

// NewValidationWriter creates a new validation output writer.
func NewValidationWriter(w io.Writer) *ValidationWriter {
	return &ValidationWriter{
		w: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
	}
}

// WriteHeader writes the validation output header.
func (v *ValidationWriter) WriteHeader() error {
	_, err := fmt.Fprintln(v.w, "Level\tMessage")
	return err
}

// WriteMessage writes one validator message, splitting off its level prefix.
func (v *ValidationWriter) WriteMessage(msg string) error {
	level, text := "INFO", msg
	switch {
	case strings.HasPrefix(msg, validate.PrefixError):
		v.errors++
		level, text = "ERROR", strings.TrimSpace(strings.TrimPrefix(msg, validate.PrefixError))
	case strings.HasPrefix(msg, validate.PrefixWarn):
		v.warnings++
		level, text = "WARN", strings.TrimSpace(strings.TrimPrefix(msg, validate.PrefixWarn))
	}
	_, err := fmt.Fprintf(v.w, "%s\t%s\n", level, text)
	return err
}

// Flush flushes the writer.
func (v *ValidationWriter) Flush() error {
	return v.w.Flush()
}

// Summary returns message counts.
func (v *ValidationWriter) Summary() (warnings, errors int) {
	return v.warnings, v.errors
}

// WriteSummary writes a summary of the validation results.
func (v *ValidationWriter) WriteSummary(w io.Writer, hits int) {
	status := "PASS"
	if v.errors > 0 {
		status = "FAIL"
	}
	fmt.Fprintf(w, "\nValidation Summary:\n")
	fmt.Fprintf(w, "  Hits checked:  %d\n", hits)
	fmt.Fprintf(w, "  Warnings:      %d\n", v.warnings)
	fmt.Fprintf(w, "  Errors:        %d\n", v.errors)
	fmt.Fprintf(w, "  Status:        %s\n", status)
}
