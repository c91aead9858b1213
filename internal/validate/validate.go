// Package validate checks canonical hit tables for schema completeness and
// out-of-range values. It reports problems as messages and never modifies
// the table.
package validate

import (
	"fmt"
	"strings"

	"github.com/inodb/amr-fusion/internal/hit"
)

// Message prefixes.
const (
	PrefixWarn  = "WARN:"
	PrefixError = "ERROR:"
)

// RequiredColumns must be present in every canonical table.
var RequiredColumns = []string{hit.ColSampleID, hit.ColTool, hit.ColGene}

// StrictMessage is appended when strict mode escalates warnings.
const StrictMessage = "ERROR: strict mode enabled; warnings treated as failures"

// Validate returns warnings and errors for t, in check order: missing
// required columns, empty genes, identity out of [0,100], coverage out of
// [0,100]. In strict mode any warning adds a final error.
func Validate(t hit.Table, strict bool) []string {
	messages := []string{}

	for _, c := range RequiredColumns {
		if !t.HasColumn(c) {
			messages = append(messages, fmt.Sprintf("%s missing required column '%s'", PrefixError, c))
		}
	}

	if t.HasColumn(hit.ColGene) {
		if n := countEmptyGenes(t.Hits); n > 0 {
			messages = append(messages, fmt.Sprintf("%s %d rows have empty gene values", PrefixWarn, n))
		}
	}

	if t.HasColumn(hit.ColIdentity) {
		if n := countOutOfRange(t.Hits, func(h hit.Hit) hit.Metric { return h.Identity }); n > 0 {
			messages = append(messages, fmt.Sprintf("%s %d rows have identity outside 0-100", PrefixWarn, n))
		}
	}

	if t.HasColumn(hit.ColCoverage) {
		if n := countOutOfRange(t.Hits, func(h hit.Hit) hit.Metric { return h.Coverage }); n > 0 {
			messages = append(messages, fmt.Sprintf("%s %d rows have coverage outside 0-100", PrefixWarn, n))
		}
	}

	if strict && len(Warnings(messages)) > 0 {
		messages = append(messages, StrictMessage)
	}

	return messages
}

// HasErrors reports whether any message is an error.
func HasErrors(messages []string) bool {
	return len(Errors(messages)) > 0
}

// Errors returns the error messages.
func Errors(messages []string) []string {
	return withPrefix(messages, PrefixError)
}

// Warnings returns the warning messages.
func Warnings(messages []string) []string {
	return withPrefix(messages, PrefixWarn)
}

func withPrefix(messages []string, prefix string) []string {
	var out []string
	for _, m := range messages {
		if strings.HasPrefix(m, prefix) {
			out = append(out, m)
		}
	}
	return out
}

func countEmptyGenes(hits []hit.Hit) int {
	n := 0
	for _, h := range hits {
		if strings.TrimSpace(h.Gene) == "" {
			n++
		}
	}
	return n
}

// countOutOfRange counts present values outside [0,100]. Raw text is
// coerced first so uncoerced tables are checked the same way.
func countOutOfRange(hits []hit.Hit, field func(hit.Hit) hit.Metric) int {
	n := 0
	for _, h := range hits {
		v, ok := field(h).Coerce().Float()
		if ok && (v < 0 || v > 100) {
			n++
		}
	}
	return n
}
