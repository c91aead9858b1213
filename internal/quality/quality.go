// Package quality coerces hit metrics to numbers and applies the identity,
// coverage and duplicate filters.
package quality

import (
	"github.com/inodb/amr-fusion/internal/hit"
)

// Options configures the quality filter. Zero thresholds disable filtering.
type Options struct {
	MinIdentity float64 `json:"min_identity" mapstructure:"min_identity" yaml:"min_identity"`
	MinCoverage float64 `json:"min_coverage" mapstructure:"min_coverage" yaml:"min_coverage"`
	Deduplicate bool    `json:"deduplicate" mapstructure:"deduplicate" yaml:"deduplicate"`
}

// DefaultOptions returns no thresholds with deduplication enabled.
func DefaultOptions() Options {
	return Options{Deduplicate: true}
}

// Normalize coerces identity and coverage, drops hits below the thresholds
// and, if enabled, removes exact duplicates keeping the first occurrence.
// A hit whose metric is absent is never dropped by that metric's threshold.
// The input is not modified.
func Normalize(t hit.Table, opts Options) []hit.Hit {
	out := make([]hit.Hit, 0, len(t.Hits))
	for _, h := range t.Hits {
		h.Identity = h.Identity.Coerce()
		h.Coverage = h.Coverage.Coerce()

		if opts.MinIdentity > 0 && !passes(h.Identity, opts.MinIdentity) {
			continue
		}
		if opts.MinCoverage > 0 && !passes(h.Coverage, opts.MinCoverage) {
			continue
		}
		out = append(out, h)
	}

	if opts.Deduplicate {
		out = Deduplicate(out, t.Columns)
	}
	return out
}

func passes(m hit.Metric, threshold float64) bool {
	v, ok := m.Float()
	return !ok || v >= threshold
}

// dedupeKey holds the canonical fields compared for duplicate detection.
// Columns missing from the table schema are left zero so they never
// distinguish two rows.
type dedupeKey struct {
	sampleID, tool, gene, drugClass string
	identity, coverage              metricKey
}

type metricKey struct {
	value float64
	valid bool
	raw   string
}

// Deduplicate removes hits identical across the canonical columns present in
// the schema, keeping the first occurrence. A nil schema compares every
// canonical column.
func Deduplicate(hits []hit.Hit, columns []string) []hit.Hit {
	use := make(map[string]bool, len(hit.CanonicalColumns))
	if columns == nil {
		columns = hit.CanonicalColumns
	}
	for _, c := range columns {
		use[c] = true
	}

	seen := make(map[dedupeKey]bool, len(hits))
	out := make([]hit.Hit, 0, len(hits))
	for _, h := range hits {
		var k dedupeKey
		if use[hit.ColSampleID] {
			k.sampleID = h.SampleID
		}
		if use[hit.ColTool] {
			k.tool = h.Tool
		}
		if use[hit.ColGene] {
			k.gene = h.Gene
		}
		if use[hit.ColDrugClass] {
			k.drugClass = h.DrugClass
		}
		if use[hit.ColIdentity] {
			k.identity = keyOf(h.Identity)
		}
		if use[hit.ColCoverage] {
			k.coverage = keyOf(h.Coverage)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, h)
	}
	return out
}

func keyOf(m hit.Metric) metricKey {
	if m.Valid {
		return metricKey{value: m.Value, valid: true}
	}
	return metricKey{raw: m.Raw}
}
