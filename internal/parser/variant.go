package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/inodb/amr-fusion/internal/hit"
)

// ErrUnknownTool is returned when no column mapping exists for a tool name.
var ErrUnknownTool = errors.New("unknown tool")

// Variant describes how one tool's report maps onto the canonical schema.
type Variant struct {
	Tool string

	// Mapping renames raw columns to canonical domain columns. Several raw
	// names may map to the same target; the first non-empty one in header
	// order wins.
	Mapping map[string]string

	// PostProcess, if set, adjusts each canonical hit after mapping.
	PostProcess func(h *hit.Hit)
}

// ResFinder maps simplified ResFinder TSV/CSV exports.
var ResFinder = Variant{
	Tool: hit.ToolResFinder,
	Mapping: map[string]string{
		"Gene":            hit.ColGene,
		"Resistance gene": hit.ColGene,
		"%Identity":       hit.ColIdentity,
		"Identity":        hit.ColIdentity,
		"%Coverage":       hit.ColCoverage,
		"Coverage":        hit.ColCoverage,
		"Phenotype":       hit.ColDrugClass,
	},
}

// AMRFinder maps NCBI AMRFinderPlus reports.
var AMRFinder = Variant{
	Tool: hit.ToolAMRFinder,
	Mapping: map[string]string{
		"Gene symbol":                      hit.ColGene,
		"Gene":                             hit.ColGene,
		"% Identity to reference sequence": hit.ColIdentity,
		"% Coverage of reference sequence": hit.ColCoverage,
		"Class":                            hit.ColDrugClass,
		"Subclass":                         hit.ColDrugClass,
	},
}

// RGI maps CARD RGI main output. Best_Hit_ARO values of the form
// "<accession>|<gene-name>" are reduced to the gene name.
var RGI = Variant{
	Tool: hit.ToolRGI,
	Mapping: map[string]string{
		"Best_Hit_ARO":                   hit.ColGene,
		"Drug Class":                     hit.ColDrugClass,
		"% Identity":                     hit.ColIdentity,
		"% Length of Reference Sequence": hit.ColCoverage,
	},
	PostProcess: func(h *hit.Hit) {
		h.Gene = GeneFromCompoundID(h.Gene)
	},
}

// Variants holds the supported tool mappings keyed by tool name.
var Variants = map[string]Variant{
	hit.ToolResFinder: ResFinder,
	hit.ToolAMRFinder: AMRFinder,
	hit.ToolRGI:       RGI,
}

// Lookup returns the variant for a tool name (case-insensitive).
func Lookup(tool string) (Variant, error) {
	v, ok := Variants[strings.ToLower(strings.TrimSpace(tool))]
	if !ok {
		return Variant{}, fmt.Errorf("%w %q (supported: %s)", ErrUnknownTool, tool, strings.Join(ToolNames(), ", "))
	}
	return v, nil
}

// ToolNames returns the supported tool names in sorted order.
func ToolNames() []string {
	names := make([]string, 0, len(Variants))
	for name := range Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GeneFromCompoundID returns the substring after the last '|' of an
// identifier such as "ARO:3000873|blaTEM-1". Identifiers without a separator
// are returned trimmed.
func GeneFromCompoundID(id string) string {
	if i := strings.LastIndex(id, "|"); i >= 0 {
		id = id[i+1:]
	}
	return strings.TrimSpace(id)
}

// Canonicalize maps a raw report onto canonical hits for one sample. Columns
// without a mapping are dropped; canonical columns the report lacks stay
// absent.
func Canonicalize(raw RawTable, v Variant, sampleID string) hit.Table {
	hits := make([]hit.Hit, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		fields := make(map[string]string, len(hit.DomainColumns))
		present := make(map[string]bool, len(hit.DomainColumns))
		for _, col := range raw.Header {
			target, ok := v.Mapping[col]
			if !ok {
				continue
			}
			cell, ok := row[col]
			if !ok {
				continue
			}
			cell = strings.TrimSpace(cell)
			if present[target] && fields[target] != "" {
				continue
			}
			fields[target] = cell
			present[target] = true
		}

		h := hit.Hit{
			SampleID:  sampleID,
			Tool:      v.Tool,
			Gene:      fields[hit.ColGene],
			DrugClass: fields[hit.ColDrugClass],
			Identity:  hit.Absent(),
			Coverage:  hit.Absent(),
		}
		if present[hit.ColIdentity] {
			h.Identity = hit.Text(fields[hit.ColIdentity])
		}
		if present[hit.ColCoverage] {
			h.Coverage = hit.Text(fields[hit.ColCoverage])
		}
		if v.PostProcess != nil {
			v.PostProcess(&h)
		}
		hits = append(hits, h)
	}
	return hit.NewTable(hits)
}

// ParseFile reads a tool report and canonicalizes it.
func ParseFile(path, tool, sampleID string) (hit.Table, error) {
	v, err := Lookup(tool)
	if err != nil {
		return hit.Table{}, err
	}
	raw, err := ReadRawFile(path)
	if err != nil {
		return hit.Table{}, err
	}
	return Canonicalize(raw, v, sampleID), nil
}
