package parser

import (
	"io"
	"strings"

	"github.com/inodb/amr-fusion/internal/hit"
)

// ReadCanonical reads a table that already uses canonical column names, such
// as a fused-hits CSV written by an earlier run. The returned schema lists
// only the canonical columns the file header actually contains, so missing
// required columns can be reported by validation.
func ReadCanonical(r io.Reader, name string) (hit.Table, error) {
	raw, err := ReadRaw(r, name)
	if err != nil {
		return hit.Table{}, err
	}

	inHeader := make(map[string]bool, len(raw.Header))
	for _, col := range raw.Header {
		inHeader[strings.ToLower(col)] = true
	}
	var cols []string
	for _, c := range hit.CanonicalColumns {
		if inHeader[c] {
			cols = append(cols, c)
		}
	}

	hits := make([]hit.Hit, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		cells := make(map[string]string, len(row))
		for k, v := range row {
			cells[strings.ToLower(k)] = strings.TrimSpace(v)
		}
		h := hit.Hit{
			SampleID:  cells[hit.ColSampleID],
			Tool:      strings.ToLower(cells[hit.ColTool]),
			Gene:      cells[hit.ColGene],
			DrugClass: cells[hit.ColDrugClass],
			Identity:  hit.Absent(),
			Coverage:  hit.Absent(),
		}
		if v, ok := cells[hit.ColIdentity]; ok {
			h.Identity = hit.Text(v)
		}
		if v, ok := cells[hit.ColCoverage]; ok {
			h.Coverage = hit.Text(v)
		}
		hits = append(hits, h)
	}

	return hit.Table{Columns: cols, Hits: hits}, nil
}
