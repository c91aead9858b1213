// Package hit defines the evidence records passed between fusion stages.
package hit

// Canonical column names.
const (
	ColSampleID  = "sample_id"
	ColTool      = "tool"
	ColGene      = "gene"
	ColDrugClass = "drug_class"
	ColIdentity  = "identity"
	ColCoverage  = "coverage"
)

// Supported detection tools.
const (
	ToolResFinder = "resfinder"
	ToolAMRFinder = "amrfinder"
	ToolRGI       = "rgi"
)

// Per-hit confidence labels.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Gene-level consensus levels.
const (
	ConsensusSingleTool = "single-tool"
	ConsensusMultiTool  = "multi-tool"
)

// Gene-level consensus tiers.
const (
	TierLow      = "low"
	TierModerate = "moderate"
	TierHigh     = "high"
	TierVeryHigh = "very-high"
)

// CanonicalColumns is the full canonical schema in output order.
var CanonicalColumns = []string{ColSampleID, ColTool, ColGene, ColDrugClass, ColIdentity, ColCoverage}

// DomainColumns are the columns a tool mapping can supply.
var DomainColumns = []string{ColGene, ColDrugClass, ColIdentity, ColCoverage}

// ScoredColumns is the column order of fused (scored) hit tables.
var ScoredColumns = []string{
	ColSampleID, ColTool, ColGene, ColDrugClass, ColIdentity, ColCoverage,
	"drug_class_normalized", "confidence_score", "confidence", "rationale",
}

// SummaryColumns is the column order of gene summary tables.
var SummaryColumns = []string{
	"sample_id", "gene", "tools_detected", "tool_count", "normalized_drug_classes",
	"best_identity", "best_coverage", "max_confidence_score",
	"weighted_consensus_score", "consensus_level", "consensus_tier",
}

// Hit is one gene detection reported by one tool for one sample.
type Hit struct {
	SampleID            string `json:"sample_id"`
	Tool                string `json:"tool"`
	Gene                string `json:"gene"`       // empty when the tool reported none
	DrugClass           string `json:"drug_class"` // empty when absent
	Identity            Metric `json:"identity"`
	Coverage            Metric `json:"coverage"`
	DrugClassNormalized string `json:"drug_class_normalized"`
}

// Table is an ordered set of hits together with the columns its producer
// actually supplied.
type Table struct {
	Columns []string
	Hits    []Hit
}

// NewTable returns a table carrying the full canonical schema.
func NewTable(hits []Hit) Table {
	cols := make([]string, len(CanonicalColumns))
	copy(cols, CanonicalColumns)
	if hits == nil {
		hits = []Hit{}
	}
	return Table{Columns: cols, Hits: hits}
}

// HasColumn reports whether the table schema includes col.
func (t Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Len returns the number of hits.
func (t Table) Len() int {
	return len(t.Hits)
}

// Concat joins tables in order. The result schema is the union of the input
// schemas in canonical order.
func Concat(tables ...Table) Table {
	seen := make(map[string]bool)
	var hits []Hit
	for _, t := range tables {
		for _, c := range t.Columns {
			seen[c] = true
		}
		hits = append(hits, t.Hits...)
	}
	var cols []string
	for _, c := range CanonicalColumns {
		if seen[c] {
			cols = append(cols, c)
		}
	}
	if hits == nil {
		hits = []Hit{}
	}
	return Table{Columns: cols, Hits: hits}
}

// Scored is a hit with its rule-based confidence.
type Scored struct {
	Hit
	ConfidenceScore float64 `json:"confidence_score"`
	Confidence      string  `json:"confidence"`
	Rationale       string  `json:"rationale"`
}

// GeneSummary is the fused evidence for one (sample, gene) pair.
type GeneSummary struct {
	SampleID               string  `json:"sample_id"`
	Gene                   string  `json:"gene"`
	ToolsDetected          string  `json:"tools_detected"`
	ToolCount              int     `json:"tool_count"`
	NormalizedDrugClasses  string  `json:"normalized_drug_classes"`
	BestIdentity           Metric  `json:"best_identity"`
	BestCoverage           Metric  `json:"best_coverage"`
	MaxConfidenceScore     float64 `json:"max_confidence_score"`
	WeightedConsensusScore float64 `json:"weighted_consensus_score"`
	ConsensusLevel         string  `json:"consensus_level"`
	ConsensusTier          string  `json:"consensus_tier"`
}

// IsDisagreement reports whether only one tool detected the gene.
func (g GeneSummary) IsDisagreement() bool {
	return g.ToolCount == 1
}
