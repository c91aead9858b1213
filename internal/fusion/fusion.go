// Package fusion aggregates scored hits into gene-level multi-tool consensus.
package fusion

import (
	"sort"
	"strings"

	"github.com/inodb/amr-fusion/internal/hit"
)

// DefaultWeight is the reliability prior for tools missing from the table.
const DefaultWeight = 0.85

// Weights holds per-tool reliability priors keyed by lower-case tool name.
type Weights struct {
	ByTool  map[string]float64
	Default float64
}

// DefaultWeights returns the built-in reliability priors.
func DefaultWeights() Weights {
	return Weights{
		ByTool: map[string]float64{
			hit.ToolAMRFinder: 1.00,
			hit.ToolRGI:       0.95,
			hit.ToolResFinder: 0.92,
		},
		Default: DefaultWeight,
	}
}

// For returns the weight of a tool.
func (w Weights) For(tool string) float64 {
	if v, ok := w.ByTool[strings.ToLower(strings.TrimSpace(tool))]; ok {
		return v
	}
	return w.Default
}

// Tier is a lower bound on the weighted consensus score.
type Tier struct {
	Min  float64
	Name string
}

// DefaultTiers returns consensus tiers in descending order.
func DefaultTiers() []Tier {
	return []Tier{
		{Min: 0.90, Name: hit.TierVeryHigh},
		{Min: 0.75, Name: hit.TierHigh},
		{Min: 0.55, Name: hit.TierModerate},
	}
}

// Aggregator builds gene summaries from scored hits.
type Aggregator struct {
	weights Weights
	tiers   []Tier
}

// New creates an aggregator. tiers must be sorted by descending Min; scores
// below every tier are "low".
func New(weights Weights, tiers []Tier) *Aggregator {
	return &Aggregator{weights: weights, tiers: tiers}
}

// Default creates an aggregator with the built-in weights and tiers.
func Default() *Aggregator {
	return New(DefaultWeights(), DefaultTiers())
}

// TierFor maps a weighted consensus score to its tier name.
func (a *Aggregator) TierFor(score float64) string {
	for _, t := range a.tiers {
		if score >= t.Min {
			return t.Name
		}
	}
	return hit.TierLow
}

type geneKey struct {
	sampleID, gene string
}

type group struct {
	key      geneKey
	tools    map[string]bool
	classes  map[string]bool
	identity hit.Metric
	coverage hit.Metric
	maxScore float64
	weighted float64
	rows     int
}

// Aggregate groups hits by (sample, gene) and computes consensus for each
// gene. Hits with an empty gene form their own group. The weighted consensus
// score is the maximum, not the mean, of confidence*reliability over the
// group's hits. Rows are ordered by sample then gene, with the empty gene
// last.
func (a *Aggregator) Aggregate(scored []hit.Scored) []hit.GeneSummary {
	groups := make(map[geneKey]*group)
	for _, s := range scored {
		k := geneKey{s.SampleID, s.Gene}
		g, ok := groups[k]
		if !ok {
			g = &group{key: k, tools: make(map[string]bool), classes: make(map[string]bool)}
			groups[k] = g
		}

		g.tools[s.Tool] = true
		if s.DrugClassNormalized != "" {
			g.classes[s.DrugClassNormalized] = true
		}
		g.identity = hit.Max(g.identity, s.Identity)
		g.coverage = hit.Max(g.coverage, s.Coverage)

		w := s.ConfidenceScore * a.weights.For(s.Tool)
		if g.rows == 0 || s.ConfidenceScore > g.maxScore {
			g.maxScore = s.ConfidenceScore
		}
		if g.rows == 0 || w > g.weighted {
			g.weighted = w
		}
		g.rows++
	}

	keys := make([]geneKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].sampleID != keys[j].sampleID {
			return keys[i].sampleID < keys[j].sampleID
		}
		if (keys[i].gene == "") != (keys[j].gene == "") {
			return keys[j].gene == ""
		}
		return keys[i].gene < keys[j].gene
	})

	out := make([]hit.GeneSummary, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		weighted := hit.Round(g.weighted, 3)
		level := hit.ConsensusSingleTool
		if len(g.tools) >= 2 {
			level = hit.ConsensusMultiTool
		}
		out = append(out, hit.GeneSummary{
			SampleID:               k.sampleID,
			Gene:                   k.gene,
			ToolsDetected:          joinSorted(g.tools),
			ToolCount:              len(g.tools),
			NormalizedDrugClasses:  joinSorted(g.classes),
			BestIdentity:           g.identity,
			BestCoverage:           g.coverage,
			MaxConfidenceScore:     g.maxScore,
			WeightedConsensusScore: weighted,
			ConsensusLevel:         level,
			ConsensusTier:          a.TierFor(weighted),
		})
	}
	return out
}

// SelectDisagreements returns the genes detected by exactly one tool, in
// input order.
func SelectDisagreements(summary []hit.GeneSummary) []hit.GeneSummary {
	out := make([]hit.GeneSummary, 0)
	for _, g := range summary {
		if g.IsDisagreement() {
			out = append(out, g)
		}
	}
	return out
}

func joinSorted(set map[string]bool) string {
	vals := make([]string, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return strings.Join(vals, ",")
}
