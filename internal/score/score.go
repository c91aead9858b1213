// Package score assigns rule-based confidence to individual AMR hits.
package score

import (
	"strings"

	"github.com/inodb/amr-fusion/internal/hit"
)

// InsufficientMetrics is the rationale for hits with neither identity nor coverage.
const InsufficientMetrics = "insufficient metrics"

// Band awards points to metric values at or above Min.
type Band struct {
	Min    float64
	Points float64
	Reason string
}

// MetricRule scores one metric. Bands are checked in order, so they must be
// sorted by descending Min. Values below every band score nothing and
// record Below.
type MetricRule struct {
	Bands []Band
	Below string
}

// Rules is the complete scoring table.
type Rules struct {
	Identity MetricRule
	Coverage MetricRule

	HighAt   float64 // score >= HighAt is high confidence
	MediumAt float64 // score >= MediumAt is medium confidence
}

// DefaultRules returns the standard identity/coverage table.
func DefaultRules() Rules {
	return Rules{
		Identity: MetricRule{
			Bands: []Band{
				{Min: 95, Points: 0.5, Reason: "identity>=95"},
				{Min: 90, Points: 0.35, Reason: "identity>=90"},
			},
			Below: "identity<90",
		},
		Coverage: MetricRule{
			Bands: []Band{
				{Min: 90, Points: 0.5, Reason: "coverage>=90"},
				{Min: 70, Points: 0.3, Reason: "coverage>=70"},
			},
			Below: "coverage<70",
		},
		HighAt:   0.85,
		MediumAt: 0.6,
	}
}

// Scorer applies a rule table to hits.
type Scorer struct {
	rules Rules
}

// New creates a scorer for the given rules.
func New(rules Rules) *Scorer {
	return &Scorer{rules: rules}
}

// Default creates a scorer over DefaultRules.
func Default() *Scorer {
	return New(DefaultRules())
}

// Score computes the confidence of a single hit. Absent metrics contribute
// neither points nor a reason.
func (s *Scorer) Score(h hit.Hit) hit.Scored {
	var total float64
	var reasons []string

	for _, m := range []struct {
		metric hit.Metric
		rule   MetricRule
	}{
		{h.Identity, s.rules.Identity},
		{h.Coverage, s.rules.Coverage},
	} {
		v, ok := m.metric.Float()
		if !ok {
			continue
		}
		points, reason := m.rule.apply(v)
		total += points
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	score := hit.Round(total, 3)
	rationale := InsufficientMetrics
	if len(reasons) > 0 {
		rationale = strings.Join(reasons, "; ")
	}

	return hit.Scored{
		Hit:             h,
		ConfidenceScore: score,
		Confidence:      s.Label(score),
		Rationale:       rationale,
	}
}

// ScoreAll scores every hit, preserving order.
func (s *Scorer) ScoreAll(hits []hit.Hit) []hit.Scored {
	out := make([]hit.Scored, len(hits))
	for i, h := range hits {
		out[i] = s.Score(h)
	}
	return out
}

// Label maps a score to its confidence label.
func (s *Scorer) Label(score float64) string {
	switch {
	case score >= s.rules.HighAt:
		return hit.ConfidenceHigh
	case score >= s.rules.MediumAt:
		return hit.ConfidenceMedium
	}
	return hit.ConfidenceLow
}

func (r MetricRule) apply(v float64) (float64, string) {
	for _, b := range r.Bands {
		if v >= b.Min {
			return b.Points, b.Reason
		}
	}
	return 0, r.Below
}
