package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/amr-fusion/internal/hit"
)

func metrics(identity, coverage hit.Metric) hit.Hit {
	return hit.Hit{SampleID: "S1", Tool: "resfinder", Gene: "g", Identity: identity, Coverage: coverage}
}

func TestScore_RuleTable(t *testing.T) {
	s := Default()

	tests := []struct {
		name       string
		identity   hit.Metric
		coverage   hit.Metric
		score      float64
		confidence string
		rationale  string
	}{
		{"both top", hit.Number(99), hit.Number(98), 1.0, "high", "identity>=95; coverage>=90"},
		{"mid identity mid coverage", hit.Number(91), hit.Number(75), 0.65, "medium", "identity>=90; coverage>=70"},
		{"mid identity top coverage", hit.Number(92), hit.Number(95), 0.85, "high", "identity>=90; coverage>=90"},
		{"top identity mid coverage", hit.Number(96), hit.Number(80), 0.8, "medium", "identity>=95; coverage>=70"},
		{"low both", hit.Number(85), hit.Number(65), 0, "low", "identity<90; coverage<70"},
		{"boundaries", hit.Number(95), hit.Number(90), 1.0, "high", "identity>=95; coverage>=90"},
		{"lower boundaries", hit.Number(90), hit.Number(70), 0.65, "medium", "identity>=90; coverage>=70"},
		{"identity only", hit.Number(99), hit.Absent(), 0.5, "low", "identity>=95"},
		{"coverage only", hit.Absent(), hit.Number(72), 0.3, "low", "coverage>=70"},
		{"no metrics", hit.Absent(), hit.Absent(), 0, "low", InsufficientMetrics},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(metrics(tt.identity, tt.coverage))
			assert.InDelta(t, tt.score, got.ConfidenceScore, 1e-9)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, tt.rationale, got.Rationale)
		})
	}
}

func TestScore_BoundsAndLabels(t *testing.T) {
	s := Default()
	values := []hit.Metric{hit.Absent(), hit.Number(-5), hit.Number(0), hit.Number(69.9), hit.Number(70),
		hit.Number(89.99), hit.Number(90), hit.Number(94.9), hit.Number(95), hit.Number(100), hit.Number(120)}

	for _, id := range values {
		for _, cov := range values {
			got := s.Score(metrics(id, cov))
			require.GreaterOrEqual(t, got.ConfidenceScore, 0.0)
			require.LessOrEqual(t, got.ConfidenceScore, 1.0)
			switch {
			case got.ConfidenceScore >= 0.85:
				assert.Equal(t, hit.ConfidenceHigh, got.Confidence)
			case got.ConfidenceScore >= 0.6:
				assert.Equal(t, hit.ConfidenceMedium, got.Confidence)
			default:
				assert.Equal(t, hit.ConfidenceLow, got.Confidence)
			}
		}
	}
}

func TestScoreAll_PreservesHits(t *testing.T) {
	hits := []hit.Hit{
		metrics(hit.Number(99), hit.Number(98)),
		metrics(hit.Number(91), hit.Number(75)),
	}
	hits[1].Gene = "tetA"

	out := Default().ScoreAll(hits)
	require.Len(t, out, 2)
	assert.Equal(t, "tetA", out[1].Gene)
	assert.Equal(t, hits[0], out[0].Hit)
	assert.Empty(t, Default().ScoreAll(nil))
}

func TestScore_CustomRules(t *testing.T) {
	rules := DefaultRules()
	rules.Identity.Bands = []Band{{Min: 80, Points: 0.5, Reason: "identity>=80"}}
	rules.Identity.Below = "identity<80"

	got := New(rules).Score(metrics(hit.Number(85), hit.Absent()))
	assert.Equal(t, 0.5, got.ConfidenceScore)
	assert.Equal(t, "identity>=80", got.Rationale)
}
