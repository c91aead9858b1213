package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/amr-fusion/internal/hit"
	"github.com/inodb/amr-fusion/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	summary := sampleSummary()
	return &pipeline.Result{
		SampleID:      "S1",
		Scored:        sampleScored(),
		Summary:       summary,
		Disagreements: summary[1:],
		Messages:      []string{"WARN: 1 rows have empty gene values"},
	}
}

func TestNewReportData(t *testing.T) {
	d := NewReportData(sampleResult())

	assert.Equal(t, 2, d.TotalHits)
	assert.Equal(t, 2, d.UniqueGenes)
	assert.Equal(t, 1, d.Disagreements)
	assert.Equal(t, []Counted{{hit.ConfidenceHigh, 1}, {hit.ConfidenceLow, 1}}, d.ConfidenceCounts)
	assert.Equal(t, []Counted{{hit.TierVeryHigh, 1}, {hit.TierLow, 1}}, d.TierCounts)
	assert.Equal(t, []string{"blaTEM-1", "tetA"}, d.TopGenes)
	require.True(t, d.Scores.Valid)
	assert.Equal(t, 0.675, d.Scores.Mean)
	assert.Equal(t, 0.675, d.Scores.Median)
	assert.Equal(t, 0.35, d.Scores.Min)
	assert.Equal(t, 1.0, d.Scores.Max)
}

func TestMarkdown(t *testing.T) {
	md := NewReportData(sampleResult()).Markdown()

	assert.True(t, strings.HasPrefix(md, "# AMR Fusion Report - S1\n"))
	for _, want := range []string{
		"- Total tool-level hits: **2**",
		"- Unique genes: **2**",
		"- Confidence counts: **high: 1, low: 1**",
		"- Single-tool disagreement candidates: **1**",
		"- Consensus tiers: **very-high: 1, low: 1**",
		"- Top genes (first 10): blaTEM-1, tetA",
		"- Confidence score mean / median: **0.675 / 0.675** (range 0.35-1)",
		"| tetA | rgi | tetracycline | 0.333 | low |",
		"- WARN: 1 rows have empty gene values",
		"`S1.disagreements.csv`",
	} {
		assert.Contains(t, md, want)
	}
}

func TestMarkdown_Empty(t *testing.T) {
	md := NewReportData(&pipeline.Result{SampleID: "S0"}).Markdown()

	assert.Contains(t, md, "- Total tool-level hits: **0**")
	assert.Contains(t, md, "- Confidence counts: **none**")
	assert.Contains(t, md, "- Top genes (first 10): N/A")
	assert.Contains(t, md, "- Confidence score mean / median: N/A")
	assert.Contains(t, md, "- No validation issues.")
	assert.NotContains(t, md, "## Gene consensus")
}

func TestHTML(t *testing.T) {
	md := NewReportData(sampleResult()).Markdown()
	page, err := HTML("S1", md)
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "<title>AMR Fusion Report - S1</title>")
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<strong>2</strong>")
}
