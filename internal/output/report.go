package output

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"

	"github.com/inodb/amr-fusion/internal/hit"
	"github.com/inodb/amr-fusion/internal/pipeline"
)

const topGeneCount = 10

// Counted is one label with its row count.
type Counted struct {
	Label string
	Count int
}

// ScoreStats summarizes per-hit confidence scores. Valid is false when
// there are no scored hits.
type ScoreStats struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Valid  bool
}

// ReportData is the summary shown in report.md and its renderings.
type ReportData struct {
	SampleID           string
	TotalHits          int
	UniqueGenes        int
	Disagreements      int
	ConfidenceCounts   []Counted
	TierCounts         []Counted
	TopGenes           []string
	Scores             ScoreStats
	Summary            []hit.GeneSummary
	ValidationMessages []string
}

// NewReportData computes report figures from a pipeline result.
func NewReportData(res *pipeline.Result) ReportData {
	d := ReportData{
		SampleID:           res.SampleID,
		TotalHits:          len(res.Scored),
		UniqueGenes:        len(res.Summary),
		Disagreements:      len(res.Disagreements),
		Summary:            res.Summary,
		ValidationMessages: res.Messages,
	}

	confidence := make(map[string]int)
	scores := make([]float64, 0, len(res.Scored))
	for _, s := range res.Scored {
		confidence[s.Confidence]++
		scores = append(scores, s.ConfidenceScore)
		if s.Gene != "" && len(d.TopGenes) < topGeneCount {
			d.TopGenes = append(d.TopGenes, s.Gene)
		}
	}
	d.ConfidenceCounts = countsInOrder(confidence, hit.ConfidenceHigh, hit.ConfidenceMedium, hit.ConfidenceLow)

	tiers := make(map[string]int)
	for _, g := range res.Summary {
		tiers[g.ConsensusTier]++
	}
	d.TierCounts = countsInOrder(tiers, hit.TierVeryHigh, hit.TierHigh, hit.TierModerate, hit.TierLow)

	d.Scores = scoreStats(scores)
	return d
}

func countsInOrder(counts map[string]int, order ...string) []Counted {
	var out []Counted
	for _, label := range order {
		if n := counts[label]; n > 0 {
			out = append(out, Counted{Label: label, Count: n})
		}
	}
	return out
}

func scoreStats(scores []float64) ScoreStats {
	data := stats.Float64Data(scores)
	mean, err := data.Mean()
	if err != nil {
		return ScoreStats{}
	}
	median, _ := data.Median()
	lo, _ := data.Min()
	hi, _ := data.Max()
	return ScoreStats{
		Mean:   hit.Round(mean, 3),
		Median: hit.Round(median, 3),
		Min:    lo,
		Max:    hi,
		Valid:  true,
	}
}

func formatCounts(counts []Counted) string {
	if len(counts) == 0 {
		return "none"
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s: %d", c.Label, c.Count)
	}
	return strings.Join(parts, ", ")
}

// Markdown renders the report as Markdown.
func (d ReportData) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# AMR Fusion Report - %s\n\n", d.SampleID)
	fmt.Fprintf(&b, "- Total tool-level hits: **%d**\n", d.TotalHits)
	fmt.Fprintf(&b, "- Unique genes: **%d**\n", d.UniqueGenes)
	fmt.Fprintf(&b, "- Confidence counts: **%s**\n", formatCounts(d.ConfidenceCounts))
	fmt.Fprintf(&b, "- Single-tool disagreement candidates: **%d**\n", d.Disagreements)
	fmt.Fprintf(&b, "- Consensus tiers: **%s**\n", formatCounts(d.TierCounts))
	top := "N/A"
	if len(d.TopGenes) > 0 {
		top = strings.Join(d.TopGenes, ", ")
	}
	fmt.Fprintf(&b, "- Top genes (first %d): %s\n", topGeneCount, top)
	if d.Scores.Valid {
		fmt.Fprintf(&b, "- Confidence score mean / median: **%s / %s** (range %s-%s)\n",
			formatFloat(d.Scores.Mean), formatFloat(d.Scores.Median),
			formatFloat(d.Scores.Min), formatFloat(d.Scores.Max))
	} else {
		b.WriteString("- Confidence score mean / median: N/A\n")
	}

	if len(d.Summary) > 0 {
		b.WriteString("\n## Gene consensus\n\n")
		b.WriteString("| Gene | Tools | Drug classes | Weighted score | Tier |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, g := range d.Summary {
			gene := g.Gene
			if gene == "" {
				gene = "(none)"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				gene, g.ToolsDetected, g.NormalizedDrugClasses,
				formatFloat(g.WeightedConsensusScore), g.ConsensusTier)
		}
	}

	b.WriteString("\n## Validation\n\n")
	if len(d.ValidationMessages) == 0 {
		b.WriteString("- No validation issues.\n")
	}
	for _, m := range d.ValidationMessages {
		fmt.Fprintf(&b, "- %s\n", m)
	}

	b.WriteString("\n## Notes\n\n")
	b.WriteString("- This is a baseline rule-based report.\n")
	fmt.Fprintf(&b, "- Review `%s.disagreements.csv` for single-tool detections.\n", d.SampleID)
	b.WriteString("- Use fused CSV/JSON for auditability.\n")
	return b.String()
}

var htmlPage = template.Must(template.New("report").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>AMR Fusion Report - {{.Title}}</title>
<style>
body{font-family:Arial,sans-serif;max-width:1000px;margin:40px auto;line-height:1.5;}
code{background:#f4f4f4;padding:2px 4px;border-radius:4px;}
table{border-collapse:collapse;}
th,td{border:1px solid #ccc;padding:4px 8px;text-align:left;}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders Markdown text into a standalone HTML page.
func HTML(title, md string) ([]byte, error) {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	body := markdown.ToHTML([]byte(md), p, r)

	var buf bytes.Buffer
	err := htmlPage.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(body)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
