// Package aisummary asks a language model for a narrative interpretation of
// fused AMR evidence and writes it next to the report.
package aisummary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/inodb/amr-fusion/internal/hit"
)

// RequiredKeys must all be present in the model's JSON answer.
var RequiredKeys = []string{
	"executive_summary",
	"high_priority_genes",
	"disagreement_notes",
	"recommended_review_actions",
	"limitations",
}

// Payload sizes sent to the model.
const (
	MaxSummaryRows = 25
	MaxHitRows     = 40
)

const systemPrompt = "You are an AMR interpretation assistant for microbiology/public-health workflows. " +
	"Be concise, evidence-aware, and cautious. Never invent genes or metrics. " +
	"Return ONLY valid JSON matching the requested schema."

var userPromptTmpl = template.Must(template.New("summary").Parse(`Analyze the following AMR fused evidence and produce a professional summary.
Return STRICT JSON with exactly these keys:
{
  "executive_summary": string,
  "high_priority_genes": [string],
  "disagreement_notes": [string],
  "recommended_review_actions": [string],
  "limitations": [string]
}

DATA:
{{.}}`))

// Summary is the parsed model answer.
type Summary struct {
	ExecutiveSummary         string   `json:"executive_summary"`
	HighPriorityGenes        []string `json:"high_priority_genes"`
	DisagreementNotes        []string `json:"disagreement_notes"`
	RecommendedReviewActions []string `json:"recommended_review_actions"`
	Limitations              []string `json:"limitations"`
}

// Totals are the headline counts in the payload.
type Totals struct {
	ToolLevelHits          int `json:"tool_level_hits"`
	UniqueGenes            int `json:"unique_genes"`
	DisagreementCandidates int `json:"disagreement_candidates"`
}

// Payload is the evidence the model sees.
type Payload struct {
	SampleID       string            `json:"sample_id"`
	Totals         Totals            `json:"totals"`
	TopGeneSummary []hit.GeneSummary `json:"top_gene_summary"`
	TopScoredHits  []hit.Scored      `json:"top_scored_hits"`
}

// NewPayload builds the payload from the fused tables, truncating the gene
// summary and scored hits to their first MaxSummaryRows and MaxHitRows rows.
func NewPayload(sampleID string, scored []hit.Scored, summary, disagreements []hit.GeneSummary) Payload {
	return Payload{
		SampleID: sampleID,
		Totals: Totals{
			ToolLevelHits:          len(scored),
			UniqueGenes:            len(summary),
			DisagreementCandidates: len(disagreements),
		},
		TopGeneSummary: head(summary, MaxSummaryRows),
		TopScoredHits:  head(scored, MaxHitRows),
	}
}

func head[T any](rows []T, n int) []T {
	if rows == nil {
		return []T{}
	}
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

// ResponseError reports a model answer that is not usable.
type ResponseError struct {
	Missing []string
	Err     error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("AI response was not valid JSON: %v", e.Err)
	}
	return fmt.Sprintf("AI response missing keys: %s", strings.Join(e.Missing, ", "))
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// Parse decodes the model's text into a Summary. The text must be a JSON
// object carrying every key in RequiredKeys.
func Parse(content string) (Summary, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &fields); err != nil {
		return Summary{}, &ResponseError{Err: err}
	}

	var missing []string
	for _, k := range RequiredKeys {
		if _, ok := fields[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Summary{}, &ResponseError{Missing: missing}
	}

	var s Summary
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return Summary{}, &ResponseError{Err: err}
	}
	return s, nil
}

func renderUserPrompt(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}
	var buf bytes.Buffer
	if err := userPromptTmpl.Execute(&buf, string(data)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Generate sends the payload to the backend and parses the answer.
func Generate(ctx context.Context, b Backend, p Payload) (Summary, error) {
	prompt, err := renderUserPrompt(p)
	if err != nil {
		return Summary{}, fmt.Errorf("rendering prompt: %w", err)
	}

	content, err := b.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return Summary{}, err
	}
	return Parse(content)
}

// Write stores the summary as {sample}.ai_summary.json and
// {sample}.ai_summary.md in outdir and returns the two paths.
func Write(outdir, sampleID string, s Summary) ([]string, error) {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	jsonPath := filepath.Join(outdir, sampleID+".ai_summary.json")
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", jsonPath, err)
	}

	mdPath := filepath.Join(outdir, sampleID+".ai_summary.md")
	if err := os.WriteFile(mdPath, []byte(Markdown(sampleID, s)), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", mdPath, err)
	}

	return []string{jsonPath, mdPath}, nil
}

// Markdown renders the summary as a Markdown document. Empty sections get
// a "- None" bullet.
func Markdown(sampleID string, s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# AI Summary - %s\n\n## Executive summary\n%s\n\n", sampleID, s.ExecutiveSummary)

	for _, sec := range []struct {
		title string
		items []string
	}{
		{"High priority genes", s.HighPriorityGenes},
		{"Disagreement notes", s.DisagreementNotes},
		{"Recommended review actions", s.RecommendedReviewActions},
		{"Limitations", s.Limitations},
	} {
		fmt.Fprintf(&b, "## %s\n", sec.title)
		if len(sec.items) == 0 {
			b.WriteString("- None\n")
		}
		for _, item := range sec.items {
			fmt.Fprintf(&b, "- %s\n", item)
		}
		b.WriteString("\n")
	}
	return b.String()
}
