// Package pipeline runs the evidence fusion stages for one sample:
// canonicalize, filter, harmonize drug classes, validate, score, aggregate
// and select disagreements.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/amr-fusion/internal/fusion"
	"github.com/inodb/amr-fusion/internal/hit"
	"github.com/inodb/amr-fusion/internal/ontology"
	"github.com/inodb/amr-fusion/internal/parser"
	"github.com/inodb/amr-fusion/internal/quality"
	"github.com/inodb/amr-fusion/internal/score"
	"github.com/inodb/amr-fusion/internal/validate"
)

// ErrNoInputs is returned when a run has no tool reports.
var ErrNoInputs = errors.New("no tool reports provided")

// ValidationError is returned when validation produced at least one error.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(validate.Errors(e.Messages), "; ")
}

// Input is one tool report to fuse.
type Input struct {
	Tool string
	Path string
}

// Options configures a run.
type Options struct {
	SampleID string
	Inputs   []Input
	Filter   quality.Options
	Strict   bool
}

// Result holds every table a run produces.
type Result struct {
	SampleID      string
	Canonical     hit.Table         // concatenated canonical hits before filtering
	Hits          []hit.Hit         // filtered hits with normalized drug class
	Scored        []hit.Scored      // per-hit confidence
	Summary       []hit.GeneSummary // one row per (sample, gene)
	Disagreements []hit.GeneSummary // genes seen by one tool
	Messages      []string          // validation messages
}

// Pipeline holds the stage configuration.
type Pipeline struct {
	normalizer *ontology.Normalizer
	scorer     *score.Scorer
	aggregator *fusion.Aggregator
	logger     *zap.Logger
}

// New creates a pipeline from explicit stage configurations.
func New(n *ontology.Normalizer, s *score.Scorer, a *fusion.Aggregator) *Pipeline {
	return &Pipeline{
		normalizer: n,
		scorer:     s,
		aggregator: a,
		logger:     zap.NewNop(),
	}
}

// Default creates a pipeline with the built-in synonym, scoring and weight tables.
func Default() *Pipeline {
	return New(ontology.Default(), score.Default(), fusion.Default())
}

// SetLogger sets the logger for stage progress messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Run parses every input report and fuses the hits. On a validation
// failure both the partial result (through validation) and a
// *ValidationError are returned.
func (p *Pipeline) Run(opts Options) (*Result, error) {
	if len(opts.Inputs) == 0 {
		return nil, ErrNoInputs
	}

	tables := make([]hit.Table, 0, len(opts.Inputs))
	for _, in := range opts.Inputs {
		t, err := parser.ParseFile(in.Path, in.Tool, opts.SampleID)
		if err != nil {
			return nil, fmt.Errorf("parse %s report: %w", in.Tool, err)
		}
		p.logger.Info("parsed tool report",
			zap.String("tool", in.Tool),
			zap.String("path", in.Path),
			zap.Int("hits", t.Len()))
		tables = append(tables, t)
	}

	return p.Fuse(opts.SampleID, hit.Concat(tables...), opts.Filter, opts.Strict)
}

// Fuse runs every stage after canonicalization on t.
func (p *Pipeline) Fuse(sampleID string, t hit.Table, filter quality.Options, strict bool) (*Result, error) {
	res := &Result{SampleID: sampleID, Canonical: t}

	filtered := quality.Normalize(t, filter)
	p.logger.Debug("quality filter applied",
		zap.Int("in", t.Len()),
		zap.Int("out", len(filtered)),
		zap.Float64("min_identity", filter.MinIdentity),
		zap.Float64("min_coverage", filter.MinCoverage),
		zap.Bool("deduplicate", filter.Deduplicate))

	res.Hits = p.normalizer.Harmonize(filtered)

	res.Messages = validate.Validate(hit.Table{Columns: t.Columns, Hits: res.Hits}, strict)
	for _, m := range res.Messages {
		p.logger.Warn("validation", zap.String("message", m))
	}
	if validate.HasErrors(res.Messages) {
		return res, &ValidationError{Messages: res.Messages}
	}

	res.Scored = p.scorer.ScoreAll(res.Hits)
	res.Summary = p.aggregator.Aggregate(res.Scored)
	res.Disagreements = fusion.SelectDisagreements(res.Summary)

	p.logger.Info("fusion complete",
		zap.String("sample_id", sampleID),
		zap.Int("hits", len(res.Scored)),
		zap.Int("genes", len(res.Summary)),
		zap.Int("disagreements", len(res.Disagreements)))

	return res, nil
}
