// Package config loads and writes the YAML run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/amr-fusion/internal/pipeline"
	"github.com/inodb/amr-fusion/internal/quality"
)

var (
	// ErrMissingKeys is returned when a run config lacks a required key.
	ErrMissingKeys = errors.New("missing required config keys")
	// ErrExists is returned by WriteDefault when the target file exists.
	ErrExists = errors.New("config file already exists")
)

// RequiredKeys must be present in every run config file.
var RequiredKeys = []string{"sample_id", "outdir"}

// RunConfig is everything one `run` needs.
type RunConfig struct {
	SampleID   string          `mapstructure:"sample_id" yaml:"sample_id"`
	Outdir     string          `mapstructure:"outdir" yaml:"outdir"`
	Inputs     Inputs          `mapstructure:"inputs" yaml:"inputs"`
	Filters    quality.Options `mapstructure:"filters" yaml:"filters"`
	Validation Validation      `mapstructure:"validation" yaml:"validation"`
	Report     Report          `mapstructure:"report" yaml:"report"`
	AI         AI              `mapstructure:"ai" yaml:"ai"`
}

// Inputs holds one report path per supported tool. Empty means not provided.
type Inputs struct {
	ResFinder string `mapstructure:"resfinder" yaml:"resfinder"`
	AMRFinder string `mapstructure:"amrfinder" yaml:"amrfinder"`
	RGI       string `mapstructure:"rgi" yaml:"rgi"`
}

// Validation configures the validator.
type Validation struct {
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// Report selects the optional report artifacts.
type Report struct {
	PDF    bool `mapstructure:"pdf" yaml:"pdf"`
	XLSX   bool `mapstructure:"xlsx" yaml:"xlsx"`
	DuckDB bool `mapstructure:"duckdb" yaml:"duckdb"`
}

// AI configures the optional narrative summary.
type AI struct {
	Enable         bool   `mapstructure:"enable" yaml:"enable"`
	Provider       string `mapstructure:"provider" yaml:"provider"`
	Model          string `mapstructure:"model" yaml:"model"`
	APIBase        string `mapstructure:"api_base" yaml:"api_base"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// Default returns the built-in run configuration.
func Default() RunConfig {
	return RunConfig{
		Outdir:  "outputs",
		Filters: quality.DefaultOptions(),
		AI: AI{
			Provider:       "openai_compatible",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
	}
}

func setDefaults(v *viper.Viper, d RunConfig) {
	v.SetDefault("sample_id", d.SampleID)
	v.SetDefault("outdir", d.Outdir)
	v.SetDefault("inputs.resfinder", d.Inputs.ResFinder)
	v.SetDefault("inputs.amrfinder", d.Inputs.AMRFinder)
	v.SetDefault("inputs.rgi", d.Inputs.RGI)
	v.SetDefault("filters.min_identity", d.Filters.MinIdentity)
	v.SetDefault("filters.min_coverage", d.Filters.MinCoverage)
	v.SetDefault("filters.deduplicate", d.Filters.Deduplicate)
	v.SetDefault("validation.strict", d.Validation.Strict)
	v.SetDefault("report.pdf", d.Report.PDF)
	v.SetDefault("report.xlsx", d.Report.XLSX)
	v.SetDefault("report.duckdb", d.Report.DuckDB)
	v.SetDefault("ai.enable", d.AI.Enable)
	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.api_base", d.AI.APIBase)
	v.SetDefault("ai.api_key", d.AI.APIKey)
	v.SetDefault("ai.timeout_seconds", d.AI.TimeoutSeconds)
}

// Load reads a YAML run config. Keys absent from the file take their
// defaults, except sample_id and outdir which must be set.
func Load(path string) (RunConfig, error) {
	return LoadOver(path, Default())
}

// LoadOver is Load with keys absent from the file taken from base.
func LoadOver(path string, base RunConfig) (RunConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return RunConfig{}, fmt.Errorf("config file not found: %s", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v, base)

	if err := v.ReadInConfig(); err != nil {
		return RunConfig{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var missing []string
	for _, k := range RequiredKeys {
		if !v.InConfig(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return RunConfig{}, fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteDefault writes a starter config to path. An existing file is only
// replaced when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrExists, path)
	}

	cfg := Default()
	cfg.SampleID = "SAMPLE_001"
	cfg.Outdir = filepath.ToSlash(filepath.Join("outputs", cfg.SampleID))
	cfg.Inputs = Inputs{
		ResFinder: "data/resfinder.tsv",
		AMRFinder: "data/amrfinder.tsv",
		RGI:       "data/rgi.txt",
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	return os.WriteFile(path, out, 0644)
}

// PipelineInputs returns the configured reports in tool order
// resfinder, amrfinder, rgi.
func (c RunConfig) PipelineInputs() []pipeline.Input {
	var inputs []pipeline.Input
	for _, in := range []pipeline.Input{
		{Tool: "resfinder", Path: c.Inputs.ResFinder},
		{Tool: "amrfinder", Path: c.Inputs.AMRFinder},
		{Tool: "rgi", Path: c.Inputs.RGI},
	} {
		if in.Path != "" {
			inputs = append(inputs, in)
		}
	}
	return inputs
}

// PipelineOptions converts the config into pipeline options.
func (c RunConfig) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		SampleID: c.SampleID,
		Inputs:   c.PipelineInputs(),
		Filter:   c.Filters,
		Strict:   c.Validation.Strict,
	}
}
