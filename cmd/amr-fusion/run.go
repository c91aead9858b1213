package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/amr-fusion/internal/aisummary"
	"github.com/inodb/amr-fusion/internal/config"
	"github.com/inodb/amr-fusion/internal/duckdb"
	"github.com/inodb/amr-fusion/internal/httputil"
	"github.com/inodb/amr-fusion/internal/output"
	"github.com/inodb/amr-fusion/internal/pipeline"
)

func newRunCmd(logger func() *zap.Logger) *cobra.Command {
	var (
		configPath string
		envFile    string
		f          = config.Default()
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fuse tool reports for one sample and write the report",
		Long: `Parse the given ResFinder, AMRFinder and RGI reports, filter and harmonize
the hits, score them, build gene-level consensus and write tables, reports and
a run manifest to the output directory.

Settings are layered: built-in defaults, then ~/.amr-fusion.yaml, then the
--config file, then flags.`,
		Example: `  amr-fusion run --sample-id S1 --resfinder resfinder.tsv --amrfinder amrfinder.tsv
  amr-fusion run --config run.yaml --pdf --xlsx
  amr-fusion run --sample-id S1 --rgi rgi.txt --ai-enable --ai-provider ollama --ai-model llama3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			cfg := config.Default()
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("decoding user defaults: %w", err)
			}
			if configPath != "" {
				var err error
				if cfg, err = config.LoadOver(configPath, cfg); err != nil {
					return err
				}
			}
			overlayFlags(cmd.Flags().Changed, &cfg, f)

			return runFusion(cmd.Context(), cfg, logger(), cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&configPath, "config", "", "YAML run configuration (see init-config)")
	fl.StringVar(&envFile, "env-file", ".env", "Dotenv file with provider API keys; existing environment wins")
	fl.StringVar(&f.SampleID, "sample-id", "", "Sample identifier")
	fl.StringVar(&f.Outdir, "outdir", f.Outdir, "Output directory")
	fl.StringVar(&f.Inputs.ResFinder, "resfinder", "", "ResFinder report (tsv/csv)")
	fl.StringVar(&f.Inputs.AMRFinder, "amrfinder", "", "AMRFinderPlus report (tsv/csv)")
	fl.StringVar(&f.Inputs.RGI, "rgi", "", "RGI report (txt/tsv)")
	fl.Float64Var(&f.Filters.MinIdentity, "min-identity", 0, "Drop hits with identity below this percentage")
	fl.Float64Var(&f.Filters.MinCoverage, "min-coverage", 0, "Drop hits with coverage below this percentage")
	fl.BoolVar(&f.Filters.Deduplicate, "deduplicate", f.Filters.Deduplicate, "Drop exact duplicate hits")
	fl.BoolVar(&f.Validation.Strict, "strict-validation", false, "Treat validation warnings as failures")
	fl.BoolVar(&f.Report.PDF, "pdf", false, "Also write report.pdf")
	fl.BoolVar(&f.Report.XLSX, "xlsx", false, "Also write evidence.xlsx")
	fl.BoolVar(&f.Report.DuckDB, "duckdb", false, "Also write evidence.duckdb")
	fl.BoolVar(&f.AI.Enable, "ai-enable", false, "Generate an AI interpretation summary")
	fl.StringVar(&f.AI.Provider, "ai-provider", f.AI.Provider, "AI provider: openai_compatible, anthropic, ollama")
	fl.StringVar(&f.AI.Model, "ai-model", f.AI.Model, "Model name for the AI summary")
	fl.StringVar(&f.AI.APIBase, "ai-api-base", "", "API base URL (default from provider environment)")
	fl.StringVar(&f.AI.APIKey, "ai-api-key", "", "API key (default from OPENAI_API_KEY or ANTHROPIC_API_KEY)")
	fl.IntVar(&f.AI.TimeoutSeconds, "ai-timeout", f.AI.TimeoutSeconds, "AI request timeout in seconds")

	return cmd
}

// loadEnvFile loads provider credentials from a dotenv file without
// overriding variables already set. A missing default file is ignored.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// overlayFlags copies every flag the user set from src into dst.
func overlayFlags(changed func(string) bool, dst *config.RunConfig, src config.RunConfig) {
	for name, apply := range map[string]func(){
		"sample-id":         func() { dst.SampleID = src.SampleID },
		"outdir":            func() { dst.Outdir = src.Outdir },
		"resfinder":         func() { dst.Inputs.ResFinder = src.Inputs.ResFinder },
		"amrfinder":         func() { dst.Inputs.AMRFinder = src.Inputs.AMRFinder },
		"rgi":               func() { dst.Inputs.RGI = src.Inputs.RGI },
		"min-identity":      func() { dst.Filters.MinIdentity = src.Filters.MinIdentity },
		"min-coverage":      func() { dst.Filters.MinCoverage = src.Filters.MinCoverage },
		"deduplicate":       func() { dst.Filters.Deduplicate = src.Filters.Deduplicate },
		"strict-validation": func() { dst.Validation.Strict = src.Validation.Strict },
		"pdf":               func() { dst.Report.PDF = src.Report.PDF },
		"xlsx":              func() { dst.Report.XLSX = src.Report.XLSX },
		"duckdb":            func() { dst.Report.DuckDB = src.Report.DuckDB },
		"ai-enable":         func() { dst.AI.Enable = src.AI.Enable },
		"ai-provider":       func() { dst.AI.Provider = src.AI.Provider },
		"ai-model":          func() { dst.AI.Model = src.AI.Model },
		"ai-api-base":       func() { dst.AI.APIBase = src.AI.APIBase },
		"ai-api-key":        func() { dst.AI.APIKey = src.AI.APIKey },
		"ai-timeout":        func() { dst.AI.TimeoutSeconds = src.AI.TimeoutSeconds },
	} {
		if changed(name) {
			apply()
		}
	}
}

func runFusion(ctx context.Context, cfg config.RunConfig, logger *zap.Logger, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.SampleID == "" {
		return usagef("sample id is required (--sample-id or sample_id in --config)")
	}
	if cfg.Outdir == "" {
		return usagef("output directory is required (--outdir)")
	}
	opts := cfg.PipelineOptions()
	if len(opts.Inputs) == 0 {
		return usagef("provide at least one input: --resfinder, --amrfinder or --rgi")
	}

	styles := newStatusStyles(stdout)
	p := pipeline.Default()
	p.SetLogger(logger)
	httputil.SetLogger(logger)

	res, err := p.Run(opts)
	if err != nil {
		var verr *pipeline.ValidationError
		if errors.As(err, &verr) {
			for _, m := range verr.Messages {
				fmt.Fprintln(stdout, styles.warning.Render(m))
			}
		}
		return err
	}

	var inputs []duckdb.FileFingerprint
	for _, in := range opts.Inputs {
		fp, err := duckdb.StatFile(in.Tool, in.Path)
		if err != nil {
			return fmt.Errorf("stat %s report: %w", in.Tool, err)
		}
		inputs = append(inputs, fp)
	}

	w := output.NewWriter(output.Options{
		Outdir:   cfg.Outdir,
		SampleID: cfg.SampleID,
		PDF:      cfg.Report.PDF,
		XLSX:     cfg.Report.XLSX,
		DuckDB:   cfg.Report.DuckDB,
	})
	w.SetLogger(logger)
	if err := w.WriteResult(res, inputs); err != nil {
		return err
	}

	meta := output.RunMeta{
		Version:            version,
		Inputs:             inputs,
		Filters:            cfg.Filters,
		StrictValidation:   cfg.Validation.Strict,
		ValidationMessages: res.Messages,
	}

	var aiErr error
	if cfg.AI.Enable {
		meta.AIProvider, meta.AIModel = cfg.AI.Provider, cfg.AI.Model
		summary, paths, err := generateSummary(ctx, cfg, res)
		if err != nil {
			aiErr = fmt.Errorf("ai summary: %w", err)
			logger.Error("AI summary failed", zap.Error(err))
		} else {
			w.Record(paths...)
			fmt.Fprintln(stdout, styles.success.Render("AI summary generated"))
			fmt.Fprintln(stdout, summary.ExecutiveSummary)
		}
	}

	if _, err := w.WriteManifest(meta); err != nil {
		return err
	}
	if aiErr != nil {
		return aiErr
	}

	fmt.Fprintf(stdout, "%s -> outputs written to %s\n", styles.success.Render("Done"), cfg.Outdir)
	return nil
}

func generateSummary(ctx context.Context, cfg config.RunConfig, res *pipeline.Result) (aisummary.Summary, []string, error) {
	timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	backend, err := aisummary.New(aisummary.Options{
		Provider: cfg.AI.Provider,
		Model:    cfg.AI.Model,
		APIBase:  cfg.AI.APIBase,
		APIKey:   cfg.AI.APIKey,
		Timeout:  timeout,
	})
	if err != nil {
		return aisummary.Summary{}, nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	payload := aisummary.NewPayload(cfg.SampleID, res.Scored, res.Summary, res.Disagreements)
	summary, err := aisummary.Generate(ctx, backend, payload)
	if err != nil {
		return aisummary.Summary{}, nil, err
	}

	paths, err := aisummary.Write(cfg.Outdir, cfg.SampleID, summary)
	if err != nil {
		return aisummary.Summary{}, nil, err
	}
	return summary, paths, nil
}
