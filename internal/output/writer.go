package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inodb/amr-fusion/internal/duckdb"
	"github.com/inodb/amr-fusion/internal/pipeline"
)

// Options selects where and what the Writer produces.
type Options struct {
	Outdir   string
	SampleID string
	PDF      bool
	XLSX     bool
	DuckDB   bool
}

// Writer writes every artifact of one run into Outdir, naming each
// {sample_id}.<artifact>, and keeps the list for the manifest.
type Writer struct {
	opts       Options
	logger     *zap.Logger
	files      []string
	pdfWritten bool
	now        func() time.Time
}

// NewWriter creates a writer for one sample.
func NewWriter(opts Options) *Writer {
	return &Writer{
		opts:   opts,
		logger: zap.NewNop(),
		now:    time.Now,
	}
}

// SetLogger sets the logger for written-file messages.
func (w *Writer) SetLogger(l *zap.Logger) {
	w.logger = l
}

// Path returns the output path of an artifact such as "amr_fused.csv".
func (w *Writer) Path(artifact string) string {
	return filepath.Join(w.opts.Outdir, w.opts.SampleID+"."+artifact)
}

// Record adds files written by other components to the manifest list.
func (w *Writer) Record(paths ...string) {
	for _, p := range paths {
		w.files = append(w.files, filepath.Base(p))
	}
}

// Files returns the names written so far, in write order.
func (w *Writer) Files() []string {
	return w.files
}

func (w *Writer) create(artifact string, write func(io.Writer) error) error {
	path := w.Path(artifact)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	w.Record(path)
	w.logger.Debug("wrote output", zap.String("path", path))
	return nil
}

func (w *Writer) writeBytes(artifact string, data []byte) error {
	return w.create(artifact, func(out io.Writer) error {
		_, err := out.Write(data)
		return err
	})
}

func orEmpty[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

// WriteResult writes the fused tables, the reports and any optional
// exports enabled in Options.
func (w *Writer) WriteResult(res *pipeline.Result, inputs []duckdb.FileFingerprint) error {
	if err := os.MkdirAll(w.opts.Outdir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	scored := orEmpty(res.Scored)
	summary := orEmpty(res.Summary)
	disagreements := orEmpty(res.Disagreements)

	steps := []struct {
		artifact string
		write    func(io.Writer) error
	}{
		{"amr_fused.csv", func(out io.Writer) error { return WriteScoredCSV(out, scored) }},
		{"amr_fused.json", func(out io.Writer) error { return WriteJSON(out, scored) }},
		{"gene_summary.csv", func(out io.Writer) error { return WriteSummaryCSV(out, summary) }},
		{"gene_summary.json", func(out io.Writer) error { return WriteJSON(out, summary) }},
		{"disagreements.csv", func(out io.Writer) error { return WriteSummaryCSV(out, disagreements) }},
	}
	for _, s := range steps {
		if err := w.create(s.artifact, s.write); err != nil {
			return err
		}
	}

	md := NewReportData(res).Markdown()
	if err := w.writeBytes("report.md", []byte(md)); err != nil {
		return err
	}
	page, err := HTML(w.opts.SampleID, md)
	if err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	if err := w.writeBytes("report.html", page); err != nil {
		return err
	}

	if w.opts.PDF {
		path := w.Path("report.pdf")
		if err := WritePDF(path, md); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		w.pdfWritten = true
		w.Record(path)
	}

	if w.opts.XLSX {
		path := w.Path("evidence.xlsx")
		if err := WriteWorkbook(path, scored, summary, disagreements); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		w.Record(path)
	}

	if w.opts.DuckDB {
		path := w.Path("evidence.duckdb")
		if err := exportDuckDB(path, duckdb.Evidence{
			SampleID:      w.opts.SampleID,
			Inputs:        inputs,
			Scored:        scored,
			Summary:       summary,
			Disagreements: disagreements,
		}); err != nil {
			return fmt.Errorf("export %s: %w", path, err)
		}
		w.Record(path)
	}

	w.logger.Info("outputs written",
		zap.String("outdir", w.opts.Outdir),
		zap.Int("files", len(w.files)))
	return nil
}

func exportDuckDB(path string, ev duckdb.Evidence) error {
	store, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	if err := store.Export(ev); err != nil {
		store.Close()
		return err
	}
	return store.Close()
}

// WriteManifest writes {sample_id}.run_manifest.json listing every file
// recorded so far.
func (w *Writer) WriteManifest(meta RunMeta) (*Manifest, error) {
	if meta.Inputs == nil {
		meta.Inputs = []duckdb.FileFingerprint{}
	}
	meta.ValidationMessages = orEmpty(meta.ValidationMessages)

	m := &Manifest{
		RunID:          uuid.NewString(),
		SampleID:       w.opts.SampleID,
		GeneratedAtUTC: w.now().UTC().Format(time.RFC3339),
		OutputFiles:    append([]string{}, w.files...),
		RunMeta:        meta,
		PDFExport:      PDFSkipped,
	}
	if w.pdfWritten {
		m.PDFExport = PDFEnabled
	}

	if err := os.MkdirAll(w.opts.Outdir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := w.create("run_manifest.json", func(out io.Writer) error { return WriteJSON(out, m) }); err != nil {
		return nil, err
	}
	return m, nil
}
