package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/ObservaLosRios/sii-empresas-etl/internal/catalog"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/config"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/logging"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/metrics"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/storage"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/tables"
)

// Pipeline orchestrates extract, transform, validate and load over one run.
// A Pipeline is single-use per Run invocation; construct once, run many
// times with fresh metadata per run.
type Pipeline struct {
	cfg       config.Config
	extractor Extractor
	store     storage.Store
	writer    catalog.Writer
	log       *slog.Logger
}

// RunOptions tune a single invocation.
type RunOptions struct {
	// InputFile overrides the configured raw path.
	InputFile string
	// Validate toggles the validation stage.
	Validate bool
	// SaveIntermediates writes the raw and transformed snapshots plus the
	// quality report under the processed path.
	SaveIntermediates bool
}

// RunResult is the outcome of one pipeline invocation.
type RunResult struct {
	Metadata    *RunMetadata
	Report      *QualityReport
	LoadResults map[string]bool
	Rows        int
	Columns     int
	Duration    time.Duration
}

// New constructs a pipeline from configuration. The storage backend and
// catalog are opened once and shared across runs.
func New(cfg config.Config) (*Pipeline, error) {
	extractor, err := NewExtractor(SourceCSV, ExtractorOptions{
		Encoding:  cfg.Data.Encoding,
		Delimiter: cfg.Data.Delimiter,
	})
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(storage.Config{
		Backend:   cfg.Storage.Backend,
		LocalDir:  cfg.Storage.LocalDir,
		BucketURL: cfg.Storage.BucketURL,
		Prefix:    cfg.Storage.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	writer, err := catalog.NewWriter(catalog.Config{PostgresDSN: cfg.Catalog.PostgresDSN})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		store:     store,
		writer:    writer,
		log:       logging.Component("pipeline"),
	}, nil
}

// Close releases the storage backend and the catalog connection.
func (p *Pipeline) Close() error {
	p.writer.Close()
	return p.store.Close()
}

// Run executes the full pipeline. Extract and transform failures are fatal;
// validation findings and partial load failures degrade the terminal status
// instead.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	meta := NewRunMetadata()
	log := logging.RunLogger(meta.ProcessID)
	m := metrics.Init()

	source := opts.InputFile
	if source == "" {
		source = p.cfg.Data.RawPath
	}
	meta.Source = source
	log.Info("pipeline starting", "source", source)

	p.recordRun(ctx, meta)

	raw, err := p.runExtract(ctx, meta, source)
	if err != nil {
		return p.fail(ctx, meta, err)
	}
	if opts.SaveIntermediates {
		p.saveTableSnapshot(ctx, log, raw, "01_raw_data.csv")
	}

	processed, err := p.runTransform(meta, raw)
	if err != nil {
		return p.fail(ctx, meta, err)
	}
	m.RowsDropped.Add(float64(len(raw.Rows) - len(processed.Rows)))
	if opts.SaveIntermediates {
		p.saveTableSnapshot(ctx, log, processed, "02_transformed_data.csv")
	}

	var report *QualityReport
	if opts.Validate {
		report = p.runValidation(processed)
		for i, issue := range report.Issues {
			if i == 5 {
				log.Warn("further validation issues omitted", "total", len(report.Issues))
				break
			}
			log.Warn("validation issue", "issue", issue)
		}
		if opts.SaveIntermediates {
			p.saveQualityReport(ctx, log, report)
		}
	}

	dests := p.cfg.Destinations
	if len(dests) == 0 {
		dests = p.defaultDestinations(meta.StartTime)
	}

	loadStart := time.Now()
	results, err := NewLoader(p.store, meta).LoadAll(ctx, processed, dests)
	if err != nil {
		return p.fail(ctx, meta, err)
	}
	m.StageDuration.WithLabelValues("load").Observe(time.Since(loadStart).Seconds())

	meta.Finish(terminalStatus(results, report, meta))
	p.recordRun(ctx, meta)
	if report != nil {
		p.recordQuality(ctx, meta, report)
	}

	log.Info("pipeline finished",
		"status", meta.Status,
		"rows", len(processed.Rows),
		"columns", len(processed.Columns),
		"duration", meta.Duration(),
	)

	return &RunResult{
		Metadata:    meta,
		Report:      report,
		LoadResults: results,
		Rows:        len(processed.Rows),
		Columns:     len(processed.Columns),
		Duration:    meta.Duration(),
	}, nil
}

// RunExtract runs only the extraction stage.
func (p *Pipeline) RunExtract(ctx context.Context, source string) (*tables.Table, error) {
	if source == "" {
		source = p.cfg.Data.RawPath
	}
	return p.extractor.Extract(ctx, source)
}

// RunTransform runs only the transformation chain over the given table.
func (p *Pipeline) RunTransform(t *tables.Table) (*tables.Table, error) {
	chain := StandardChain(p.cfg.Data.DecimalSeparator, p.cfg.Data.ThousandsSeparator)
	return chain.Run(t)
}

// RunValidation runs only the validation chain over the given table.
func (p *Pipeline) RunValidation(t *tables.Table) *QualityReport {
	return p.runValidation(t)
}

func (p *Pipeline) runExtract(ctx context.Context, meta *RunMetadata, source string) (*tables.Table, error) {
	start := time.Now()
	t, err := p.extractor.Extract(ctx, source)
	if err != nil {
		meta.AppendError(fmt.Sprintf("extract: %v", err))
		return nil, fmt.Errorf("extract: %w", err)
	}
	meta.RecordsExtracted = len(t.Rows)

	m := metrics.Get()
	m.RecordsExtracted.Add(float64(len(t.Rows)))
	m.StageDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	logging.StageLogger(meta.ProcessID, "extract").Info("stage complete",
		"rows", len(t.Rows), "duration", time.Since(start))
	return t, nil
}

func (p *Pipeline) runTransform(meta *RunMetadata, t *tables.Table) (*tables.Table, error) {
	start := time.Now()
	chain := StandardChain(p.cfg.Data.DecimalSeparator, p.cfg.Data.ThousandsSeparator).WithMetadata(meta)
	out, err := chain.Run(t)
	if err != nil {
		return nil, err
	}

	m := metrics.Get()
	m.RecordsProcessed.Add(float64(len(out.Rows)))
	m.StageDuration.WithLabelValues("transform").Observe(time.Since(start).Seconds())
	logging.StageLogger(meta.ProcessID, "transform").Info("stage complete",
		"rows", len(out.Rows), "duration", time.Since(start))
	return out, nil
}

func (p *Pipeline) runValidation(t *tables.Table) *QualityReport {
	start := time.Now()
	chain := NewValidationChain(StandardValidators(
		p.cfg.Validation.MaxNullRatio,
		p.cfg.Validation.MinYear,
		p.cfg.Validation.MaxYear,
	)...)
	report := chain.Run(t)
	if m := metrics.Get(); m != nil {
		m.StageDuration.WithLabelValues("validate").Observe(time.Since(start).Seconds())
	}
	return report
}

// defaultDestinations derives the csv and parquet targets under the
// processed path when none are configured.
func (p *Pipeline) defaultDestinations(start time.Time) []config.Destination {
	base := fmt.Sprintf("sii_empresas_processed_%s", start.Format("20060102_150405"))
	return []config.Destination{
		{Name: "csv", Format: "csv", Path: path.Join(p.cfg.Data.ProcessedPath, base+".csv")},
		{Name: "parquet", Format: "parquet", Path: path.Join(p.cfg.Data.ProcessedPath, base+".parquet")},
	}
}

// terminalStatus aggregates load results and validation findings. All loads
// succeeding with issues downgrades to completed with warnings; some loads
// succeeding means partially completed; none succeeding fails the run.
func terminalStatus(results map[string]bool, report *QualityReport, meta *RunMetadata) Status {
	ok := 0
	for _, succeeded := range results {
		if succeeded {
			ok++
		}
	}
	switch {
	case ok == len(results):
		if report != nil && len(report.Issues) > 0 {
			return StatusCompletedWithWarnings
		}
		return StatusCompleted
	case ok > 0:
		return StatusPartiallyCompleted
	default:
		meta.AppendError("all load destinations failed")
		return StatusFailed
	}
}

// fail finishes the run as failed and records it. The original error is
// returned to the caller.
func (p *Pipeline) fail(ctx context.Context, meta *RunMetadata, err error) (*RunResult, error) {
	meta.Finish(StatusFailed)
	p.recordRun(ctx, meta)
	p.log.Error("pipeline failed", "process_id", meta.ProcessID, "error", err)
	return &RunResult{Metadata: meta, Duration: meta.Duration()}, err
}

// saveTableSnapshot writes an intermediate csv under the processed path.
// Snapshot failures are warnings; they never affect the run outcome.
func (p *Pipeline) saveTableSnapshot(ctx context.Context, log *slog.Logger, t *tables.Table, name string) {
	data, err := encodeCSV(t, config.Destination{Format: "csv", Delimiter: p.cfg.Data.Delimiter})
	if err != nil {
		log.Warn("snapshot encode failed", "name", name, "error", err)
		return
	}
	key := path.Join(p.cfg.Data.ProcessedPath, name)
	if err := p.store.Write(ctx, key, data); err != nil {
		log.Warn("snapshot write failed", "name", name, "error", err)
	}
}

// saveQualityReport writes the validation report as JSON under the
// processed path.
func (p *Pipeline) saveQualityReport(ctx context.Context, log *slog.Logger, report *QualityReport) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Warn("quality report encode failed", "error", err)
		return
	}
	key := path.Join(p.cfg.Data.ProcessedPath, "quality_report.json")
	if err := p.store.Write(ctx, key, data); err != nil {
		log.Warn("quality report write failed", "error", err)
	}
}

// recordRun persists the run state to the catalog, best effort.
func (p *Pipeline) recordRun(ctx context.Context, meta *RunMetadata) {
	rec := catalog.RunRecord{
		ProcessID:        meta.ProcessID,
		SourcePath:       meta.Source,
		Status:           string(meta.Status),
		RecordsProcessed: meta.RecordsProcessed,
		RecordsFailed:    meta.RecordsFailed,
		Errors:           meta.Errors,
		StartedAt:        meta.StartTime,
		FinishedAt:       meta.EndTime,
	}
	if err := p.writer.RecordRun(ctx, rec); err != nil {
		p.log.Warn("catalog run record failed", "process_id", meta.ProcessID, "error", err)
	}
}

// recordQuality persists the quality report to the catalog, best effort.
func (p *Pipeline) recordQuality(ctx context.Context, meta *RunMetadata, report *QualityReport) {
	rec := catalog.QualityRecord{
		ProcessID:        meta.ProcessID,
		TotalRecords:     report.TotalRecords,
		ValidRecords:     report.ValidRecords,
		InvalidRecords:   report.InvalidRecords,
		NullPercentage:   report.NullPercentage,
		DuplicateRecords: report.DuplicateRecords,
		QualityScore:     report.QualityScore,
		Issues:           report.Issues,
	}
	if err := p.writer.RecordQuality(ctx, rec); err != nil {
		p.log.Warn("catalog quality record failed", "process_id", meta.ProcessID, "error", err)
	}
}
