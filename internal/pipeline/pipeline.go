// Package pipeline orchestrates the integration run: parse the fact and
// reference tables, normalize county names, resolve FIPS keys, adapt and
// align each enrichment source, merge, label, and validate.
//
// Data flows strictly downstream and each run is a pure transform from
// immutable input tables to an integrated table plus an issue list. The
// per-source adaptation fan-out is order-independent and runs concurrently;
// integration itself stays sequential so the left-row-count invariant holds
// under sequential left joins. Recoverable problems (unmatched names,
// unavailable sources, missing year labels) become notes on the result;
// only structural problems with required inputs abort the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"countydata/internal/adapter"
	"countydata/internal/config"
	"countydata/internal/integrator"
	"countydata/internal/normalizer"
	"countydata/internal/quality"
	"countydata/internal/resolver"
	"countydata/internal/temporal"
	"countydata/pkg/contracts/domain"
)

// Source is one enrichment input: an external table plus the variables to
// pull from it. Shape detection and year alignment are automatic.
type Source struct {
	Table     domain.Table
	Variables []adapter.VariableSpec
}

// Inputs are the caller-supplied tables for one run. The core never opens
// files; the report and persistence layers own serialization.
type Inputs struct {
	Elections domain.Table
	Reference domain.Table
	Sources   []Source
}

// Result is the run output: the best-effort integrated table, the quality
// issue list (empty means every check passed), the recoverable processing
// notes, and the audit reports from normalization and key resolution.
type Result struct {
	RunID         string                    `json:"run_id"`
	Records       []domain.IntegratedRecord `json:"records"`
	Issues        []domain.QualityIssue     `json:"issues"`
	Notes         []domain.Note             `json:"notes,omitempty"`
	Normalization normalizer.Report         `json:"normalization"`
	Resolution    resolver.Report           `json:"resolution"`
}

// Pipeline wires the stages together for repeated runs under one
// configuration.
type Pipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	tracer     *stageTracer
	normalizer *normalizer.Normalizer
	adapter    *adapter.Adapter
	aligner    *temporal.Aligner
	integrator *integrator.Integrator
	validator  *quality.Validator
}

// New creates a Pipeline from the run configuration.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		tracer:     newStageTracer(),
		normalizer: normalizer.New(cfg.Aliases, logger),
		adapter:    adapter.New(cfg.Geography.Geography(), logger),
		aligner:    temporal.New(cfg.Years.YearMap(), logger),
		integrator: integrator.New(logger),
		validator:  quality.New(cfg.Quality.Thresholds(), logger),
	}
}

// Run executes one integration run. A completed run always yields a
// best-effort integrated table; the issue list is the sole indicator of data
// trustworthiness.
func (p *Pipeline) Run(ctx context.Context, inputs Inputs) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := time.Now()

	ctx, runSpan := p.tracer.startRun(ctx, runID, len(inputs.Sources))
	defer runSpan.End()

	logger.InfoContext(ctx, "starting integration run",
		"election_rows", len(inputs.Elections.Rows),
		"reference_rows", len(inputs.Reference.Rows),
		"sources", len(inputs.Sources),
	)

	result := &Result{RunID: runID}
	sources := inputs.Sources

	// Parse. Structural problems with the fact or reference table are fatal.
	_, span := p.tracer.startStage(ctx, runID, "parse")
	records, err := parseElections(inputs.Elections, p.cfg.Columns)
	if err != nil {
		endStage(span, err)
		logger.ErrorContext(ctx, "run aborted on unusable input", "error", err)
		return nil, fmt.Errorf("parse elections: %w", err)
	}
	reference, err := parseReference(inputs.Reference, p.cfg.Columns)
	if err != nil {
		endStage(span, err)
		logger.ErrorContext(ctx, "run aborted on unusable input", "error", err)
		return nil, fmt.Errorf("parse reference: %w", err)
	}
	endStage(span, nil, attribute.Int("rows", len(records)))

	// Normalize county names.
	_, span = p.tracer.startStage(ctx, runID, "normalize")
	result.Normalization = p.normalizer.NormalizeRecords(records)
	endStage(span, nil, attribute.Int("rows_changed", result.Normalization.RowsChanged))

	// Resolve FIPS keys. Unmatched rows keep a nil key and flow on.
	_, span = p.tracer.startStage(ctx, runID, "resolve")
	result.Resolution = resolver.New(reference, logger).ResolveRecords(records)
	endStage(span, nil, attribute.Int("unmatched_rows", result.Resolution.UnmatchedRows))
	for _, name := range result.Resolution.UnmatchedNames {
		result.Notes = append(result.Notes, domain.Note{
			Stage:   "resolve",
			Message: fmt.Sprintf("county %q not found in reference set", name),
		})
	}

	// Adapt every source. Each source is independent, so the fan-out runs
	// concurrently and is folded back in declared order.
	adaptCtx, span := p.tracer.startStage(ctx, runID, "adapt")
	extractions := make([][]adapter.Extraction, len(sources))
	g, gctx := errgroup.WithContext(adaptCtx)
	for i := range sources {
		i := i
		g.Go(func() error {
			src := sources[i]
			exts := make([]adapter.Extraction, 0, len(src.Variables))
			for _, spec := range src.Variables {
				exts = append(exts, p.adapter.Extract(gctx, src.Table, spec))
			}
			extractions[i] = exts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		endStage(span, err)
		return nil, fmt.Errorf("adapt sources: %w", err)
	}
	endStage(span, nil, attribute.Int("sources", len(sources)))

	// Align and merge sequentially in declared order.
	_, span = p.tracer.startStage(ctx, runID, "integrate")
	integrated := make([]domain.IntegratedRecord, 0, len(records))
	for _, r := range records {
		integrated = append(integrated, domain.NewIntegratedRecord(r))
	}
	for _, exts := range extractions {
		for _, ext := range exts {
			if !ext.Available() {
				result.Notes = append(result.Notes, domain.Note{Stage: "adapt", Message: ext.Note})
				continue
			}
			var table integrator.EnrichmentTable
			if ext.Shape == adapter.ShapeWide {
				series, notes := p.aligner.Align(ext)
				for _, n := range notes {
					result.Notes = append(result.Notes, domain.Note{Stage: "align", Message: n})
				}
				table = integrator.FromSeries(ext.Source, series, p.cfg.Years.ElectionYears)
			} else {
				table = integrator.FromSnapshot(ext)
			}
			integrated = p.integrator.Merge(integrated, table)
		}
	}
	p.integrator.ApplyCodeLabels(integrated, p.cfg.RuralUrban.Lookup())
	endStage(span, nil,
		attribute.Int("rows", len(integrated)),
		attribute.Int("variables", len(domain.VariableColumns(integrated))),
	)

	// Validate. Issues are data; the caller decides whether they are
	// acceptable.
	validateCtx, span := p.tracer.startStage(ctx, runID, "validate")
	result.Records, result.Issues = p.validator.Validate(validateCtx, integrated)
	endStage(span, nil, attribute.Int("issues", len(result.Issues)))

	logger.InfoContext(ctx, "integration run complete",
		"rows", len(result.Records),
		"variables", domain.VariableColumns(result.Records),
		"issues", len(result.Issues),
		"notes", len(result.Notes),
		"duration", time.Since(start),
	)

	return result, nil
}
