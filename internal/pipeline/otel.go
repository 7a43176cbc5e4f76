package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "countydata.pipeline"

// stageTracer instruments pipeline stages with OpenTelemetry spans. The
// exporter wiring belongs to the caller; without a configured provider the
// spans are no-ops.
type stageTracer struct {
	tracer trace.Tracer
}

func newStageTracer() *stageTracer {
	return &stageTracer{tracer: otel.Tracer(tracerName)}
}

// startRun opens the root span for one integration run.
func (st *stageTracer) startRun(ctx context.Context, runID string, sources int) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.Int("pipeline.sources", sources),
		),
	)
}

// startStage opens a child span for one named stage.
func (st *stageTracer) startStage(ctx context.Context, runID, stage string) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "pipeline.stage."+stage,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.String("pipeline.stage", stage),
		),
	)
}

// endStage records the stage outcome and closes the span.
func endStage(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
