package middleware

import (
	"context"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/pkg/fl"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ client.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    client.Service
}

func Tracing(tracer trace.Tracer, svc client.Service) client.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Parameters(ctx context.Context) (model.WeightSet, error) {
	ctx, span := tm.tracer.Start(ctx, "get-parameters")
	defer span.End()

	ws, err := tm.svc.Parameters(ctx)
	recordError(span, err)

	return ws, err
}

func (tm *tracing) Fit(ctx context.Context, ins fl.FitIns) (fl.FitRes, error) {
	ctx, span := tm.tracer.Start(ctx, "fit", trace.WithAttributes(
		attribute.Int64("round", int64(ins.Round)),
		attribute.Int("num_tensors", len(ins.Weights)),
	))
	defer span.End()

	res, err := tm.svc.Fit(ctx, ins)
	span.SetAttributes(attribute.Int("num_samples", res.NumSamples))
	recordError(span, err)

	return res, err
}

func (tm *tracing) Evaluate(ctx context.Context, ins fl.EvaluateIns) (fl.EvaluateRes, error) {
	ctx, span := tm.tracer.Start(ctx, "evaluate", trace.WithAttributes(
		attribute.Int64("round", int64(ins.Round)),
	))
	defer span.End()

	res, err := tm.svc.Evaluate(ctx, ins)
	span.SetAttributes(
		attribute.Int("num_samples", res.NumSamples),
		attribute.Float64("loss", res.Loss),
	)
	recordError(span, err)

	return res, err
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
