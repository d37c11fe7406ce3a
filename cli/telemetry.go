package cli

import (
	"context"
	"fmt"
	"time"

	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	svcName      = "flclient"
	batchTimeout = 5 * time.Second
)

type shutdownFunc func(ctx context.Context) error

// newTracerProvider returns a no-op provider when otelURL is empty.
func newTracerProvider(ctx context.Context, otelURL, instanceID string, ratio float64) (trace.TracerProvider, shutdownFunc, error) {
	if otelURL == "" {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(svcName),
			semconv.ServiceInstanceIDKey.String(instanceID),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(otelURL))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, tp.Shutdown, nil
}

type roundMetrics struct {
	counter  *kitprometheus.Counter
	latency  *kitprometheus.Summary
	lastLoss *kitprometheus.Gauge
	lastMAPE *kitprometheus.Gauge
	peakCPU  *kitprometheus.Gauge
	peakRSS  *kitprometheus.Gauge
}

func makeMetrics(namespace, subsystem string) roundMetrics {
	return roundMetrics{
		counter: kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "round_count",
			Help:      "Number of rounds handled.",
		}, []string{"method"}),
		latency: kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "round_latency_seconds",
			Help:      "Total duration of rounds in seconds.",
		}, []string{"method"}),
		lastLoss: kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_evaluation_loss",
			Help:      "Loss of the most recent evaluation round.",
		}, []string{}),
		lastMAPE: kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_evaluation_mape",
			Help:      "MAPE of the most recent evaluation round.",
		}, []string{}),
		peakCPU: kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "peak_cpu_percent",
			Help:      "Peak process CPU usage during the last round.",
		}, []string{"method"}),
		peakRSS: kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "peak_rss_bytes",
			Help:      "Peak resident memory during the last round.",
		}, []string{"method"}),
	}
}
