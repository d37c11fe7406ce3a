package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/absmach/flclient/pkg/monitoring"
	"github.com/go-kit/kit/metrics"
)

var _ client.Service = (*resourcesMiddleware)(nil)

type resourcesMiddleware struct {
	sampler  monitoring.Sampler
	interval time.Duration
	cpu      metrics.Gauge
	rss      metrics.Gauge
	logger   *slog.Logger
	svc      client.Service
}

// Resources samples process CPU and memory while a fit or evaluate round
// runs and reports the peaks per method.
func Resources(sampler monitoring.Sampler, interval time.Duration, cpu, rss metrics.Gauge, logger *slog.Logger, svc client.Service) client.Service {
	return &resourcesMiddleware{
		sampler:  sampler,
		interval: interval,
		cpu:      cpu,
		rss:      rss,
		logger:   logger,
		svc:      svc,
	}
}

func (rm *resourcesMiddleware) Parameters(ctx context.Context) (model.WeightSet, error) {
	return rm.svc.Parameters(ctx)
}

func (rm *resourcesMiddleware) Fit(ctx context.Context, ins fl.FitIns) (fl.FitRes, error) {
	stop := monitoring.Track(ctx, rm.sampler, rm.interval)
	defer func() { rm.report("fit", ins.Round, stop()) }()

	return rm.svc.Fit(ctx, ins)
}

func (rm *resourcesMiddleware) Evaluate(ctx context.Context, ins fl.EvaluateIns) (fl.EvaluateRes, error) {
	stop := monitoring.Track(ctx, rm.sampler, rm.interval)
	defer func() { rm.report("evaluate", ins.Round, stop()) }()

	return rm.svc.Evaluate(ctx, ins)
}

func (rm *resourcesMiddleware) report(method string, round uint64, sum monitoring.Summary) {
	if sum.Samples == 0 {
		return
	}
	rm.cpu.With("method", method).Set(sum.MaxCPUPercent)
	rm.rss.With("method", method).Set(float64(sum.MaxRSSBytes))

	rm.logger.Debug("Round resource usage",
		slog.String("method", method),
		slog.Uint64("round", round),
		slog.Int("samples", sum.Samples),
		slog.Float64("max_cpu_percent", sum.MaxCPUPercent),
		slog.Uint64("max_rss_bytes", sum.MaxRSSBytes),
	)
}
