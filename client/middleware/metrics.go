package middleware

import (
	"context"
	"time"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/go-kit/kit/metrics"
)

var _ client.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter  metrics.Counter
	latency  metrics.Histogram
	lastLoss metrics.Gauge
	lastMAPE metrics.Gauge
	svc      client.Service
}

// Metrics counts rounds and their latency per method. The gauges track the
// loss and MAPE of the most recent successful evaluation.
func Metrics(counter metrics.Counter, latency metrics.Histogram, lastLoss, lastMAPE metrics.Gauge, svc client.Service) client.Service {
	return &metricsMiddleware{
		counter:  counter,
		latency:  latency,
		lastLoss: lastLoss,
		lastMAPE: lastMAPE,
		svc:      svc,
	}
}

func (mm *metricsMiddleware) Parameters(ctx context.Context) (model.WeightSet, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-parameters").Add(1)
		mm.latency.With("method", "get-parameters").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Parameters(ctx)
}

func (mm *metricsMiddleware) Fit(ctx context.Context, ins fl.FitIns) (fl.FitRes, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "fit").Add(1)
		mm.latency.With("method", "fit").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Fit(ctx, ins)
}

func (mm *metricsMiddleware) Evaluate(ctx context.Context, ins fl.EvaluateIns) (fl.EvaluateRes, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "evaluate").Add(1)
		mm.latency.With("method", "evaluate").Observe(time.Since(begin).Seconds())
	}(time.Now())

	res, err := mm.svc.Evaluate(ctx, ins)
	if err != nil {
		return res, err
	}
	mm.lastLoss.Set(res.Loss)
	mm.lastMAPE.Set(res.Metrics[fl.MAPEKey])

	return res, nil
}
