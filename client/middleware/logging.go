package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/pkg/fl"
)

var _ client.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    client.Service
}

func Logging(logger *slog.Logger, svc client.Service) client.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Parameters(ctx context.Context) (ws model.WeightSet, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("num_tensors", len(ws)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get parameters failed", args...)

			return
		}
		lm.logger.Info("Get parameters completed successfully", args...)
	}(time.Now())

	return lm.svc.Parameters(ctx)
}

func (lm *loggingMiddleware) Fit(ctx context.Context, ins fl.FitIns) (res fl.FitRes, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Uint64("number", ins.Round),
				slog.Int("num_samples", res.NumSamples),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Fit failed", args...)

			return
		}
		lm.logger.Info("Fit completed successfully", args...)
	}(time.Now())

	return lm.svc.Fit(ctx, ins)
}

func (lm *loggingMiddleware) Evaluate(ctx context.Context, ins fl.EvaluateIns) (res fl.EvaluateRes, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Uint64("number", ins.Round),
				slog.Int("num_samples", res.NumSamples),
				slog.Float64("loss", res.Loss),
				slog.Float64("mape", res.Metrics[fl.MAPEKey]),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Evaluate failed", args...)

			return
		}
		lm.logger.Info("Evaluate completed successfully", args...)
	}(time.Now())

	return lm.svc.Evaluate(ctx, ins)
}
