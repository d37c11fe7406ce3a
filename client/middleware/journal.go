package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/absmach/flclient/pkg/storage"
)

var _ client.Service = (*journalMiddleware)(nil)

type journalMiddleware struct {
	clientID string
	repo     storage.RoundRepository
	logger   *slog.Logger
	svc      client.Service
}

// Journal appends a record of every successful fit and evaluate round to
// repo. A failed append is logged and does not fail the round.
func Journal(clientID string, repo storage.RoundRepository, logger *slog.Logger, svc client.Service) client.Service {
	return &journalMiddleware{
		clientID: clientID,
		repo:     repo,
		logger:   logger,
		svc:      svc,
	}
}

func (jm *journalMiddleware) Parameters(ctx context.Context) (model.WeightSet, error) {
	return jm.svc.Parameters(ctx)
}

func (jm *journalMiddleware) Fit(ctx context.Context, ins fl.FitIns) (fl.FitRes, error) {
	begin := time.Now()
	res, err := jm.svc.Fit(ctx, ins)
	if err != nil {
		return res, err
	}

	jm.append(ctx, fl.RoundRecord{
		ClientID:    jm.clientID,
		Round:       ins.Round,
		Kind:        fl.Fit,
		NumSamples:  res.NumSamples,
		Metrics:     res.Metrics,
		Duration:    time.Since(begin),
		CompletedAt: time.Now().UTC(),
	})

	return res, nil
}

func (jm *journalMiddleware) Evaluate(ctx context.Context, ins fl.EvaluateIns) (fl.EvaluateRes, error) {
	begin := time.Now()
	res, err := jm.svc.Evaluate(ctx, ins)
	if err != nil {
		return res, err
	}

	loss := res.Loss
	jm.append(ctx, fl.RoundRecord{
		ClientID:    jm.clientID,
		Round:       ins.Round,
		Kind:        fl.Evaluate,
		NumSamples:  res.NumSamples,
		Loss:        &loss,
		Metrics:     res.Metrics,
		Duration:    time.Since(begin),
		CompletedAt: time.Now().UTC(),
	})

	return res, nil
}

func (jm *journalMiddleware) append(ctx context.Context, rec fl.RoundRecord) {
	if err := jm.repo.Append(ctx, rec); err != nil {
		jm.logger.Warn("Failed to journal round",
			slog.Uint64("round", rec.Round),
			slog.String("kind", string(rec.Kind)),
			slog.Any("error", err),
		)
	}
}
