package client

import (
	"context"
	"log/slog"

	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/pkg/fl"
)

// Service handles the rounds requested by the aggregation server.
type Service interface {
	Parameters(ctx context.Context) (model.WeightSet, error)
	Fit(ctx context.Context, ins fl.FitIns) (fl.FitRes, error)
	Evaluate(ctx context.Context, ins fl.EvaluateIns) (fl.EvaluateRes, error)
}

// Data holds the windowed training and test sets of one client.
type Data struct {
	XTrain [][]float64
	YTrain []float64
	XTest  [][]float64
	YTest  []float64
}

type service struct {
	model   model.Model
	data    Data
	fitCfg  model.FitConfig
	metrics *MetricsLog
	history func(uint64, model.History)
	logger  *slog.Logger
}

type Option func(*service)

// WithHistoryHook registers a function called with the training history
// after every fit round.
func WithHistoryHook(fn func(round uint64, h model.History)) Option {
	return func(s *service) {
		s.history = fn
	}
}

func NewService(m model.Model, data Data, fitCfg model.FitConfig, metrics *MetricsLog, logger *slog.Logger, opts ...Option) Service {
	svc := &service{
		model:   m,
		data:    data,
		fitCfg:  fitCfg,
		metrics: metrics,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

func (s *service) Parameters(_ context.Context) (model.WeightSet, error) {
	return s.model.Weights(), nil
}

func (s *service) Fit(ctx context.Context, ins fl.FitIns) (fl.FitRes, error) {
	if err := s.model.SetWeights(ins.Weights); err != nil {
		return fl.FitRes{}, err
	}

	h, err := s.model.Fit(ctx, s.data.XTrain, s.data.YTrain, s.fitCfg)
	if err != nil {
		return fl.FitRes{}, err
	}

	for _, e := range h.Epochs {
		args := []any{
			slog.Uint64("round", ins.Round),
			slog.Int("epoch", e.Epoch),
			slog.Float64("loss", e.Loss),
			slog.Float64("mape", e.MAPE),
		}
		if e.ValLoss != nil {
			args = append(args, slog.Float64("val_loss", *e.ValLoss), slog.Float64("val_mape", *e.ValMAPE))
		}
		s.logger.Debug("epoch completed", args...)
	}
	if s.history != nil {
		s.history(ins.Round, h)
	}

	return fl.FitRes{
		Weights:    s.model.Weights(),
		NumSamples: len(s.data.XTrain),
		Metrics:    map[string]float64{},
	}, nil
}

func (s *service) Evaluate(ctx context.Context, ins fl.EvaluateIns) (fl.EvaluateRes, error) {
	if err := s.model.SetWeights(ins.Weights); err != nil {
		return fl.EvaluateRes{}, err
	}

	ev, err := s.model.Evaluate(ctx, s.data.XTest, s.data.YTest)
	if err != nil {
		return fl.EvaluateRes{}, err
	}
	s.metrics.Record(ins.Round, ev.Loss, ev.MAPE)

	return fl.EvaluateRes{
		Loss:       ev.Loss,
		NumSamples: len(s.data.XTest),
		Metrics:    map[string]float64{fl.MAPEKey: ev.MAPE},
	}, nil
}
