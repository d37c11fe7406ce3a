package mocks

import (
	"context"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/stretchr/testify/mock"
)

var _ client.Service = (*Service)(nil)

// Service is a mock implementation of the client.Service interface.
type Service struct {
	mock.Mock
}

func (m *Service) Parameters(ctx context.Context) (model.WeightSet, error) {
	args := m.Called(ctx)

	return args.Get(0).(model.WeightSet), args.Error(1)
}

func (m *Service) Fit(ctx context.Context, ins fl.FitIns) (fl.FitRes, error) {
	args := m.Called(ctx, ins)

	return args.Get(0).(fl.FitRes), args.Error(1)
}

func (m *Service) Evaluate(ctx context.Context, ins fl.EvaluateIns) (fl.EvaluateRes, error) {
	args := m.Called(ctx, ins)

	return args.Get(0).(fl.EvaluateRes), args.Error(1)
}
