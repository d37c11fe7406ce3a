package mocks

import (
	"context"

	"github.com/absmach/flclient/model"
	"github.com/stretchr/testify/mock"
)

var _ model.Model = (*Model)(nil)

// Model is a mock implementation of the model.Model interface.
type Model struct {
	mock.Mock
}

func (m *Model) Weights() model.WeightSet {
	args := m.Called()

	return args.Get(0).(model.WeightSet)
}

func (m *Model) SetWeights(ws model.WeightSet) error {
	args := m.Called(ws)

	return args.Error(0)
}

func (m *Model) Fit(ctx context.Context, x [][]float64, y []float64, cfg model.FitConfig) (model.History, error) {
	args := m.Called(ctx, x, y, cfg)

	return args.Get(0).(model.History), args.Error(1)
}

func (m *Model) Evaluate(ctx context.Context, x [][]float64, y []float64) (model.Evaluation, error) {
	args := m.Called(ctx, x, y)

	return args.Get(0).(model.Evaluation), args.Error(1)
}
