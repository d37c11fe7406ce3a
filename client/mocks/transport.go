package mocks

import (
	"context"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/stretchr/testify/mock"
)

var _ client.Transport = (*Transport)(nil)

// Transport is a mock implementation of the client.Transport interface.
type Transport struct {
	mock.Mock
}

func (m *Transport) Receive(ctx context.Context) (fl.Instruction, error) {
	args := m.Called(ctx)

	return args.Get(0).(fl.Instruction), args.Error(1)
}

func (m *Transport) Send(ctx context.Context, r fl.Reply) error {
	args := m.Called(ctx, r)

	return args.Error(0)
}

func (m *Transport) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
