package client_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/absmach/flclient/client"
	cmocks "github.com/absmach/flclient/client/mocks"
	"github.com/absmach/flclient/dataset"
	"github.com/absmach/flclient/model"
	pkgerrors "github.com/absmach/flclient/pkg/errors"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/absmach/flclient/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// scriptedTransport replays a fixed list of instructions and records replies.
type scriptedTransport struct {
	mu      sync.Mutex
	script  []fl.Instruction
	replies []fl.Reply
	recvErr error
	sendErr error
}

func (s *scriptedTransport) Receive(ctx context.Context) (fl.Instruction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.script) == 0 {
		if s.recvErr != nil {
			return fl.Instruction{}, s.recvErr
		}
		<-ctx.Done()

		return fl.Instruction{}, ctx.Err()
	}
	in := s.script[0]
	s.script = s.script[1:]

	return in, nil
}

func (s *scriptedTransport) Send(_ context.Context, r fl.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sendErr != nil {
		return s.sendErr
	}
	s.replies = append(s.replies, r)

	return nil
}

func (s *scriptedTransport) Close(context.Context) error {
	return nil
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := client.New("", new(cmocks.Service), &scriptedTransport{}, logger)
	assert.Error(t, err)

	c, err := client.New("1", new(cmocks.Service), &scriptedTransport{}, logger)
	require.NoError(t, err)
	assert.Equal(t, client.Idle, c.State())
	assert.Equal(t, "1", c.ID())
}

func TestRun(t *testing.T) {
	t.Parallel()

	fitRes := fl.FitRes{Weights: weightsV, NumSamples: 3, Metrics: map[string]float64{}}
	evalRes := fl.EvaluateRes{Loss: 0.1, NumSamples: 2, Metrics: map[string]float64{fl.MAPEKey: 1.5}}
	errTransport := errors.New("connection reset")

	cases := []struct {
		desc    string
		script  []fl.Instruction
		recvErr error
		sendErr error
		fitErr  error
		replies []fl.InstructionKind
		err     error
	}{
		{
			desc: "full session",
			script: []fl.Instruction{
				{Kind: fl.GetParameters},
				{Kind: fl.Fit, Round: 1, Weights: weightsW},
				{Kind: fl.Evaluate, Round: 1, Weights: weightsW},
				{Kind: fl.Fit, Round: 2, Weights: weightsW},
				{Kind: fl.Evaluate, Round: 2, Weights: weightsW},
				{Kind: fl.Shutdown, Round: 2},
			},
			replies: []fl.InstructionKind{fl.GetParameters, fl.Fit, fl.Evaluate, fl.Fit, fl.Evaluate},
		},
		{
			desc:    "immediate shutdown",
			script:  []fl.Instruction{{Kind: fl.Shutdown}},
			replies: []fl.InstructionKind{},
		},
		{
			desc:    "transport failure",
			script:  []fl.Instruction{{Kind: fl.Fit, Round: 1, Weights: weightsW}},
			recvErr: errTransport,
			replies: []fl.InstructionKind{fl.Fit},
			err:     pkgerrors.ErrTransport,
		},
		{
			desc:    "send failure",
			script:  []fl.Instruction{{Kind: fl.Fit, Round: 1, Weights: weightsW}},
			sendErr: errTransport,
			replies: []fl.InstructionKind{},
			err:     pkgerrors.ErrTransport,
		},
		{
			desc:    "training divergence",
			script:  []fl.Instruction{{Kind: fl.Fit, Round: 1, Weights: weightsW}, {Kind: fl.Shutdown}},
			fitErr:  pkgerrors.ErrTrainingDivergence,
			replies: []fl.InstructionKind{},
			err:     pkgerrors.ErrTrainingDivergence,
		},
		{
			desc:    "unknown instruction",
			script:  []fl.Instruction{{Kind: "reconnect"}},
			replies: []fl.InstructionKind{},
			err:     client.ErrUnknownInstruction,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			svc := new(cmocks.Service)
			svc.On("Parameters", mock.Anything).Return(weightsW, nil)
			svc.On("Fit", mock.Anything, mock.Anything).Return(fitRes, tc.fitErr)
			svc.On("Evaluate", mock.Anything, mock.Anything).Return(evalRes, nil)

			tr := &scriptedTransport{script: tc.script, recvErr: tc.recvErr, sendErr: tc.sendErr}
			c, err := client.New("client-1", svc, tr, logger)
			require.NoError(t, err)

			err = c.Run(context.Background())
			assert.Equal(t, client.Terminated, c.State())
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			} else {
				require.NoError(t, err)
			}

			kinds := make([]fl.InstructionKind, 0, len(tr.replies))
			for _, r := range tr.replies {
				assert.Equal(t, "client-1", r.ClientID)
				kinds = append(kinds, r.Kind)
			}
			assert.Equal(t, tc.replies, kinds)
		})
	}
}

func TestRunRepliesCarryRound(t *testing.T) {
	t.Parallel()

	svc := new(cmocks.Service)
	svc.On("Fit", mock.Anything, fl.FitIns{Round: 4, Weights: weightsW}).
		Return(fl.FitRes{Weights: weightsV, NumSamples: 3, Metrics: map[string]float64{}}, nil)

	tr := &scriptedTransport{script: []fl.Instruction{
		{Kind: fl.Fit, Round: 4, Weights: weightsW},
		{Kind: fl.Shutdown},
	}}
	c, err := client.New("c", svc, tr, logger)
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background()))

	require.Len(t, tr.replies, 1)
	assert.Equal(t, uint64(4), tr.replies[0].Round)
	assert.Equal(t, weightsV, tr.replies[0].Weights)
	assert.Equal(t, 3, tr.replies[0].NumSamples)
	svc.AssertExpectations(t)
}

func TestRunWithMockTransport(t *testing.T) {
	t.Parallel()

	tr := new(cmocks.Transport)
	tr.On("Receive", mock.Anything).Return(fl.Instruction{}, fmt.Errorf("%w: broker gone", pkgerrors.ErrTransport)).Once()

	c, err := client.New("c", new(cmocks.Service), tr, logger)
	require.NoError(t, err)

	err = c.Run(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrTransport)
	tr.AssertExpectations(t)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	c, err := client.New("c", new(cmocks.Service), &scriptedTransport{}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = c.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, client.Terminated, c.State())
}

func TestRunTwice(t *testing.T) {
	t.Parallel()

	tr := &scriptedTransport{script: []fl.Instruction{{Kind: fl.Shutdown}}}
	c, err := client.New("c", new(cmocks.Service), tr, logger)
	require.NoError(t, err)

	require.NoError(t, c.Run(context.Background()))
	assert.ErrorIs(t, c.Run(context.Background()), client.ErrAlreadyStarted)
}

// TestScenario runs a two-round session on 100 normal and 20 anomalous
// records with the reference model.
func TestScenario(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]dataset.Record, 120)
	for i := range records {
		records[i] = dataset.Record{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Value:     50 + float64(i%7)/10,
			Label:     dataset.Normal,
		}
		if i >= 100 {
			records[i].Label = dataset.Anomalous
			records[i].Value = 55
		}
	}

	p := sequence.Split(records)
	xTrain, yTrain := sequence.Collect(sequence.Windows(sequence.Values(p.Train), sequence.DefaultWindowSize))
	xTest, yTest := sequence.Collect(sequence.Windows(sequence.Values(p.Test), sequence.DefaultWindowSize))
	require.Len(t, xTrain, 60)
	require.Len(t, xTest, 20)

	m, err := model.NewAutoencoder(model.Config{
		WindowSize:   sequence.DefaultWindowSize,
		HiddenUnits:  model.DefaultHiddenUnits,
		LearningRate: model.DefaultLearningRate,
		Seed:         model.DefaultSeed,
	})
	require.NoError(t, err)
	w := m.Weights()

	log := client.NewMetricsLog()
	svc := client.NewService(m, client.Data{XTrain: xTrain, YTrain: yTrain, XTest: xTest, YTest: yTest},
		model.DefaultFitConfig(), log, logger)

	tr := &scriptedTransport{script: []fl.Instruction{
		{Kind: fl.Fit, Round: 1, Weights: w},
		{Kind: fl.Evaluate, Round: 1, Weights: w},
		{Kind: fl.Fit, Round: 2, Weights: w},
		{Kind: fl.Evaluate, Round: 2, Weights: w},
		{Kind: fl.Shutdown},
	}}
	c, err := client.New("1", svc, tr, logger)
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background()))

	require.Len(t, tr.replies, 4)
	assert.Equal(t, 60, tr.replies[0].NumSamples)
	assert.False(t, w.Equal(tr.replies[0].Weights))
	assert.Equal(t, 20, tr.replies[1].NumSamples)
	assert.Contains(t, tr.replies[1].Metrics, fl.MAPEKey)
	assert.Equal(t, 2, log.Len())

	// Both evaluations used the same received weights.
	entries := log.Entries()
	assert.Equal(t, entries[0].Loss, entries[1].Loss)
	assert.Equal(t, tr.replies[1].Loss, entries[0].Loss)
}
