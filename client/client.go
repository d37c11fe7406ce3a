package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	pkgerrors "github.com/absmach/flclient/pkg/errors"
	"github.com/absmach/flclient/pkg/fl"
)

var (
	ErrUnknownInstruction = fmt.Errorf("%w: unknown instruction", pkgerrors.ErrTransport)
	ErrAlreadyStarted     = errors.New("client already started")
	errEmptyClientID      = errors.New("client ID is required")
)

// Transport carries instructions from and replies to the aggregation server.
// Receive blocks until the server sends the next instruction.
type Transport interface {
	Receive(ctx context.Context) (fl.Instruction, error)
	Send(ctx context.Context, r fl.Reply) error
	Close(ctx context.Context) error
}

type State int32

const (
	Idle State = iota
	AwaitingInstruction
	Fitting
	Evaluating
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingInstruction:
		return "awaiting_instruction"
	case Fitting:
		return "fitting"
	case Evaluating:
		return "evaluating"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Client drives one federated session: it answers each server instruction
// in turn until the server shuts the session down or an error occurs.
type Client struct {
	id        string
	svc       Service
	transport Transport
	logger    *slog.Logger
	state     atomic.Int32
	started   atomic.Bool
}

func New(id string, svc Service, transport Transport, logger *slog.Logger) (*Client, error) {
	if id == "" {
		return nil, errEmptyClientID
	}

	return &Client{
		id:        id,
		svc:       svc,
		transport: transport,
		logger:    logger,
	}, nil
}

func (c *Client) ID() string {
	return c.id
}

// State is safe to call from any goroutine.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev != s {
		c.logger.Debug("client state changed", slog.String("from", prev.String()), slog.String("to", s.String()))
	}
}

// Run blocks until the session ends. It returns nil only when the server
// ends the session. Any failure is terminal; no round is retried.
func (c *Client) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer c.setState(Terminated)

	c.setState(AwaitingInstruction)
	c.logger.Info("waiting for server instructions", slog.String("client_id", c.id))

	for {
		ins, err := c.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, pkgerrors.ErrTransport) {
				return err
			}

			return fmt.Errorf("%w: %w", pkgerrors.ErrTransport, err)
		}

		reply, done, err := c.handle(ctx, ins)
		if err != nil {
			return err
		}
		if done {
			c.logger.Info("server ended the session", slog.Uint64("round", ins.Round))

			return nil
		}

		if err := c.transport.Send(ctx, reply); err != nil {
			if errors.Is(err, pkgerrors.ErrTransport) {
				return err
			}

			return fmt.Errorf("%w: %w", pkgerrors.ErrTransport, err)
		}
		c.setState(AwaitingInstruction)
	}
}

func (c *Client) handle(ctx context.Context, ins fl.Instruction) (fl.Reply, bool, error) {
	switch ins.Kind {
	case fl.Shutdown:
		return fl.Reply{}, true, nil
	case fl.GetParameters:
		ws, err := c.svc.Parameters(ctx)
		if err != nil {
			return fl.Reply{}, false, err
		}

		return fl.ParametersReply(c.id, ins.Round, ws), false, nil
	case fl.Fit:
		c.setState(Fitting)
		res, err := c.svc.Fit(ctx, ins.FitIns())
		if err != nil {
			return fl.Reply{}, false, err
		}

		return fl.FitReply(c.id, ins.Round, res), false, nil
	case fl.Evaluate:
		c.setState(Evaluating)
		res, err := c.svc.Evaluate(ctx, ins.EvaluateIns())
		if err != nil {
			return fl.Reply{}, false, err
		}

		return fl.EvaluateReply(c.id, ins.Round, res), false, nil
	default:
		return fl.Reply{}, false, fmt.Errorf("%w: %q", ErrUnknownInstruction, ins.Kind)
	}
}
