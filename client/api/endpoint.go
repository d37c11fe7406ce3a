package api

import (
	"context"
	"errors"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/pkg/api"
	pkgerrors "github.com/absmach/flclient/pkg/errors"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/absmach/flclient/pkg/storage"
	"github.com/go-kit/kit/endpoint"
)

// StatusReader reports the identity and live state of a running client.
type StatusReader interface {
	ID() string
	State() client.State
}

func healthEndpoint(status StatusReader, instanceID string) endpoint.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return healthRes{
			Status:     "pass",
			ClientID:   status.ID(),
			State:      status.State().String(),
			InstanceID: instanceID,
		}, nil
	}
}

func listRoundsEndpoint(repo storage.RoundRepository) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listRoundsReq)
		if !ok {
			return listRoundsRes{}, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listRoundsRes{}, errors.Join(api.ErrValidation, err)
		}

		rounds, total, err := repo.List(ctx, req.offset, req.limit)
		if err != nil {
			return listRoundsRes{}, err
		}

		return listRoundsRes{
			RoundPage: fl.RoundPage{
				Offset: req.offset,
				Limit:  req.limit,
				Total:  total,
				Rounds: rounds,
			},
		}, nil
	}
}

func evaluationsEndpoint(log *client.MetricsLog) endpoint.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		entries := log.Entries()

		return evaluationsRes{
			Total:       len(entries),
			Evaluations: entries,
		}, nil
	}
}
