package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/pkg/api"
	"github.com/absmach/flclient/pkg/storage"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MakeHandler serves the read-only operator API of a running client.
func MakeHandler(status StatusReader, rounds storage.RoundRepository, evals *client.MetricsLog, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(api.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Get("/rounds", otelhttp.NewHandler(kithttp.NewServer(
		listRoundsEndpoint(rounds),
		decodeListRoundsReq,
		api.EncodeResponse,
		opts...,
	), "list-rounds").ServeHTTP)
	mux.Get("/evaluations", otelhttp.NewHandler(kithttp.NewServer(
		evaluationsEndpoint(evals),
		kithttp.NopRequestDecoder,
		api.EncodeResponse,
		opts...,
	), "list-evaluations").ServeHTTP)
	mux.Get("/health", kithttp.NewServer(
		healthEndpoint(status, instanceID),
		kithttp.NopRequestDecoder,
		api.EncodeResponse,
		opts...,
	).ServeHTTP)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeListRoundsReq(_ context.Context, r *http.Request) (any, error) {
	o, err := api.ReadUintQuery(r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}

	l, err := api.ReadUintQuery(r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}

	return listRoundsReq{
		offset: o,
		limit:  l,
	}, nil
}
