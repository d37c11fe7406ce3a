package sdk_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/client/api"
	"github.com/absmach/flclient/pkg/fl"
	"github.com/absmach/flclient/pkg/sdk"
	"github.com/absmach/flclient/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status struct{}

func (status) ID() string { return "3" }

func (status) State() client.State { return client.Evaluating }

func newSDK(t *testing.T) sdk.SDK {
	t.Helper()

	repo := storage.NewInMemoryRounds()
	loss := 0.2
	for round := uint64(1); round <= 4; round++ {
		rec := fl.RoundRecord{ClientID: "3", Round: round, Kind: fl.Fit, NumSamples: 60, CompletedAt: time.Now().UTC()}
		if round%2 == 0 {
			rec.Kind = fl.Evaluate
			rec.NumSamples = 20
			rec.Loss = &loss
			rec.Metrics = map[string]float64{fl.MAPEKey: 9.5}
		}
		require.NoError(t, repo.Append(context.Background(), rec))
	}

	evals := client.NewMetricsLog()
	evals.Record(2, loss, 9.5)

	srv := httptest.NewServer(api.MakeHandler(status{}, repo, evals, slog.New(slog.DiscardHandler), "instance-3"))
	t.Cleanup(srv.Close)

	return sdk.NewSDK(sdk.Config{ClientURL: srv.URL})
}

func TestListRounds(t *testing.T) {
	t.Parallel()

	s := newSDK(t)

	cases := []struct {
		desc   string
		offset uint64
		limit  uint64
		size   int
		first  uint64
		err    bool
	}{
		{desc: "server defaults", size: 4, first: 1},
		{desc: "paged", offset: 1, limit: 2, size: 2, first: 2},
		{desc: "offset past the end", offset: 10, limit: 5, size: 0},
		{desc: "limit above maximum", limit: 1000, err: true},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			page, err := s.ListRounds(context.Background(), tc.offset, tc.limit)
			if tc.err {
				assert.ErrorContains(t, err, "400")

				return
			}
			require.NoError(t, err)
			assert.EqualValues(t, 4, page.Total)
			require.Len(t, page.Rounds, tc.size)
			if tc.size > 0 {
				assert.Equal(t, tc.first, page.Rounds[0].Round)
			}
		})
	}
}

func TestEvaluationRoundCarriesLoss(t *testing.T) {
	t.Parallel()

	page, err := newSDK(t).ListRounds(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Rounds, 1)

	r := page.Rounds[0]
	assert.Equal(t, string(fl.Evaluate), r.Kind)
	require.NotNil(t, r.Loss)
	assert.InDelta(t, 0.2, *r.Loss, 1e-9)
	assert.InDelta(t, 9.5, r.Metrics[fl.MAPEKey], 1e-9)
}

func TestEvaluations(t *testing.T) {
	t.Parallel()

	page, err := newSDK(t).Evaluations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, []sdk.Evaluation{{Round: 2, Loss: 0.2, MAPE: 9.5}}, page.Evaluations)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h, err := newSDK(t).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sdk.Health{Status: "pass", ClientID: "3", State: "evaluating", InstanceID: "instance-3"}, h)
}

func TestUnreachableClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	_, err := sdk.NewSDK(sdk.Config{ClientURL: url}).Health(context.Background())
	assert.Error(t, err)
}
