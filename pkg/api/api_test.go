package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/absmach/flclient/pkg/api"
	pkgerrors "github.com/absmach/flclient/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUintQuery(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc  string
		query string
		value uint64
		err   error
	}{
		{desc: "absent uses default", query: "", value: 10},
		{desc: "valid value", query: "limit=25", value: 25},
		{desc: "negative value", query: "limit=-1", err: api.ErrInvalidQuery},
		{desc: "not a number", query: "limit=ten", err: api.ErrInvalidQuery},
		{desc: "repeated key", query: "limit=1&limit=2", err: api.ErrInvalidQuery},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/rounds?"+tc.query, http.NoBody)
			v, err := api.ReadUintQuery(r, api.LimitKey, api.DefLimit)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.value, v)
		})
	}
}

func TestEncodeError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc   string
		err    error
		status int
	}{
		{desc: "validation", err: errors.Join(api.ErrValidation, api.ErrLimitSize), status: http.StatusBadRequest},
		{desc: "not found", err: pkgerrors.ErrNotFound, status: http.StatusNotFound},
		{desc: "internal", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			api.EncodeError(context.Background(), tc.err, w)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, api.ContentType, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}
