package console_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/console"
	"github.com/absmach/flclient/dataset"
	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(normal, anomalous int) []dataset.Record {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]dataset.Record, 0, normal+anomalous)
	for i := range normal + anomalous {
		label := dataset.Normal
		if i >= normal {
			label = dataset.Anomalous
		}
		out = append(out, dataset.Record{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Value:     float64(i) / 10,
			Label:     label,
		})
	}

	return out
}

func TestDataset(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc     string
		records  []dataset.Record
		contains []string
		warns    bool
	}{
		{
			desc:     "full dataset",
			records:  records(100, 20),
			contains: []string{"2024-01-01 00:00:00", "normal", "60", "20"},
		},
		{
			desc:     "series shorter than window",
			records:  records(10, 0),
			contains: []string{"training set shorter than window size 20", "test set shorter than window size 20"},
			warns:    true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			c := console.New(&buf, true)
			p := sequence.Split(tc.records)
			s := sequence.Describe(tc.records, p, sequence.DefaultWindowSize)

			require.NoError(t, c.Dataset(dataset.DefaultColumns(), tc.records, s))
			out := buf.String()
			for _, want := range tc.contains {
				assert.Contains(t, out, want)
			}
			assert.Equal(t, tc.warns, strings.Contains(out, "! "))
		})
	}
}

func TestFitHistory(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := console.New(&buf, true)

	val := 0.25
	h := model.History{Epochs: []model.EpochStats{
		{Epoch: 1, Loss: 0.5, MAPE: 40, ValLoss: &val, ValMAPE: &val},
	}}
	require.NoError(t, c.FitHistory(3, h))

	out := buf.String()
	assert.Contains(t, out, "round 3 history:")
	assert.Contains(t, out, `"val_loss": 0.25`)
	assert.NotContains(t, out, "\x1b[", "plain output must not contain escape codes")
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, console.New(&buf, true).JSON(map[string]any{"state": "fitting", "total": 2}))

	assert.Contains(t, buf.String(), `"state": "fitting"`)
	assert.Contains(t, buf.String(), `"total": 2`)
}

func TestEvaluations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := console.New(&buf, true)

	require.NoError(t, c.Evaluations([]client.MetricsEntry{
		{Round: 1, Loss: 0.5, MAPE: 12.25},
		{Round: 2, Loss: 0.125, MAPE: 8},
	}))

	out := buf.String()
	assert.Contains(t, out, "0.500000")
	assert.Contains(t, out, "12.250000")
	assert.Contains(t, out, "0.125000")
}

func TestStatusLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := console.New(&buf, true)
	c.Success("model saved to %s", "trained_model.cbor")
	c.Error(errors.New("connection refused"))

	assert.Equal(t, "✔ model saved to trained_model.cbor\n✘ connection refused\n", buf.String())
}
