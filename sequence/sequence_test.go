package sequence_test

import (
	"testing"
	"time"

	"github.com/absmach/flclient/dataset"
	"github.com/absmach/flclient/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func series(normal, anomalous int) []dataset.Record {
	records := make([]dataset.Record, 0, normal+anomalous)
	for i := range normal + anomalous {
		label := dataset.Normal
		if i >= normal {
			label = dataset.Anomalous
		}
		records = append(records, dataset.Record{
			Timestamp: epoch.Add(time.Duration(i) * time.Second),
			Value:     float64(i),
			Label:     label,
		})
	}

	return records
}

func TestSplit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc      string
		normal    int
		anomalous int
		train     int
		test      int
	}{
		{desc: "100 normal 20 anomalous", normal: 100, anomalous: 20, train: 80, test: 40},
		{desc: "only normal", normal: 10, anomalous: 0, train: 8, test: 2},
		{desc: "only anomalous", normal: 0, anomalous: 5, train: 0, test: 5},
		{desc: "single normal", normal: 1, anomalous: 3, train: 0, test: 4},
		{desc: "two normal", normal: 2, anomalous: 0, train: 1, test: 1},
		{desc: "empty", normal: 0, anomalous: 0, train: 0, test: 0},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			p := sequence.Split(series(tc.normal, tc.anomalous))
			assert.Len(t, p.Train, tc.train)
			assert.Len(t, p.Test, tc.test)

			for _, r := range p.Train {
				assert.Equal(t, dataset.Normal, r.Label)
			}
		})
	}
}

func TestSplitOrdering(t *testing.T) {
	t.Parallel()

	records := series(100, 20)
	// Interleave anomalies to check they are appended after the normal tail.
	for i := range records {
		if i%6 == 5 {
			records[i].Label = dataset.Anomalous
		} else {
			records[i].Label = dataset.Normal
		}
	}

	p := sequence.Split(records)
	require.Len(t, p.Train, 80)
	require.Len(t, p.Test, 40)

	seenAnomaly := false
	for _, r := range p.Test {
		if r.Label == dataset.Anomalous {
			seenAnomaly = true
			continue
		}
		assert.False(t, seenAnomaly, "normal record after anomalous record in test set")
	}
	for i := 1; i < len(p.Train); i++ {
		assert.True(t, p.Train[i].Timestamp.After(p.Train[i-1].Timestamp))
	}
}

func TestWindows(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc  string
		n     int
		size  int
		count int
	}{
		{desc: "train partition of 80", n: 80, size: 20, count: 60},
		{desc: "test partition of 40", n: 40, size: 20, count: 20},
		{desc: "length equal to size", n: 20, size: 20, count: 0},
		{desc: "shorter than size", n: 5, size: 20, count: 0},
		{desc: "one more than size", n: 21, size: 20, count: 1},
		{desc: "zero size", n: 10, size: 0, count: 0},
		{desc: "empty", n: 0, size: 3, count: 0},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			vals := make([]float64, tc.n)
			for i := range vals {
				vals[i] = float64(i)
			}

			got := 0
			for w := range sequence.Windows(vals, tc.size) {
				require.Len(t, w.Values, tc.size)
				assert.Equal(t, vals[got:got+tc.size], w.Values)
				assert.Equal(t, vals[got+tc.size], w.Target)
				got++
			}
			assert.Equal(t, tc.count, got)
			assert.Equal(t, tc.count, sequence.Count(tc.n, tc.size))
		})
	}
}

func TestWindowsRestartable(t *testing.T) {
	t.Parallel()

	seq := sequence.Windows([]float64{1, 2, 3, 4, 5}, 2)

	x1, y1 := sequence.Collect(seq)
	x2, y2 := sequence.Collect(seq)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
	assert.Equal(t, [][]float64{{1, 2}, {2, 3}, {3, 4}}, x1)
	assert.Equal(t, []float64{3, 4, 5}, y1)
}

func TestWindowsEarlyStop(t *testing.T) {
	t.Parallel()

	n := 0
	for range sequence.Windows(make([]float64, 100), 10) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestCollectCopies(t *testing.T) {
	t.Parallel()

	vals := []float64{1, 2, 3, 4}
	x, _ := sequence.Collect(sequence.Windows(vals, 2))
	vals[0] = 100
	assert.Equal(t, 1.0, x[0][0])
}

func TestScenarioWindows(t *testing.T) {
	t.Parallel()

	p := sequence.Split(series(100, 20))
	xTrain, yTrain := sequence.Collect(sequence.Windows(sequence.Values(p.Train), sequence.DefaultWindowSize))
	xTest, yTest := sequence.Collect(sequence.Windows(sequence.Values(p.Test), sequence.DefaultWindowSize))

	assert.Len(t, xTrain, 60)
	assert.Len(t, yTrain, 60)
	assert.Len(t, xTest, 20)
	assert.Len(t, yTest, 20)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	records := series(100, 20)
	p := sequence.Split(records)
	s := sequence.Describe(records, p, sequence.DefaultWindowSize)

	assert.Equal(t, 120, s.Total.Count)
	assert.Equal(t, 100, s.Normal.Count)
	assert.Equal(t, 20, s.Anomalous.Count)
	assert.Equal(t, epoch, s.Total.Start)
	assert.Equal(t, epoch.Add(119*time.Second), s.Total.End)
	assert.Equal(t, epoch.Add(100*time.Second), s.Anomalous.Start)
	assert.Equal(t, 60, s.TrainWindows)
	assert.Equal(t, 20, s.TestWindows)
	assert.Equal(t, epoch.Add(79*time.Second), s.Train.End)
}
