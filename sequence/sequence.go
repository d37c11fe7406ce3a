// Package sequence turns a labeled time series into supervised windows.
package sequence

import (
	"iter"
	"time"

	"github.com/absmach/flclient/dataset"
)

const (
	DefaultWindowSize = 20
	TrainFraction     = 0.8
)

// Partition holds the training records (normal only) and the test records
// (normal tail followed by every anomalous record).
type Partition struct {
	Train []dataset.Record
	Test  []dataset.Record
}

type Window struct {
	Values []float64
	Target float64
}

// Split partitions records by label. Order within each subset is preserved
// and anomalous records are appended after the normal tail.
func Split(records []dataset.Record) Partition {
	var normal, anomalous []dataset.Record
	for _, r := range records {
		if r.Label == dataset.Normal {
			normal = append(normal, r)
		} else {
			anomalous = append(anomalous, r)
		}
	}

	cut := int(TrainFraction * float64(len(normal)))
	train := make([]dataset.Record, cut)
	copy(train, normal[:cut])

	test := make([]dataset.Record, 0, len(normal)-cut+len(anomalous))
	test = append(test, normal[cut:]...)
	test = append(test, anomalous...)

	return Partition{Train: train, Test: test}
}

func Values(records []dataset.Record) []float64 {
	vals := make([]float64, len(records))
	for i, r := range records {
		vals[i] = r.Value
	}

	return vals
}

// Count returns the number of windows Windows yields.
func Count(n, size int) int {
	if size <= 0 || n <= size {
		return 0
	}

	return n - size
}

// Windows yields stride-one windows of the given size and the value that
// follows each one. The sequence is lazy and may be ranged over repeatedly.
// Window values alias the input slice.
func Windows(values []float64, size int) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		for i := range Count(len(values), size) {
			if !yield(Window{Values: values[i : i+size : i+size], Target: values[i+size]}) {
				return
			}
		}
	}
}

// Collect materializes windows into a sample matrix and target vector.
func Collect(seq iter.Seq[Window]) ([][]float64, []float64) {
	var (
		x [][]float64
		y []float64
	)
	for w := range seq {
		row := make([]float64, len(w.Values))
		copy(row, w.Values)
		x = append(x, row)
		y = append(y, w.Target)
	}

	return x, y
}

type Range struct {
	Count int       `json:"count"`
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

type Summary struct {
	Total        Range `json:"total"`
	Normal       Range `json:"normal"`
	Anomalous    Range `json:"anomalous"`
	Train        Range `json:"train"`
	Test         Range `json:"test"`
	WindowSize   int   `json:"window_size"`
	TrainWindows int   `json:"train_windows"`
	TestWindows  int   `json:"test_windows"`
}

// Describe reports the date ranges and window counts of a loaded dataset.
func Describe(records []dataset.Record, p Partition, size int) Summary {
	var normal, anomalous Range
	for _, r := range records {
		if r.Label == dataset.Normal {
			normal = extend(normal, r.Timestamp)
		} else {
			anomalous = extend(anomalous, r.Timestamp)
		}
	}

	return Summary{
		Total:        span(records),
		Normal:       normal,
		Anomalous:    anomalous,
		Train:        span(p.Train),
		Test:         span(p.Test),
		WindowSize:   size,
		TrainWindows: Count(len(p.Train), size),
		TestWindows:  Count(len(p.Test), size),
	}
}

func span(records []dataset.Record) Range {
	var r Range
	for _, rec := range records {
		r = extend(r, rec.Timestamp)
	}

	return r
}

func extend(r Range, t time.Time) Range {
	if r.Count == 0 || t.Before(r.Start) {
		r.Start = t
	}
	if r.Count == 0 || t.After(r.End) {
		r.End = t
	}
	r.Count++

	return r
}
