package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

func readCSV(ctx context.Context, path string, cols Columns) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", errMissingColumn)
		}

		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	ts, vi, li := -1, -1, -1
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{cols.Timestamp, &ts},
		{cols.Value, &vi},
		{cols.Label, &li},
	} {
		i, ok := idx[c.name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", errMissingColumn, c.name)
		}
		*c.dst = i
	}
	width := max(ts, vi, li) + 1

	var records []Record
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) < width {
			return nil, fmt.Errorf("%w: line %d has %d fields", errMissingColumn, line, len(row))
		}

		t, err := parseTimestamp(strings.TrimSpace(row[ts]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[vi]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q", errBadValue, line, row[vi])
		}
		l, err := strconv.ParseFloat(strings.TrimSpace(row[li]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q", errBadLabel, line, row[li])
		}

		records = append(records, Record{Timestamp: t, Value: v, Label: LabelOf(l)})
	}

	return records, nil
}
