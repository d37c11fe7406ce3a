package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
)

const rowBatch = 512

type parquetColumn struct {
	index int
	unit  time.Duration
}

func readParquet(ctx context.Context, path string, cols Columns) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMissingColumn, err)
	}

	schema := pf.Schema()
	lookup := func(name string) (parquetColumn, error) {
		leaf, ok := schema.Lookup(name)
		if !ok {
			return parquetColumn{}, fmt.Errorf("%w: %q", errMissingColumn, name)
		}
		c := parquetColumn{index: leaf.ColumnIndex, unit: time.Millisecond}
		if lt := leaf.Node.Type().LogicalType(); lt != nil && lt.Timestamp != nil {
			switch {
			case lt.Timestamp.Unit.Micros != nil:
				c.unit = time.Microsecond
			case lt.Timestamp.Unit.Nanos != nil:
				c.unit = time.Nanosecond
			}
		}

		return c, nil
	}

	tsCol, err := lookup(cols.Timestamp)
	if err != nil {
		return nil, err
	}
	valCol, err := lookup(cols.Value)
	if err != nil {
		return nil, err
	}
	labelCol, err := lookup(cols.Label)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, pf.NumRows())
	buf := make([]parquet.Row, rowBatch)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			if err := ctx.Err(); err != nil {
				rows.Close()

				return nil, err
			}

			n, readErr := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				rec, err := parquetRecord(row, tsCol, valCol, labelCol)
				if err != nil {
					rows.Close()

					return nil, fmt.Errorf("row %d: %w", len(records), err)
				}
				records = append(records, rec)
			}
			if errors.Is(readErr, io.EOF) {
				break
			}
			if readErr != nil {
				rows.Close()

				return nil, readErr
			}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func parquetRecord(row parquet.Row, tsCol, valCol, labelCol parquetColumn) (Record, error) {
	var rec Record
	var seenT, seenV, seenL bool
	for _, v := range row {
		switch v.Column() {
		case tsCol.index:
			t, err := parquetTime(v, tsCol.unit)
			if err != nil {
				return Record{}, err
			}
			rec.Timestamp, seenT = t, true
		case valCol.index:
			f, err := parquetFloat(v)
			if err != nil {
				return Record{}, fmt.Errorf("%w: %w", errBadValue, err)
			}
			rec.Value, seenV = f, true
		case labelCol.index:
			f, err := parquetFloat(v)
			if err != nil {
				return Record{}, fmt.Errorf("%w: %w", errBadLabel, err)
			}
			rec.Label, seenL = LabelOf(f), true
		}
	}
	if !seenT || !seenV || !seenL {
		return Record{}, errMissingColumn
	}

	return rec, nil
}

func parquetTime(v parquet.Value, unit time.Duration) (time.Time, error) {
	if v.IsNull() {
		return time.Time{}, fmt.Errorf("%w: null", errBadTimestamp)
	}
	switch v.Kind() {
	case parquet.ByteArray:
		return parseTimestamp(string(v.ByteArray()))
	case parquet.Int64:
		return time.Unix(0, v.Int64()*int64(unit)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: timestamp of kind %s", errUnsupportedKind, v.Kind())
	}
}

func parquetFloat(v parquet.Value) (float64, error) {
	if v.IsNull() {
		return 0, errors.New("null cell")
	}
	switch v.Kind() {
	case parquet.Double:
		return v.Double(), nil
	case parquet.Float:
		return float64(v.Float()), nil
	case parquet.Int32:
		return float64(v.Int32()), nil
	case parquet.Int64:
		return float64(v.Int64()), nil
	case parquet.Boolean:
		if v.Boolean() {
			return 1, nil
		}

		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %s", errUnsupportedKind, v.Kind())
	}
}
