package dataset

import (
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/flclient/pkg/errors"
)

type Label uint8

const (
	Normal Label = iota
	Anomalous
)

func (l Label) String() string {
	switch l {
	case Normal:
		return "normal"
	case Anomalous:
		return "anomalous"
	default:
		return fmt.Sprintf("label(%d)", l)
	}
}

// LabelOf maps a raw label value to a Label. Zero is normal, anything else anomalous.
func LabelOf(v float64) Label {
	if v == 0 {
		return Normal
	}

	return Anomalous
}

type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Label     Label     `json:"label"`
}

type Columns struct {
	Timestamp string `toml:"timestamp" env:"TIMESTAMP" envDefault:"datetimestamp"`
	Value     string `toml:"value"     env:"VALUE"     envDefault:"Hz_mod_anomaly"`
	Label     string `toml:"label"     env:"LABEL"     envDefault:"mod_BIN"`
}

func DefaultColumns() Columns {
	return Columns{
		Timestamp: "datetimestamp",
		Value:     "Hz_mod_anomaly",
		Label:     "mod_BIN",
	}
}

var (
	ErrAmbiguousDataset = errors.New("more than one dataset file found")

	errMissingColumn   = fmt.Errorf("%w: missing column", pkgerrors.ErrMalformedSchedule)
	errBadTimestamp    = fmt.Errorf("%w: unparseable timestamp", pkgerrors.ErrMalformedSchedule)
	errBadValue        = fmt.Errorf("%w: unparseable value", pkgerrors.ErrMalformedSchedule)
	errBadLabel        = fmt.Errorf("%w: unparseable label", pkgerrors.ErrMalformedSchedule)
	errDuplicateTime   = fmt.Errorf("%w: duplicate timestamp", pkgerrors.ErrMalformedSchedule)
	errUnsupportedKind = fmt.Errorf("%w: unsupported column type", pkgerrors.ErrMalformedSchedule)
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", errBadTimestamp, s)
}
