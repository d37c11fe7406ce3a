// Package console renders the human-readable progress of a client session:
// dataset diagnostics, per-round fit history and the evaluation log.
package console

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/absmach/flclient/client"
	"github.com/absmach/flclient/dataset"
	"github.com/absmach/flclient/model"
	"github.com/absmach/flclient/sequence"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const (
	headRows   = 5
	dateLayout = "2006-01-02 15:04:05"
	floatFmt   = 'f'
	floatPrec  = 6
)

type Console struct {
	w    io.Writer
	ok   *color.Color
	warn *color.Color
	fail *color.Color
	json *prettyjson.Formatter
}

// New writes to w. Colors are disabled when plain is set.
func New(w io.Writer, plain bool) *Console {
	c := &Console{
		w:    w,
		ok:   color.New(color.FgGreen, color.Bold),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed, color.Bold),
		json: prettyjson.NewFormatter(),
	}
	if plain {
		c.ok.DisableColor()
		c.warn.DisableColor()
		c.fail.DisableColor()
		c.json.DisabledColor = true
	}

	return c
}

func (c *Console) Success(format string, args ...any) {
	c.ok.Fprintf(c.w, "✔ "+format+"\n", args...)
}

func (c *Console) Warn(format string, args ...any) {
	c.warn.Fprintf(c.w, "! "+format+"\n", args...)
}

func (c *Console) Error(err error) {
	c.fail.Fprintf(c.w, "✘ %s\n", err)
}

// Dataset prints the first rows of the loaded series followed by its date
// ranges and window counts.
func (c *Console) Dataset(cols dataset.Columns, records []dataset.Record, s sequence.Summary) error {
	head := tablewriter.NewWriter(c.w)
	head.Header([]string{cols.Timestamp, cols.Value, cols.Label})
	rows := make([][]string, 0, headRows)
	for _, r := range records[:min(headRows, len(records))] {
		rows = append(rows, []string{
			r.Timestamp.Format(dateLayout),
			formatFloat(r.Value),
			r.Label.String(),
		})
	}
	if err := head.Bulk(rows); err != nil {
		return err
	}
	if err := head.Render(); err != nil {
		return err
	}

	summary := tablewriter.NewWriter(c.w)
	summary.Header([]string{"Set", "Records", "Windows", "Start", "End"})
	summary.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data := [][]string{
		rangeRow("total", s.Total, ""),
		rangeRow("normal", s.Normal, ""),
		rangeRow("anomalous", s.Anomalous, ""),
		rangeRow("train", s.Train, strconv.Itoa(s.TrainWindows)),
		rangeRow("test", s.Test, strconv.Itoa(s.TestWindows)),
	}
	if err := summary.Bulk(data); err != nil {
		return err
	}
	if err := summary.Render(); err != nil {
		return err
	}

	if s.TrainWindows == 0 {
		c.Warn("training set shorter than window size %d: fit rounds will not train", s.WindowSize)
	}
	if s.TestWindows == 0 {
		c.Warn("test set shorter than window size %d: evaluation rounds will report zero loss", s.WindowSize)
	}

	return nil
}

// JSON pretty prints v.
func (c *Console) JSON(v any) error {
	data, err := c.json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.w, "%s\n", data)

	return nil
}

// FitHistory prints the per-epoch training history of one round.
func (c *Console) FitHistory(round uint64, h model.History) error {
	data, err := c.json.Marshal(h)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.w, "round %d history:\n%s\n", round, data)

	return nil
}

// Evaluations prints the accumulated evaluation log.
func (c *Console) Evaluations(entries []client.MetricsEntry) error {
	table := tablewriter.NewWriter(c.w)
	table.Header([]string{"Round", "Loss", "MAPE"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(entries))
	for _, e := range entries {
		data = append(data, []string{
			strconv.FormatUint(e.Round, 10),
			formatFloat(e.Loss),
			formatFloat(e.MAPE),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}

	return table.Render()
}

func rangeRow(name string, r sequence.Range, windows string) []string {
	return []string{name, strconv.Itoa(r.Count), windows, formatTime(r.Start), formatTime(r.End)}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Format(dateLayout)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, floatFmt, floatPrec, 64)
}
