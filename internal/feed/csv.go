// Package feed provides historical bar providers.
package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/tradesim/tradesim/internal/core"
)

// Accepted timestamp layouts, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVProvider reads OHLCV bars from a CSV file with a
// time,open,high,low,close,volume header row.
type CSVProvider struct {
	path string
}

// NewCSVProvider creates a provider reading from the given file.
func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{path: path}
}

// FetchBars loads all bars within [start, end], oldest first. Malformed
// rows abort the load with a row-numbered error.
func (p *CSVProvider) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("feed: open %q: %w", p.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	// Header row.
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("feed: read header of %q: %w", p.path, err)
	}

	var bars []core.Bar
	for row := 2; ; row++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feed: %q row %d: %w", p.path, row, err)
		}

		bar, err := parseBar(symbol, record)
		if err != nil {
			return nil, fmt.Errorf("feed: %q row %d: %w", p.path, row, err)
		}
		// Zero bounds leave that side of the range open.
		if !start.IsZero() && bar.Time.Before(start) {
			continue
		}
		if !end.IsZero() && bar.Time.After(end) {
			continue
		}
		if !bar.IsValid() {
			return nil, core.WrapError(core.ErrBadBar,
				fmt.Errorf("%q row %d: low %v high %v", p.path, row, bar.Low, bar.High))
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})
	return bars, nil
}

func parseBar(symbol string, record []string) (core.Bar, error) {
	at, err := parseTime(record[0])
	if err != nil {
		return core.Bar{}, err
	}

	fields := make([]float64, 4)
	for i, name := range []string{"open", "high", "low", "close"} {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return core.Bar{}, fmt.Errorf("parse %s: %w", name, err)
		}
		fields[i] = v
	}

	volume, err := strconv.ParseInt(record[5], 10, 64)
	if err != nil {
		return core.Bar{}, fmt.Errorf("parse volume: %w", err)
	}

	return core.Bar{
		Symbol: symbol,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: volume,
		Time:   at,
	}, nil
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if at, err := time.Parse(layout, value); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: unrecognized layout", value)
}
