// Package backtest replays historical bars through a strategy, the
// fill engine, and the ledger, and summarizes the outcome.
package backtest

import (
	"context"
	"time"

	"github.com/tradesim/tradesim/internal/core"
	"github.com/tradesim/tradesim/internal/fill"
	"github.com/tradesim/tradesim/internal/stats"
)

// BarProvider supplies historical bars for a symbol, oldest first.
type BarProvider interface {
	FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error)
}

// Config parameterizes one backtest run.
type Config struct {
	Symbol       string
	StartingCash float64
	Resolution   core.Resolution
	Start        time.Time
	End          time.Time
	// FractionOfYears overrides the period length used to annualize
	// returns; when zero it is derived from the replayed bars.
	FractionOfYears float64
}

// Result holds the complete backtest output.
type Result struct {
	Strategy    string
	Symbol      string
	StartDate   time.Time
	EndDate     time.Time
	Bars        int
	Orders      int
	Fills       []fill.Event
	FinalEquity float64
	Report      stats.Report
}

// FilledCount returns the number of events carrying an execution.
func (r *Result) FilledCount() int {
	var n int
	for _, e := range r.Fills {
		if e.Filled() {
			n++
		}
	}
	return n
}
