// Package ledger tracks cash, position, and the time series a backtest
// accumulates for statistics.
package ledger

import (
	"sync"
	"time"

	"github.com/tradesim/tradesim/internal/fill"
	"github.com/tradesim/tradesim/internal/stats"
)

// Ledger applies fill events to a single-security portfolio and records
// the equity curve, the realized profit/loss of each closing trade, and
// the per-mark fractional returns the statistics engine consumes.
type Ledger struct {
	startingCash float64
	cash         float64
	quantity     int64
	averageCost  float64
	lastEquity   float64
	marked       bool

	equity      *stats.Series
	profitLoss  *stats.Series
	performance *stats.Series

	mu sync.Mutex
}

// New creates a ledger funded with the given starting cash.
func New(startingCash float64) *Ledger {
	return &Ledger{
		startingCash: startingCash,
		cash:         startingCash,
		equity:       stats.NewSeries(),
		profitLoss:   stats.NewSeries(),
		performance:  stats.NewSeries(),
	}
}

// ApplyFill updates cash and position from a fill event. Buys grow the
// position at a weighted average cost; sells reduce it and realize
// profit/loss against that cost, recorded as a closed trade at the
// event's timestamp. The ledger is long-only: a sell settles at most
// the held quantity, so a fill can never flip the position short, and
// a sell from a flat book is ignored. Events with zero fill quantity
// are ignored.
func (l *Ledger) ApplyFill(event fill.Event) {
	if !event.Filled() {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch event.Side {
	case fill.OrderSideBuy:
		notional := float64(event.FillQuantity) * event.FillPrice
		totalCost := float64(l.quantity)*l.averageCost + notional
		l.quantity += event.FillQuantity
		if l.quantity > 0 {
			l.averageCost = totalCost / float64(l.quantity)
		}
		l.cash -= notional

	case fill.OrderSideSell:
		quantity := event.FillQuantity
		if quantity > l.quantity {
			quantity = l.quantity
		}
		if quantity == 0 {
			return
		}
		realized := (event.FillPrice - l.averageCost) * float64(quantity)
		l.quantity -= quantity
		l.cash += float64(quantity) * event.FillPrice
		l.profitLoss.Add(event.Time, realized)
	}
}

// MarkToMarket records an equity observation at the given price and,
// after the first mark, the fractional return since the previous mark.
func (l *Ledger) MarkToMarket(at time.Time, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	equity := l.cash + float64(l.quantity)*price
	l.equity.Add(at, equity)

	if l.marked && l.lastEquity != 0 {
		l.performance.Add(at, equity/l.lastEquity-1)
	}
	l.lastEquity = equity
	l.marked = true
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Position returns the current signed position quantity.
func (l *Ledger) Position() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.quantity
}

// StartingCash returns the initial funding.
func (l *Ledger) StartingCash() float64 {
	return l.startingCash
}

// Equity returns the recorded equity curve.
func (l *Ledger) Equity() *stats.Series { return l.equity }

// ProfitLoss returns the closed-trade profit/loss series.
func (l *Ledger) ProfitLoss() *stats.Series { return l.profitLoss }

// Performance returns the per-mark fractional return series.
func (l *Ledger) Performance() *stats.Series { return l.performance }
