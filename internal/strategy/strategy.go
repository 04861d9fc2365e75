// Package strategy defines the order-emitting strategy contract used
// by the backtest driver.
package strategy

import (
	"github.com/tradesim/tradesim/internal/core"
	"github.com/tradesim/tradesim/internal/fill"
)

// Context provides a strategy with the state it may act on for one bar.
type Context struct {
	// Security is the current view of the traded security, including
	// the bar that just closed.
	Security core.Security
	// Position is the signed quantity currently held.
	Position int64
	// Cash is the cash currently available.
	Cash float64
}

// Strategy turns market observations into order intents. OnBar is
// called once per bar in chronological order; returned orders are
// submitted to the fill engine starting from the next evaluation. A
// returned fill.NewCancellation retracts a previously emitted order
// that has not filled yet.
type Strategy interface {
	Name() string
	OnBar(ctx Context) []fill.Order
}
