package strategy

import (
	"fmt"

	"github.com/tradesim/tradesim/internal/fill"
)

// SMACross is a moving-average crossover strategy. A golden cross
// (fast above slow) opens a long with a market order and parks a
// protective stop below the entry; a death cross exits the position
// and retracts the stop so it cannot fire from a flat book.
type SMACross struct {
	fastPeriod int
	slowPeriod int
	quantity   int64
	stopPct    float64

	closes []float64
	stopID string
}

// NewSMACross creates the strategy with the given MA periods, order
// size, and protective-stop distance as a fraction of the entry price.
func NewSMACross(fastPeriod, slowPeriod int, quantity int64, stopPct float64) *SMACross {
	return &SMACross{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		quantity:   quantity,
		stopPct:    stopPct,
	}
}

func (s *SMACross) Name() string {
	return fmt.Sprintf("sma_cross_%d_%d", s.fastPeriod, s.slowPeriod)
}

// OnBar records the bar close and emits orders on crossovers.
func (s *SMACross) OnBar(ctx Context) []fill.Order {
	if ctx.Security.Last == nil || ctx.Security.Last.Bar == nil {
		return nil
	}
	s.closes = append(s.closes, ctx.Security.Last.Bar.Close)
	if len(s.closes) < s.slowPeriod+1 {
		return nil
	}

	currFast := sma(s.closes, s.fastPeriod, 0)
	prevFast := sma(s.closes, s.fastPeriod, 1)
	currSlow := sma(s.closes, s.slowPeriod, 0)
	prevSlow := sma(s.closes, s.slowPeriod, 1)

	symbol := ctx.Security.Symbol
	price := ctx.Security.Price

	// Golden cross: open a long and protect it with a stop below entry.
	if prevFast <= prevSlow && currFast > currSlow && ctx.Position == 0 {
		stop := fill.NewOrder(symbol, fill.OrderSideSell, fill.OrderTypeStopMarket, s.quantity, price*(1-s.stopPct))
		s.stopID = stop.ID
		return []fill.Order{
			fill.NewOrder(symbol, fill.OrderSideBuy, fill.OrderTypeMarket, s.quantity, 0),
			stop,
		}
	}

	// Death cross: flatten and retract the protective stop.
	if prevFast >= prevSlow && currFast < currSlow && ctx.Position > 0 {
		orders := []fill.Order{
			fill.NewOrder(symbol, fill.OrderSideSell, fill.OrderTypeMarket, ctx.Position, 0),
		}
		if s.stopID != "" {
			orders = append(orders, fill.NewCancellation(s.stopID))
			s.stopID = ""
		}
		return orders
	}

	return nil
}

// sma averages the last period closes, offset bars back from the end.
func sma(values []float64, period, offset int) float64 {
	end := len(values) - offset
	start := end - period
	if start < 0 {
		return 0
	}
	var sum float64
	for _, v := range values[start:end] {
		sum += v
	}
	return sum / float64(period)
}
