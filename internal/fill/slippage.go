package fill

import (
	"math"

	"github.com/tradesim/tradesim/internal/core"
)

// EstimateSlippage approximates the execution slippage for a market
// order from the security's feed granularity. The result is a
// magnitude; the caller applies the sign by order side.
//
//   - Second/Minute data: a flat one-basis-point heuristic on the last
//     observed value, the best guess available from aggregated bars.
//   - Tick data: the distance from the order price to the touched side
//     of the book (ask for buys, bid for sells).
//   - Anything else: zero, no model.
func EstimateSlippage(sec core.Security, order Order) (float64, error) {
	switch sec.Resolution {
	case core.ResolutionSecond, core.ResolutionMinute:
		if !sec.HasData() {
			return 0, core.ErrNoData
		}
		return sec.Last.Value * 0.0001, nil

	case core.ResolutionTick:
		if !sec.HasData() || sec.Last.Kind != core.SnapshotQuote || sec.Last.Quote == nil {
			return 0, core.ErrNoData
		}
		quote := sec.Last.Quote
		switch order.Side {
		case OrderSideBuy:
			return math.Abs(order.Price - quote.Ask), nil
		case OrderSideSell:
			return math.Abs(order.Price - quote.Bid), nil
		}
		return 0, nil

	default:
		return 0, nil
	}
}
