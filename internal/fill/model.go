package fill

import (
	"go.uber.org/zap"

	"github.com/tradesim/tradesim/internal/core"
)

// Model simulates order execution against the latest market data. It
// holds no per-order state; every evaluation is a pure function of the
// security view and the order shown to it, so concurrent evaluations
// over different orders need no coordination.
type Model struct {
	log *zap.Logger
}

// NewModel creates a fill model logging through the given logger.
func NewModel(log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	return &Model{log: log}
}

// Fill evaluates one order against the security's current state and
// returns the resulting decision. Unknown order types are a silent
// no-op, and recoverable faults (missing market data) degrade to a
// zero-quantity decision rather than an error.
func (m *Model) Fill(sec core.Security, order Order) Decision {
	switch order.Type {
	case OrderTypeMarket:
		return m.marketFill(sec, order)
	case OrderTypeStopMarket:
		return m.stopFill(sec, order)
	case OrderTypeLimit:
		return m.limitFill(sec, order)
	default:
		return notFilled(order)
	}
}

// marketFill always fills at the current security price adjusted by
// the slippage estimate: up for buys, down for sells.
func (m *Model) marketFill(sec core.Security, order Order) Decision {
	if order.Status == OrderStatusCanceled {
		return notFilled(order)
	}

	slip, err := EstimateSlippage(sec, order)
	if err != nil {
		m.log.Warn("market fill: slippage unavailable",
			zap.String("order_id", order.ID),
			zap.String("symbol", sec.Symbol),
			zap.Error(err))
		return dataUnavailable(order)
	}

	price := sec.Price
	switch order.Side {
	case OrderSideBuy:
		price += slip
	case OrderSideSell:
		price -= slip
	}
	return filledAt(order, price)
}

// stopFill triggers when the current price crosses the stop: below the
// stop for sells, above it for buys. The fill happens at the current
// security price, not the stop price, so gaps through the stop are
// charged to the order.
func (m *Model) stopFill(sec core.Security, order Order) Decision {
	if order.Status == OrderStatusCanceled {
		return notFilled(order)
	}

	switch order.Side {
	case OrderSideSell:
		if sec.Price < order.Price {
			return filledAt(order, sec.Price)
		}
	case OrderSideBuy:
		if sec.Price > order.Price {
			return filledAt(order, sec.Price)
		}
	}
	return notFilled(order)
}

// limitFill triggers when the best price inside the current observation
// period satisfies the limit: the bar low for buys, the bar high for
// sells, or the single last value when no bar is available. The fill
// price is the limit price itself.
func (m *Model) limitFill(sec core.Security, order Order) Decision {
	if order.Status == OrderStatusCanceled {
		return notFilled(order)
	}
	if !sec.HasData() {
		m.log.Warn("limit fill: no market data",
			zap.String("order_id", order.ID),
			zap.String("symbol", sec.Symbol))
		return dataUnavailable(order)
	}

	low, high := sec.Last.Range()
	switch order.Side {
	case OrderSideBuy:
		if low < order.Price {
			return filledAt(order, order.Price)
		}
	case OrderSideSell:
		if high > order.Price {
			return filledAt(order, order.Price)
		}
	}
	return notFilled(order)
}

func filledAt(order Order, price float64) Decision {
	return Decision{
		Outcome:      OutcomeFilled,
		Status:       OrderStatusFilled,
		FillPrice:    price,
		FillQuantity: order.Quantity,
	}
}

func notFilled(order Order) Decision {
	return Decision{Outcome: OutcomeNotFilled, Status: order.Status}
}

func dataUnavailable(order Order) Decision {
	return Decision{Outcome: OutcomeDataUnavailable, Status: order.Status}
}
