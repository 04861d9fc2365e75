// Package fill approximates how orders would execute against
// historical market data.
package fill

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Order validation errors.
var (
	// ErrInvalidSymbol indicates an invalid or empty symbol.
	ErrInvalidSymbol = errors.New("fill: invalid symbol")
	// ErrInvalidQuantity indicates an invalid quantity.
	ErrInvalidQuantity = errors.New("fill: invalid quantity")
	// ErrInvalidPrice indicates an invalid price for limit orders.
	ErrInvalidPrice = errors.New("fill: invalid price for limit order")
	// ErrInvalidStopPrice indicates an invalid trigger price for stop orders.
	ErrInvalidStopPrice = errors.New("fill: invalid trigger price for stop order")
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	// OrderSideBuy represents a buy order.
	OrderSideBuy OrderSide = "BUY"
	// OrderSideSell represents a sell order.
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of order execution.
type OrderType string

const (
	// OrderTypeMarket executes at current market price plus slippage.
	OrderTypeMarket OrderType = "MARKET"
	// OrderTypeLimit executes at the limit price or better.
	OrderTypeLimit OrderType = "LIMIT"
	// OrderTypeStopMarket converts to a market fill once the trigger
	// price is crossed.
	OrderTypeStopMarket OrderType = "STOP_MARKET"
)

// OrderStatus represents the lifecycle status of an order.
type OrderStatus string

const (
	// OrderStatusSubmitted indicates the order is live and awaiting a fill.
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	// OrderStatusFilled indicates the order has been completely filled.
	OrderStatusFilled OrderStatus = "FILLED"
	// OrderStatusPartiallyFilled indicates the order has been partially filled.
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	// OrderStatusCanceled indicates the order was canceled. Canceled is
	// absorbing: the engine never transitions a canceled order.
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// Order is a trade intent evaluated by the model. Price holds the limit
// or stop trigger price and, after a fill is applied, the fill price.
type Order struct {
	ID        string
	Symbol    string
	Side      OrderSide
	Type      OrderType
	Quantity  int64
	Price     float64
	Status    OrderStatus
	CreatedAt time.Time
}

// NewOrder creates a submitted order with a fresh ID.
func NewOrder(symbol string, side OrderSide, typ OrderType, quantity int64, price float64) Order {
	return Order{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Side:      side,
		Type:      typ,
		Quantity:  quantity,
		Price:     price,
		Status:    OrderStatusSubmitted,
		CreatedAt: time.Now(),
	}
}

// NewCancellation creates an intent that retracts the live order with
// the given ID. It carries no fill-relevant fields; the backtest driver
// recognizes it by its canceled status and drops the matching order.
func NewCancellation(id string) Order {
	return Order{ID: id, Status: OrderStatusCanceled}
}

// Validate checks the order has valid required fields.
func (o Order) Validate() error {
	if o.Symbol == "" {
		return ErrInvalidSymbol
	}
	if o.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if o.Type == OrderTypeLimit && o.Price <= 0 {
		return ErrInvalidPrice
	}
	if o.Type == OrderTypeStopMarket && o.Price <= 0 {
		return ErrInvalidStopPrice
	}
	return nil
}

// IsOpen returns true if the order is still eligible for fills.
func (o Order) IsOpen() bool {
	return o.Status == OrderStatusSubmitted || o.Status == OrderStatusPartiallyFilled
}

// Outcome classifies the result of one fill evaluation.
type Outcome string

const (
	// OutcomeFilled indicates the fill conditions were met.
	OutcomeFilled Outcome = "filled"
	// OutcomeNotFilled indicates the evaluation ran but conditions were
	// not met (or the order is canceled / of an unknown type).
	OutcomeNotFilled Outcome = "not_filled"
	// OutcomeDataUnavailable indicates the evaluation could not run
	// because required market data was missing.
	OutcomeDataUnavailable Outcome = "data_unavailable"
)

// Decision is the model's answer for a single fill evaluation. The
// engine never mutates the order it was shown; the caller applies the
// decision to its own order record.
type Decision struct {
	Outcome      Outcome
	Status       OrderStatus
	FillPrice    float64
	FillQuantity int64
}

// Event is the immutable record of one fill attempt, produced when a
// decision is applied to an order.
type Event struct {
	OrderID      string
	Symbol       string
	Side         OrderSide
	FillQuantity int64
	FillPrice    float64
	Status       OrderStatus
	Time         time.Time
}

// Filled reports whether the event carries an actual execution.
func (e Event) Filled() bool {
	return e.FillQuantity != 0
}

// Apply transfers the decision onto the caller-owned order and returns
// the resulting event. This is the only place order state changes: a
// filled decision sets status and overwrites Price with the fill price,
// anything else leaves the order untouched.
func (d Decision) Apply(order *Order, at time.Time) Event {
	if d.Outcome == OutcomeFilled {
		order.Status = d.Status
		order.Price = d.FillPrice
	}
	return Event{
		OrderID:      order.ID,
		Symbol:       order.Symbol,
		Side:         order.Side,
		FillQuantity: d.FillQuantity,
		FillPrice:    d.FillPrice,
		Status:       order.Status,
		Time:         at,
	}
}
