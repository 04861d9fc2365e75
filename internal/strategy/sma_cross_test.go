package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesim/tradesim/internal/core"
	"github.com/tradesim/tradesim/internal/fill"
)

func barCtx(close float64, position int64) Context {
	return Context{
		Security: core.Security{
			Symbol:     "EURUSD",
			Resolution: core.ResolutionDaily,
			Price:      close,
			Last: core.NewBarSnapshot(core.Bar{
				Symbol: "EURUSD",
				Open:   close,
				High:   close,
				Low:    close,
				Close:  close,
				Time:   time.Now(),
			}),
		},
		Position: position,
		Cash:     10000,
	}
}

func TestSMACross_GoldenCrossOpensLongWithStop(t *testing.T) {
	s := NewSMACross(2, 3, 100, 0.02)

	// Declining then sharply rising closes force the fast MA across the slow.
	var orders []fill.Order
	for _, close := range []float64{10, 9, 8, 7, 12} {
		orders = append(orders, s.OnBar(barCtx(close, 0))...)
	}

	require.Len(t, orders, 2)
	assert.Equal(t, fill.OrderTypeMarket, orders[0].Type)
	assert.Equal(t, fill.OrderSideBuy, orders[0].Side)
	assert.Equal(t, int64(100), orders[0].Quantity)

	assert.Equal(t, fill.OrderTypeStopMarket, orders[1].Type)
	assert.Equal(t, fill.OrderSideSell, orders[1].Side)
	assert.InDelta(t, 12*0.98, orders[1].Price, 1e-9)
}

func TestSMACross_DeathCrossFlattens(t *testing.T) {
	s := NewSMACross(2, 3, 100, 0.02)

	closes := []float64{7, 8, 9, 10, 6}
	var orders []fill.Order
	for _, close := range closes {
		orders = append(orders, s.OnBar(barCtx(close, 100))...)
	}

	require.Len(t, orders, 1)
	assert.Equal(t, fill.OrderSideSell, orders[0].Side)
	assert.Equal(t, fill.OrderTypeMarket, orders[0].Type)
	assert.Equal(t, int64(100), orders[0].Quantity)
}

func TestSMACross_DeathCrossRetractsStop(t *testing.T) {
	s := NewSMACross(2, 3, 100, 0.02)

	var opened []fill.Order
	for _, close := range []float64{10, 9, 8, 7, 12} {
		opened = append(opened, s.OnBar(barCtx(close, 0))...)
	}
	require.Len(t, opened, 2)
	stopID := opened[1].ID

	var exit []fill.Order
	for _, close := range []float64{6, 4} {
		exit = append(exit, s.OnBar(barCtx(close, 100))...)
	}

	// The flatten plus a cancellation for the parked stop.
	require.Len(t, exit, 2)
	assert.Equal(t, fill.OrderSideSell, exit[0].Side)
	assert.Equal(t, fill.OrderTypeMarket, exit[0].Type)
	assert.Equal(t, stopID, exit[1].ID)
	assert.Equal(t, fill.OrderStatusCanceled, exit[1].Status)
}

func TestSMACross_SilentUntilWarm(t *testing.T) {
	s := NewSMACross(2, 3, 100, 0.02)

	assert.Nil(t, s.OnBar(barCtx(10, 0)))
	assert.Nil(t, s.OnBar(barCtx(11, 0)))
	assert.Nil(t, s.OnBar(barCtx(12, 0)))
}
