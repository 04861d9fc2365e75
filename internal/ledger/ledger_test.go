package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesim/tradesim/internal/fill"
)

func at(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestLedger_BuyThenSellRealizesProfit(t *testing.T) {
	l := New(10000)

	l.ApplyFill(fill.Event{
		OrderID:      "a",
		Side:         fill.OrderSideBuy,
		FillQuantity: 100,
		FillPrice:    50,
		Status:       fill.OrderStatusFilled,
		Time:         at(0),
	})

	assert.Equal(t, 5000.0, l.Cash())
	assert.Equal(t, int64(100), l.Position())

	l.ApplyFill(fill.Event{
		OrderID:      "b",
		Side:         fill.OrderSideSell,
		FillQuantity: 100,
		FillPrice:    55,
		Status:       fill.OrderStatusFilled,
		Time:         at(1),
	})

	assert.Equal(t, 10500.0, l.Cash())
	assert.Zero(t, l.Position())

	pnl := l.ProfitLoss()
	require.Equal(t, 1, pnl.Len())
	assert.Equal(t, 500.0, pnl.Values()[0])
}

func TestLedger_WeightedAverageCost(t *testing.T) {
	l := New(100000)

	l.ApplyFill(fill.Event{Side: fill.OrderSideBuy, FillQuantity: 100, FillPrice: 10, Time: at(0)})
	l.ApplyFill(fill.Event{Side: fill.OrderSideBuy, FillQuantity: 100, FillPrice: 20, Time: at(1)})
	// Average cost is now 15; selling at 15 realizes nothing.
	l.ApplyFill(fill.Event{Side: fill.OrderSideSell, FillQuantity: 200, FillPrice: 15, Time: at(2)})

	pnl := l.ProfitLoss()
	require.Equal(t, 1, pnl.Len())
	assert.InDelta(t, 0.0, pnl.Values()[0], 1e-9)
	assert.Equal(t, 100000.0, l.Cash())
}

func TestLedger_EmptyEventIgnored(t *testing.T) {
	l := New(1000)

	l.ApplyFill(fill.Event{Side: fill.OrderSideBuy, FillQuantity: 0, FillPrice: 50, Time: at(0)})

	assert.Equal(t, 1000.0, l.Cash())
	assert.Zero(t, l.Position())
	assert.Zero(t, l.ProfitLoss().Len())
}

func TestLedger_MarkToMarketRecordsEquityAndReturns(t *testing.T) {
	l := New(1000)

	l.MarkToMarket(at(0), 10)
	l.MarkToMarket(at(1), 10)

	l.ApplyFill(fill.Event{Side: fill.OrderSideBuy, FillQuantity: 50, FillPrice: 10, Time: at(1)})
	l.MarkToMarket(at(2), 12) // equity = 500 cash + 50*12 = 1100

	equity := l.Equity()
	require.Equal(t, 3, equity.Len())
	assert.Equal(t, []float64{1000, 1000, 1100}, equity.Values())

	perf := l.Performance()
	require.Equal(t, 2, perf.Len())
	assert.InDelta(t, 0.0, perf.Values()[0], 1e-9)
	assert.InDelta(t, 0.1, perf.Values()[1], 1e-9)
}

func TestLedger_SellClampedToHeldQuantity(t *testing.T) {
	l := New(10000)

	l.ApplyFill(fill.Event{Side: fill.OrderSideBuy, FillQuantity: 50, FillPrice: 10, Time: at(0)})
	l.ApplyFill(fill.Event{Side: fill.OrderSideSell, FillQuantity: 100, FillPrice: 12, Time: at(1)})

	// Only the 50 held shares settle; the position never goes short.
	assert.Zero(t, l.Position())
	assert.Equal(t, 10000.0-500+600, l.Cash())

	pnl := l.ProfitLoss()
	require.Equal(t, 1, pnl.Len())
	assert.Equal(t, 100.0, pnl.Values()[0])
}

func TestLedger_SellFromFlatIgnored(t *testing.T) {
	l := New(1000)

	l.ApplyFill(fill.Event{Side: fill.OrderSideSell, FillQuantity: 100, FillPrice: 10, Time: at(0)})

	assert.Equal(t, 1000.0, l.Cash())
	assert.Zero(t, l.Position())
	assert.Zero(t, l.ProfitLoss().Len())
}
