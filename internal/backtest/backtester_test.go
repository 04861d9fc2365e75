package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradesim/tradesim/internal/core"
	"github.com/tradesim/tradesim/internal/fill"
	"github.com/tradesim/tradesim/internal/stats"
	"github.com/tradesim/tradesim/internal/strategy"
)

// sliceProvider serves a fixed bar sequence.
type sliceProvider struct {
	bars []core.Bar
	err  error
}

func (p *sliceProvider) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	return p.bars, p.err
}

// scripted emits pre-planned orders keyed by 1-based bar number.
type scripted struct {
	script map[int][]fill.Order
	bar    int
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) OnBar(ctx strategy.Context) []fill.Order {
	s.bar++
	return s.script[s.bar]
}

func dailyBars(closes ...float64) []core.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, len(closes))
	for i, c := range closes {
		bars[i] = core.Bar{
			Symbol: "EURUSD",
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
			Time:   start.AddDate(0, 0, i),
		}
	}
	return bars
}

func testConfig() Config {
	return Config{
		Symbol:       "EURUSD",
		StartingCash: 100000,
		Resolution:   core.ResolutionDaily,
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRun_MarketOrderFillsOnNextBar(t *testing.T) {
	provider := &sliceProvider{bars: dailyBars(100, 101, 102, 103)}
	strat := &scripted{script: map[int][]fill.Order{
		2: {fill.NewOrder("EURUSD", fill.OrderSideBuy, fill.OrderTypeMarket, 10, 0)},
	}}

	bt := New(provider, nil, zap.NewNop())
	result, err := bt.Run(context.Background(), strat, testConfig())
	require.NoError(t, err)

	require.Len(t, result.Fills, 1)
	event := result.Fills[0]
	// Daily resolution carries no slippage model: filled at bar 3's close.
	assert.Equal(t, 102.0, event.FillPrice)
	assert.Equal(t, int64(10), event.FillQuantity)
	assert.Equal(t, fill.OrderStatusFilled, event.Status)
	assert.Equal(t, dailyBars(100, 101, 102)[2].Time, event.Time)

	assert.Equal(t, 4, result.Bars)
	assert.Equal(t, 1, result.Orders)
	// 100000 - 10*102 cash, 10 shares at 103 on the last bar.
	assert.Equal(t, 100000.0-1020+1030, result.FinalEquity)

	_, ok := result.Report.Overall()
	assert.True(t, ok)
}

func TestRun_RoundTripShowsUpInReport(t *testing.T) {
	provider := &sliceProvider{bars: dailyBars(100, 100, 100, 110, 110)}
	strat := &scripted{script: map[int][]fill.Order{
		1: {fill.NewOrder("EURUSD", fill.OrderSideBuy, fill.OrderTypeMarket, 100, 0)},
		4: {fill.NewOrder("EURUSD", fill.OrderSideSell, fill.OrderTypeMarket, 100, 0)},
	}}

	bt := New(provider, nil, zap.NewNop())
	result, err := bt.Run(context.Background(), strat, testConfig())
	require.NoError(t, err)

	require.Equal(t, 2, result.FilledCount())

	overall, ok := result.Report.Overall()
	require.True(t, ok)
	assert.Equal(t, "1", overall[stats.MetricTotalTrades])
	assert.Equal(t, "100%", overall[stats.MetricWinRate])
	// Bought at 100, sold at 110, 100 shares on 100k: +1%.
	assert.Equal(t, "1%", overall[stats.MetricNetProfit])
}

func TestRun_LimitOrderWaitsForTouch(t *testing.T) {
	provider := &sliceProvider{bars: dailyBars(100, 100, 99, 95)}
	strat := &scripted{script: map[int][]fill.Order{
		// Buy limit below the market; bar lows are close-0.5.
		1: {fill.NewOrder("EURUSD", fill.OrderSideBuy, fill.OrderTypeLimit, 10, 96)},
	}}

	bt := New(provider, nil, zap.NewNop())
	result, err := bt.Run(context.Background(), strat, testConfig())
	require.NoError(t, err)

	require.Len(t, result.Fills, 1)
	// Touched on the 95 bar (low 94.5); fills at the limit price.
	assert.Equal(t, 96.0, result.Fills[0].FillPrice)
}

func TestRun_CancellationRetractsOpenOrder(t *testing.T) {
	stop := fill.NewOrder("EURUSD", fill.OrderSideSell, fill.OrderTypeStopMarket, 10, 105)
	provider := &sliceProvider{bars: dailyBars(110, 110, 100, 90)}
	strat := &scripted{script: map[int][]fill.Order{
		1: {stop},
		2: {fill.NewCancellation(stop.ID)},
	}}

	bt := New(provider, nil, zap.NewNop())
	result, err := bt.Run(context.Background(), strat, testConfig())
	require.NoError(t, err)

	// The later bars cross the stop price, but the order is gone.
	assert.Empty(t, result.Fills)
	assert.Equal(t, 1, result.Orders)
}

func TestRun_StopRetractedAfterFlatten(t *testing.T) {
	provider := &sliceProvider{bars: dailyBars(100, 100, 100, 110, 108, 107.9, 100, 100)}
	strat := strategy.NewSMACross(2, 3, 100, 0.02)

	bt := New(provider, nil, zap.NewNop())
	result, err := bt.Run(context.Background(), strat, testConfig())
	require.NoError(t, err)

	// Entry fill plus the death-cross flatten. The protective stop
	// parked at 107.8 is retracted on exit; without that, the drop to
	// 100 would fill it again from a flat book and leave the run short.
	require.Len(t, result.Fills, 2)
	assert.Equal(t, fill.OrderSideBuy, result.Fills[0].Side)
	assert.Equal(t, 108.0, result.Fills[0].FillPrice)
	assert.Equal(t, fill.OrderSideSell, result.Fills[1].Side)
	assert.Equal(t, 100.0, result.Fills[1].FillPrice)
}

func TestRun_UnfilledOrdersStayOpen(t *testing.T) {
	provider := &sliceProvider{bars: dailyBars(100, 101, 102)}
	strat := &scripted{script: map[int][]fill.Order{
		1: {fill.NewOrder("EURUSD", fill.OrderSideSell, fill.OrderTypeStopMarket, 10, 90)},
	}}

	bt := New(provider, nil, zap.NewNop())
	result, err := bt.Run(context.Background(), strat, testConfig())
	require.NoError(t, err)

	assert.Empty(t, result.Fills)
	assert.Equal(t, 1, result.Orders)
}

func TestRun_InvalidIntentRejected(t *testing.T) {
	provider := &sliceProvider{bars: dailyBars(100, 101)}
	strat := &scripted{script: map[int][]fill.Order{
		1: {fill.NewOrder("EURUSD", fill.OrderSideBuy, fill.OrderTypeLimit, 10, 0)},
	}}

	bt := New(provider, nil, zap.NewNop())
	result, err := bt.Run(context.Background(), strat, testConfig())
	require.NoError(t, err)

	assert.Zero(t, result.Orders)
	assert.Empty(t, result.Fills)
}

func TestRun_NoBars(t *testing.T) {
	bt := New(&sliceProvider{}, nil, zap.NewNop())
	_, err := bt.Run(context.Background(), &scripted{}, testConfig())
	assert.ErrorIs(t, err, core.ErrNoData)
}

func TestRun_ProviderError(t *testing.T) {
	boom := errors.New("feed down")
	bt := New(&sliceProvider{err: boom}, nil, zap.NewNop())
	_, err := bt.Run(context.Background(), &scripted{}, testConfig())
	assert.ErrorIs(t, err, boom)
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bt := New(&sliceProvider{bars: dailyBars(100, 101)}, nil, zap.NewNop())
	_, err := bt.Run(ctx, &scripted{}, testConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
