package backtest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tradesim/tradesim/internal/core"
	"github.com/tradesim/tradesim/internal/fill"
	"github.com/tradesim/tradesim/internal/ledger"
	"github.com/tradesim/tradesim/internal/metrics"
	"github.com/tradesim/tradesim/internal/stats"
	"github.com/tradesim/tradesim/internal/strategy"
)

const hoursPerYear = 24 * 365.25

// Backtester runs strategy backtests against historical data.
type Backtester struct {
	provider BarProvider
	model    *fill.Model
	gen      *stats.Generator
	reg      *metrics.Registry
	log      *zap.Logger
}

// New creates a Backtester. The metrics registry may be nil.
func New(provider BarProvider, reg *metrics.Registry, log *zap.Logger) *Backtester {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backtester{
		provider: provider,
		model:    fill.NewModel(log),
		gen:      stats.NewGenerator(log),
		reg:      reg,
		log:      log,
	}
}

// Run replays the configured period bar by bar. Open orders are
// evaluated against each new bar before the strategy sees it, so an
// order emitted on one bar can fill no earlier than the next. An
// intent with canceled status retracts the matching open order instead
// of submitting a new one. The run ends with a statistics report over
// the accumulated ledger.
func (b *Backtester) Run(ctx context.Context, strat strategy.Strategy, cfg Config) (*Result, error) {
	started := time.Now()

	bars, err := b.provider.FetchBars(ctx, cfg.Symbol, cfg.Start, cfg.End)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, core.ErrNoData
	}

	book := ledger.New(cfg.StartingCash)
	var open []fill.Order
	var fills []fill.Event
	var totalOrders int

	for i := range bars {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		bar := bars[i]
		sec := core.Security{
			Symbol:     cfg.Symbol,
			Resolution: cfg.Resolution,
			Price:      bar.Close,
			Last:       core.NewBarSnapshot(bar),
		}

		open = b.evaluate(sec, bar.Time, open, book, &fills)
		book.MarkToMarket(bar.Time, bar.Close)

		intents := strat.OnBar(strategy.Context{
			Security: sec,
			Position: book.Position(),
			Cash:     book.Cash(),
		})
		for _, order := range intents {
			if order.Status == fill.OrderStatusCanceled {
				open = retract(open, order.ID)
				continue
			}
			if err := order.Validate(); err != nil {
				b.log.Warn("rejecting order intent",
					zap.String("strategy", strat.Name()),
					zap.Error(err))
				continue
			}
			open = append(open, order)
			totalOrders++
		}

		b.reg.BarReplayed()
	}

	fraction := cfg.FractionOfYears
	if fraction == 0 {
		fraction = bars[len(bars)-1].Time.Sub(bars[0].Time).Hours() / hoursPerYear
	}

	report := b.gen.Generate(
		book.Equity(), book.ProfitLoss(), book.Performance(),
		cfg.StartingCash, fraction)

	last, _ := book.Equity().Last()
	b.reg.BacktestCompleted(time.Since(started))
	b.log.Info("backtest complete",
		zap.String("strategy", strat.Name()),
		zap.String("symbol", cfg.Symbol),
		zap.Int("bars", len(bars)),
		zap.Int("orders", totalOrders),
		zap.Float64("final_equity", last.Value))

	return &Result{
		Strategy:    strat.Name(),
		Symbol:      cfg.Symbol,
		StartDate:   bars[0].Time,
		EndDate:     bars[len(bars)-1].Time,
		Bars:        len(bars),
		Orders:      totalOrders,
		Fills:       fills,
		FinalEquity: last.Value,
		Report:      report,
	}, nil
}

// retract removes a live order by ID in response to a cancellation
// intent. Unknown IDs are a no-op; the order may already have filled.
func retract(open []fill.Order, id string) []fill.Order {
	for i := range open {
		if open[i].ID == id {
			return append(open[:i], open[i+1:]...)
		}
	}
	return open
}

// evaluate runs every open order through the fill model, applies filled
// decisions to the ledger, and returns the orders still open.
func (b *Backtester) evaluate(sec core.Security, at time.Time, open []fill.Order, book *ledger.Ledger, fills *[]fill.Event) []fill.Order {
	still := open[:0]
	for i := range open {
		order := open[i]
		decision := b.model.Fill(sec, order)
		b.reg.OrderEvaluated(order.Type, decision.Outcome)

		event := decision.Apply(&order, at)
		if decision.Outcome == fill.OutcomeFilled {
			book.ApplyFill(event)
			*fills = append(*fills, event)
			continue
		}
		if order.IsOpen() {
			still = append(still, order)
		}
	}
	return still
}
