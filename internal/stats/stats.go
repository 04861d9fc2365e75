package stats

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Report maps a section name to formatted metric values. Callers must
// treat a report with no Overall section as a soft failure: the inputs
// were too pathological to summarize, not a crash.
type Report map[string]map[string]string

// SectionOverall is the whole-period section of a report.
const SectionOverall = "Overall"

// Metric names within a report section.
const (
	MetricTotalTrades     = "Total Trades"
	MetricAverageWin      = "Average Win"
	MetricAverageLoss     = "Average Loss"
	MetricAnnualReturn    = "Annual Return"
	MetricDrawdown        = "Drawdown"
	MetricExpectancy      = "Expectancy"
	MetricNetProfit       = "Net Profit"
	MetricSharpeRatio     = "Sharpe Ratio"
	MetricLossRate        = "Loss Rate"
	MetricWinRate         = "Win Rate"
	MetricProfitLossRatio = "Profit-Loss Ratio"
	MetricTradeFrequency  = "Trade Frequency"
)

// Overall returns the whole-period section, or false when the report
// is a soft failure.
func (r Report) Overall() (map[string]string, bool) {
	section, ok := r[SectionOverall]
	return section, ok
}

// Summary holds the unformatted numbers behind a report.
//
// NetProfit and AnnualReturn are deliberately distinct notions of
// return: NetProfit is measured directly off the equity curve (final
// equity over starting cash), while the per-year win/loss totals are
// normalized against running cash trade by trade. The two must never
// be conflated.
type Summary struct {
	TotalTrades  int
	TotalWins    int
	TotalLosses  int
	AverageWin   float64 // mean normalized winning-trade return
	AverageLoss  float64 // mean normalized losing-trade return, <= 0
	WinRate      float64
	LossRate     float64
	NetProfit    float64 // equity-curve based total return
	AnnualReturn float64 // NetProfit scaled by the period's year fraction
	Frequency    TradeFrequency
}

// Generator produces statistics reports. Stateless between calls.
type Generator struct {
	log *zap.Logger
}

// NewGenerator creates a Generator logging through the given logger.
func NewGenerator(log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{log: log}
}

// Generate summarizes a completed backtest: the equity curve, the
// per-closed-trade profit/loss series, and the fractional daily return
// series, given the starting cash and the period length expressed as a
// fraction of years (1 = one year).
//
// Pathological inputs (non-positive starting cash, zeroed running
// cash) are logged and yield an empty report rather than an error;
// divide-by-zero cases inside the metrics are guarded with explicit
// zero or sentinel fallbacks.
func (g *Generator) Generate(equity, profitLoss, performance *Series, startingCash, fractionOfYears float64) Report {
	report := Report{}

	summary, ok := g.summarize(equity, profitLoss, startingCash, fractionOfYears)
	if !ok {
		return report
	}

	averageWinRatio := 0.0
	if summary.AverageLoss != 0 {
		averageWinRatio = math.Abs(summary.AverageWin / summary.AverageLoss)
	}

	mean, stdDev := sharpeComponents(performance.Values())
	g.log.Debug("sharpe components",
		zap.Float64("avg_daily_performance", mean),
		zap.Float64("std_dev", stdDev))
	sharpe := SharpeRatio(performance)

	profitLossRatio := ProfitLossRatio(summary.AverageWin, summary.AverageLoss)
	profitLossRatioHuman := formatRounded(profitLossRatio, 2)
	if profitLossRatio == -1 {
		profitLossRatioHuman = "0"
	}

	report[SectionOverall] = map[string]string{
		MetricTotalTrades:     strconv.Itoa(summary.TotalTrades),
		MetricAverageWin:      formatRounded(summary.AverageWin*100, 2) + "%",
		MetricAverageLoss:     formatRounded(summary.AverageLoss*100, 2) + "%",
		MetricAnnualReturn:    formatRounded(summary.AnnualReturn*100, 3) + "%",
		MetricDrawdown:        formatRounded(Drawdown(equity, 3)*100, 3) + "%",
		MetricExpectancy:      formatRounded((summary.WinRate*averageWinRatio)-summary.LossRate, 3),
		MetricNetProfit:       formatRounded(summary.NetProfit*100, 3) + "%",
		MetricSharpeRatio:     formatRounded(sharpe, 1),
		MetricLossRate:        formatRounded(summary.LossRate*100, 0) + "%",
		MetricWinRate:         formatRounded(summary.WinRate*100, 0) + "%",
		MetricProfitLossRatio: profitLossRatioHuman,
		MetricTradeFrequency:  string(summary.Frequency) + " trades",
	}
	return report
}

// summarize walks the closed-trade ledger and the equity curve into a
// Summary. Returns false when the inputs cannot be summarized at all.
func (g *Generator) summarize(equity, profitLoss *Series, startingCash, fractionOfYears float64) (Summary, bool) {
	summary := Summary{Frequency: FrequencyDaily}

	runningCash := startingCash
	var years []int
	annualTrades := make(map[int]int)
	annualWins := make(map[int]int)
	annualLosses := make(map[int]int)
	annualWinTotal := make(map[int]float64)
	annualLossTotal := make(map[int]float64)

	for _, trade := range profitLoss.Points() {
		if runningCash == 0 {
			g.log.Error("statistics generate: running cash reached zero",
				zap.Time("trade", trade.Time))
			return Summary{}, false
		}

		year := trade.Time.Year()
		if _, seen := annualTrades[year]; !seen {
			years = append(years, year)
			annualTrades[year] = 0
			annualWins[year] = 0
			annualWinTotal[year] = 0
			annualLosses[year] = 0
			annualLossTotal[year] = 0
		}

		annualTrades[year]++

		// Normalize against cash before this trade's PnL is applied.
		if trade.Value > 0 {
			annualWins[year]++
			annualWinTotal[year] += trade.Value / runningCash
		} else {
			annualLosses[year]++
			annualLossTotal[year] += trade.Value / runningCash
		}

		runningCash += trade.Value
	}

	annualNetProfit := make(map[int]float64, len(years))
	for _, year := range years {
		annualNetProfit[year] = annualWinTotal[year] + annualLossTotal[year]
	}

	if profitLoss.Len() > 0 {
		var winTotal, lossTotal float64
		for _, year := range years {
			summary.TotalTrades += annualTrades[year]
			summary.TotalWins += annualWins[year]
			summary.TotalLosses += annualLosses[year]
			winTotal += annualWinTotal[year]
			lossTotal += annualLossTotal[year]
		}

		if startingCash == 0 {
			g.log.Error("statistics generate: starting cash is zero")
		} else if last, ok := equity.Last(); ok {
			summary.NetProfit = (last.Value / startingCash) - 1
		}

		if fractionOfYears > 0 {
			summary.AnnualReturn = summary.NetProfit / fractionOfYears
		} else {
			summary.AnnualReturn = summary.NetProfit
		}
		if math.IsNaN(summary.AnnualReturn) || math.IsInf(summary.AnnualReturn, 0) {
			g.log.Error("statistics generate: annual return degenerate, falling back to per-year mean")
			summary.AnnualReturn = meanOf(annualNetProfit)
		}

		if summary.TotalWins > 0 {
			summary.AverageWin = winTotal / float64(summary.TotalWins)
		}
		if summary.TotalLosses > 0 {
			summary.AverageLoss = lossTotal / float64(summary.TotalLosses)
		}
		if summary.TotalTrades > 0 {
			summary.WinRate = round(float64(summary.TotalWins)/float64(summary.TotalTrades), 5)
			summary.LossRate = round(float64(summary.TotalLosses)/float64(summary.TotalTrades), 5)
		}

		first, _ := equity.First()
		last, _ := equity.Last()
		summary.Frequency = Frequency(float64(summary.TotalTrades), first.Time, last.Time)
	}

	return summary, true
}

func meanOf(byYear map[int]float64) float64 {
	if len(byYear) == 0 {
		return 0
	}
	var sum float64
	for _, v := range byYear {
		sum += v
	}
	return sum / float64(len(byYear))
}

// formatRounded renders a value rounded to the given decimal places,
// with trailing zeros trimmed so "0" and "50" stay compact.
func formatRounded(value float64, places int) string {
	s := strconv.FormatFloat(round(value, places), 'f', places, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "-0" || s == "" {
		s = "0"
	}
	return s
}
