package stats

import (
	"math"
	"time"
)

// TradeFrequency is a coarse label for trading cadence inferred from
// trade density. Descriptive only.
type TradeFrequency string

const (
	FrequencySecondly TradeFrequency = "Secondly"
	FrequencyMinutely TradeFrequency = "Minutely"
	FrequencyHourly   TradeFrequency = "Hourly"
	FrequencyDaily    TradeFrequency = "Daily"
	FrequencyWeekly   TradeFrequency = "Weekly"
)

// Frequency classifies the average daily trade count over the period.
// A zero-length period defaults to Weekly.
func Frequency(totalTrades float64, start, end time.Time) TradeFrequency {
	period := end.Sub(start).Hours() / 24
	if period == 0 {
		return FrequencyWeekly
	}

	averageDaily := totalTrades / period

	switch {
	case averageDaily > 200:
		return FrequencySecondly
	case averageDaily > 50:
		return FrequencyMinutely
	case averageDaily > 5:
		return FrequencyHourly
	case averageDaily > 0.75:
		return FrequencyDaily
	default:
		return FrequencyWeekly
	}
}

// Drawdown returns the worst peak-to-trough decline of the equity
// curve as a fraction of the peak, rounded to the given precision.
//
// Single forward pass tracking the running maximum and the largest
// absolute peak-trough gap seen so far. Only the single worst
// excursion is reported; this intentionally preserves the behavior of
// updating the candidate pair by absolute gap, which can under-report
// on certain pathological sequences.
func Drawdown(equity *Series, rounding int) float64 {
	values := equity.Values()
	if len(values) == 0 {
		return 0
	}

	priceMaximum := 0
	previousMinimum := 0
	previousMaximum := 0

	for i := range values {
		if values[i] >= values[priceMaximum] {
			priceMaximum = i
		} else if values[priceMaximum]-values[i] > values[previousMaximum]-values[previousMinimum] {
			previousMaximum = priceMaximum
			previousMinimum = i
		}
	}

	if values[previousMaximum] == 0 {
		return 0
	}
	return round((values[previousMaximum]-values[previousMinimum])/values[previousMaximum], rounding)
}

// SharpeRatio annualizes the daily return series: mean daily return
// times √252 over the population standard deviation of daily returns.
// Zero when the series is empty or has no variance. Results above 10
// in magnitude are rounded to whole numbers, everything else to one
// decimal.
func SharpeRatio(performance *Series) float64 {
	mean, stdDev := sharpeComponents(performance.Values())

	var sharpe float64
	if stdDev > 0 {
		sharpe = mean * math.Sqrt(252) / stdDev
	}

	if math.Abs(sharpe) > 10 {
		return math.Round(sharpe)
	}
	return round(sharpe, 1)
}

// sharpeComponents returns the mean and population standard deviation
// of the return series, both zero for an empty series.
func sharpeComponents(returns []float64) (mean, stdDev float64) {
	if len(returns) == 0 {
		return 0, 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean = sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev = math.Sqrt(variance / float64(len(returns)))
	return mean, stdDev
}

// ProfitLossRatio returns the average win over the absolute average
// loss, rounded to two decimals. The sentinel -1 signals that there
// are no losing trades to compare against.
func ProfitLossRatio(averageWin, averageLoss float64) float64 {
	if averageLoss == 0 {
		return -1
	}
	return round(averageWin/math.Abs(averageLoss), 2)
}

func round(value float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(value*pow) / pow
}
