// Package report renders backtest results for the console.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/tradesim/tradesim/internal/backtest"
	"github.com/tradesim/tradesim/internal/stats"
)

// Preferred metric ordering; anything unlisted renders after, sorted.
var metricOrder = []string{
	stats.MetricTotalTrades,
	stats.MetricAverageWin,
	stats.MetricAverageLoss,
	stats.MetricAnnualReturn,
	stats.MetricDrawdown,
	stats.MetricExpectancy,
	stats.MetricNetProfit,
	stats.MetricSharpeRatio,
	stats.MetricLossRate,
	stats.MetricWinRate,
	stats.MetricProfitLossRatio,
	stats.MetricTradeFrequency,
}

// Console renders a result as a header line plus a metrics table.
type Console struct {
	out io.Writer
}

// NewConsole creates a renderer writing to the given writer.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Render prints the run summary and its Overall metrics. A report
// without an Overall section prints a soft-failure notice instead.
func (c *Console) Render(result *backtest.Result) {
	fmt.Fprintf(c.out, "%s on %s  %s → %s  (%d bars, %d orders, %d fills)\n",
		result.Strategy, result.Symbol,
		result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"),
		result.Bars, result.Orders, result.FilledCount())

	overall, ok := result.Report.Overall()
	if !ok {
		fmt.Fprintln(c.out, "no statistics available: inputs could not be summarized")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	for _, name := range orderedNames(overall) {
		table.Append(name, overall[name])
	}
	table.Render()
}

func orderedNames(section map[string]string) []string {
	names := make([]string, 0, len(section))
	seen := make(map[string]bool, len(section))

	for _, name := range metricOrder {
		if _, ok := section[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range section {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
