package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tradesim/tradesim/internal/config"
	"github.com/tradesim/tradesim/internal/storage/results"
)

var (
	runsLimit int
	runsKeep  int
)

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List saved backtest runs or show one in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list")
	runsCmd.Flags().IntVar(&runsKeep, "keep", 0, "Prune the store down to the newest N runs before listing")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = config.Defaults().Storage.DSN
	}

	store, err := results.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("opening results store: %w", err)
	}
	defer store.Close()

	if len(args) == 1 {
		return showRun(cmd, store, args[0])
	}

	if runsKeep > 0 {
		removed, err := store.PruneRuns(cmd.Context(), runsKeep)
		if err != nil {
			return fmt.Errorf("pruning runs: %w", err)
		}
		if removed > 0 {
			fmt.Printf("pruned %d runs\n", removed)
		}
	}
	return listRuns(cmd, store)
}

func listRuns(cmd *cobra.Command, store results.Store) error {
	runs, err := store.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no saved runs")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Strategy", "Symbol", "Period", "Final Equity", "Created")
	for _, run := range runs {
		table.Append(
			run.ID,
			run.Strategy,
			run.Symbol,
			fmt.Sprintf("%s → %s", run.StartDate.Format("2006-01-02"), run.EndDate.Format("2006-01-02")),
			fmt.Sprintf("%.2f", run.FinalEquity),
			run.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	table.Render()
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func showRun(cmd *cobra.Command, store results.Store, id string) error {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("fetching run %s: %w", id, err)
	}

	fmt.Printf("%s on %s  %s → %s\n", run.Strategy, run.Symbol,
		run.StartDate.Format("2006-01-02"), run.EndDate.Format("2006-01-02"))
	fmt.Printf("starting cash %.2f, final equity %.2f, %d bars, %d orders, %d fills\n",
		run.StartingCash, run.FinalEquity, run.Bars, run.Orders, run.Fills)

	if len(run.Metrics) == 0 {
		return nil
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	for _, name := range sortedKeys(run.Metrics) {
		table.Append(name, run.Metrics[name])
	}
	table.Render()
	return nil
}
