package main

import (
	"context"
	"fmt"

	"shouldibuy/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd lists recorded advice exchanges
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent advice exchanges",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of exchanges to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.Store.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "History is disabled (store.enabled: false).")
		return nil
	}
	hs, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer hs.Close()

	return printHistory(cmd.Context(), cmd, hs, historyLimit)
}

func printHistory(ctx context.Context, cmd *cobra.Command, hs *store.HistoryStore, limit int) error {
	out := cmd.OutOrStdout()

	stats, err := hs.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.Total == 0 {
		fmt.Fprintln(out, "No advice recorded yet.")
		return nil
	}
	fmt.Fprintf(out, "%d exchanges, %d failed, avg %.0fms\n\n", stats.Total, stats.Failed, stats.AvgMs)

	recent, err := hs.Recent(ctx, limit)
	if err != nil {
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "ITEM", "PRICE", "INCOME", "RESULT")
	for _, ex := range recent {
		result := ex.Response
		if !ex.Success {
			result = "error: " + ex.ErrorKind
		}
		t.Row(ex.Timestamp.Local().Format("2006-01-02 15:04"), ex.ItemName, ex.ItemPrice, ex.MonthlyIncome, oneLine(result, 60))
	}
	_, err = fmt.Fprintln(out, t.Render())
	return err
}

func oneLine(s string, max int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\r' {
			r[i] = ' '
		}
	}
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return string(r)
}
