package main

import (
	"context"
	"fmt"
	"strings"

	"shouldibuy/internal/advice"
	"shouldibuy/internal/pile"

	"github.com/spf13/cobra"
)

var (
	askIncome string
	askPrice  string
)

// askCmd asks for a verdict once and prints it
var askCmd = &cobra.Command{
	Use:   "ask [item]",
	Short: "Ask whether to buy an item",
	Long: `Sends one question to the configured language model and prints the
verdict along with how many money bags the purchase leaves.

Example:
  shouldibuy ask --income 4000 --price 2000 boat`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askIncome, "income", "", "Monthly income (required)")
	askCmd.Flags().StringVar(&askPrice, "price", "", "Item price (required)")
	askCmd.MarkFlagRequired("income")
	askCmd.MarkFlagRequired("price")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	req := advice.Request{
		MonthlyIncome: advice.NewAmount(askIncome),
		ItemName:      strings.Join(args, " "),
		ItemPrice:     advice.NewAmount(askPrice),
	}
	if err := req.Validate(); err != nil {
		return err
	}

	history, recorder, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
	}

	advisor, err := buildAdvisor(ctx, cfg, recorder)
	if err != nil {
		return err
	}
	return ask(ctx, cmd, advisor, curveFromConfig(cfg.Pile), req)
}

func ask(ctx context.Context, cmd *cobra.Command, advisor *advice.Advisor, curve pile.Curve, req advice.Request) error {
	out := cmd.OutOrStdout()
	bags := curve.Target(req.MonthlyIncome.Value(), req.ItemPrice.Value())
	fmt.Fprintf(out, "%s (%d bags)\n", bagRow(bags), bags)

	msg, err := advisor.Advise(ctx, req)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), advice.UserMessage)
		return err
	}
	fmt.Fprintln(out, msg)
	return nil
}

// bagRow draws up to 40 bags on one line.
func bagRow(n int) string {
	const maxRow = 40
	if n <= 0 {
		return "(no bags)"
	}
	if n > maxRow {
		return strings.Repeat("💰", maxRow) + "…"
	}
	return strings.Repeat("💰", n)
}
