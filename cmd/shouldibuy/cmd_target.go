package main

import (
	"fmt"

	"shouldibuy/internal/pile"

	"github.com/spf13/cobra"
)

var (
	targetIncome string
	targetPrice  string
)

// targetCmd prints the bag count for an income and price
var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Print how many money bags a purchase leaves",
	Long: `Computes the pile size without contacting any model.

Input is as forgiving as the form: "$1,200" parses, "abc" counts as 0.

Example:
  shouldibuy target --income 4000 --price 2000   # 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		curve := curveFromConfig(cfg.Pile)
		n := curve.Target(pile.ParseAmount(targetIncome), pile.ParseAmount(targetPrice))
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

func init() {
	targetCmd.Flags().StringVar(&targetIncome, "income", "", "Monthly income")
	targetCmd.Flags().StringVar(&targetPrice, "price", "0", "Item price")
}
