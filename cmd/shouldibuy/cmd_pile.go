package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"shouldibuy/internal/pile"

	"github.com/spf13/cobra"
)

var (
	pileIncome string
	pilePrices []string
	pilePoll   time.Duration
)

// pileCmd plays the bag animation for a series of prices
var pileCmd = &cobra.Command{
	Use:   "pile",
	Short: "Animate the money-bag pile for a sequence of prices",
	Long: `Feeds each price to the pile in turn and prints a frame whenever the
pile changes, waiting for every bag to settle before the next price.

Example:
  shouldibuy pile --income 4000 --prices 0,2000,4000`,
	RunE: runPile,
}

func init() {
	pileCmd.Flags().StringVar(&pileIncome, "income", "", "Monthly income (required)")
	pileCmd.Flags().StringSliceVar(&pilePrices, "prices", []string{"0"}, "Prices to step through")
	pileCmd.Flags().DurationVar(&pilePoll, "frame", 50*time.Millisecond, "Frame interval")
	pileCmd.MarkFlagRequired("income")
}

func runPile(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a := pile.NewAnimator(pile.New(pileOptions(cfg.Pile)), pile.RealClock{})
	defer a.Close()

	return playPile(ctx, cmd.OutOrStdout(), a, pileIncome, pilePrices, pilePoll)
}

// playPile steps the animator through prices, printing each distinct frame.
func playPile(ctx context.Context, out io.Writer, a *pile.Animator, income string, prices []string, frame time.Duration) error {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	for _, price := range prices {
		a.OnInputsChanged(income, price)
		fmt.Fprintf(out, "price %s -> target %d\n", strings.TrimSpace(price), a.Snapshot().Target)

		last := ""
		for {
			s := a.Snapshot()
			if line := frameLine(s); line != last {
				fmt.Fprintln(out, line)
				last = line
			}
			if s.Settled {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
	return nil
}

// frameLine draws one glyph per bag: 💰 idle, ↓ entering, ↑ exiting.
func frameLine(s pile.Snapshot) string {
	var b strings.Builder
	for _, t := range s.Tokens {
		switch t.State {
		case pile.StateEntering:
			b.WriteString("↓")
		case pile.StateExiting:
			b.WriteString("↑")
		default:
			b.WriteString("💰")
		}
	}
	return fmt.Sprintf("[%d/%d pool=%d] %s", s.Visible, s.Target, s.Pool, b.String())
}
