// Package main provides the shouldibuy CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shouldibuy/internal/config"
	"shouldibuy/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is stamped at build time with -ldflags.
var version = "dev"

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shouldibuy",
	Short: "Should I Buy It? - a pile of money bags and a blunt second opinion",
	Long: `shouldibuy weighs a purchase against your monthly income.

It shows a pile of money bags that shrinks as the price eats into the
budget, and asks a language model for a short, opinionated verdict.

Run without arguments to start the interactive terminal UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		// The TUI owns the terminal, so it only logs when a file is configured.
		if !cmd.HasParent() && cfg.Logging.File == "" {
			logger = zap.NewNop()
			logging.SetBase(logger)
			return nil
		}

		opts := loggingOptions(cfg.Logging)
		if verbose {
			opts.Level = "debug"
		}
		logger, err = logging.Initialize(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.BootDebug("config loaded from %s", configPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logging.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive UI
		return runInteractive(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath(), "Path to config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Timeout for one-shot commands")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(targetCmd)
	rootCmd.AddCommand(pileCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shouldibuy %s\n", version)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.BootError("command failed: %v", err)
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
