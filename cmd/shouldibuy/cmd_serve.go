package main

import (
	"context"
	"fmt"

	"shouldibuy/internal/advice"
	"shouldibuy/internal/config"
	"shouldibuy/internal/logging"
	"shouldibuy/internal/server"
	"shouldibuy/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	serveBasePath string
	serveWatch    bool
)

// serveCmd runs the HTTP API and web page
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the advice API and web page",
	Long: `Starts the HTTP server:

  POST {base}/api/getAdvice   {monthlyIncome, itemName, itemPrice} -> {message}
  GET  {base}/api/target      ?income=&price= -> {target}
  GET  {base}/                the web page

The config file is watched; provider and pile changes apply without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveBasePath, "base-path", "", "URL prefix (overrides server.base_path)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload the config file when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveBasePath != "" {
		cfg.Server.BasePath = serveBasePath
	}
	if err := cfg.Pile.Validate(); err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logging.TelemetryWarn("tracer shutdown: %v", err)
		}
	}()

	history, recorder, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
		logging.Boot("recording advice history to %s", history.Path())
	}

	// A missing key is not fatal: the page still serves and advice requests
	// fail until the config is fixed.
	advisor, err := buildAdvisor(ctx, cfg, recorder)
	if err != nil {
		logging.BootWarn("advice disabled: %v", err)
	}

	srv := server.New(cfg.Server, advisor, curveFromConfig(cfg.Pile))

	if serveWatch {
		w, err := config.NewWatcher(configPath, func(next *config.Config) {
			reloadServer(ctx, srv, next, recorder)
		})
		if err != nil {
			logging.ConfigWarn("config watch disabled: %v", err)
		} else if err := w.Start(ctx); err != nil {
			logging.ConfigWarn("config watch disabled: %v", err)
		} else {
			defer w.Stop()
		}
	}

	return srv.Run(ctx)
}

// reloadServer applies a reloaded config to a running server. Address and
// base path changes need a restart.
func reloadServer(ctx context.Context, srv *server.Server, next *config.Config, recorder advice.ExchangeRecorder) {
	srv.SetCurve(curveFromConfig(next.Pile))

	advisor, err := buildAdvisor(ctx, next, recorder)
	if err != nil {
		logging.ConfigWarn("keeping previous advisor: %v", err)
		return
	}
	srv.SetAdvisor(advisor)
	logging.Config("config reloaded (provider=%s model=%s)", advisor.Provider(), advisor.Model())
}
