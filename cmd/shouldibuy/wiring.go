package main

import (
	"context"
	"fmt"

	"shouldibuy/internal/advice"
	"shouldibuy/internal/config"
	"shouldibuy/internal/logging"
	"shouldibuy/internal/pile"
	"shouldibuy/internal/random"
	"shouldibuy/internal/store"
)

func loggingOptions(c config.LoggingConfig) logging.Options {
	return logging.Options{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		Categories: c.Categories,
	}
}

func curveFromConfig(c config.PileConfig) pile.Curve {
	return pile.Curve{
		LogBase:    c.LogBase,
		Multiplier: c.Multiplier,
		Max:        c.MaxTarget,
	}
}

// pileOptions maps the pile config section. A zero seed is replaced by a
// random one so each session gets its own layout.
func pileOptions(c config.PileConfig) pile.Options {
	return pile.Options{
		ExitDuration:  c.GetExitDuration(),
		EnterDuration: c.GetEnterDuration(),
		Curve:         curveFromConfig(c),
		PoolLimit:     c.PoolLimit,
		Seed:          random.Resolve(c.Seed),
	}
}

// buildAdvisor creates the provider client for cfg, wraps it for tracing
// when a recorder is given and pairs it with the configured prompt.
func buildAdvisor(ctx context.Context, cfg *config.Config, recorder advice.ExchangeRecorder) (*advice.Advisor, error) {
	prompt, err := advice.NewPrompt(cfg.LLM.PromptTemplate)
	if err != nil {
		return nil, err
	}
	client, err := advice.NewClientFromConfig(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("advice client: %w", err)
	}
	// Spans are recorded even without a store.
	client = advice.NewTracingClient(client, recorder)
	advisor := advice.NewAdvisor(client, prompt)
	logging.Advice("advisor ready: provider=%s model=%s", advisor.Provider(), advisor.Model())
	return advisor, nil
}

// openHistory opens the history database when enabled. The recorder is nil
// (not a typed nil) when history is off.
func openHistory(cfg *config.Config) (*store.HistoryStore, advice.ExchangeRecorder, error) {
	if !cfg.Store.Enabled || cfg.Store.Path == "" {
		return nil, nil, nil
	}
	hs, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return hs, hs, nil
}
