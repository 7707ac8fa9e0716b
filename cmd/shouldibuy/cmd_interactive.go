package main

import (
	"context"
	"fmt"

	"shouldibuy/cmd/shouldibuy/ui"
	"shouldibuy/internal/logging"
	"shouldibuy/internal/pile"

	tea "github.com/charmbracelet/bubbletea"
)

// runInteractive starts the terminal UI. Without a usable provider the form
// and pile still work; asking shows the failure toast.
func runInteractive(ctx context.Context) error {
	history, recorder, err := openHistory(cfg)
	if err != nil {
		logging.UIWarn("history disabled: %v", err)
	}
	if history != nil {
		defer history.Close()
	}

	opts := ui.Options{
		Pile:   pile.New(pileOptions(cfg.Pile)),
		Styles: ui.DefaultStyles(),
	}
	if advisor, err := buildAdvisor(ctx, cfg, recorder); err != nil {
		logging.UIWarn("advice disabled: %v", err)
	} else {
		opts.Advisor = advisor
	}

	logging.UI("starting terminal UI")
	model := ui.NewModel(ctx, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(ui.Model); ok {
		m.Pile().Teardown()
	}
	if err != nil && ctx.Err() == nil {
		logging.UIError("terminal UI exited: %v", err)
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}
