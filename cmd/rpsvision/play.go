package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lox/rpsvision/cmd/rpsvision/shared"
	"github.com/lox/rpsvision/internal/tui"
	"golang.org/x/sync/errgroup"
)

type PlayCmd struct {
	NoAutoStart bool `help:"Wait for a key press before the first round"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file.
	logger, closeLog, err := shared.SetupFileLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer closeLog()

	logger.Info("Starting rpsvision",
		"version", version,
		"config", g.Config,
		"camera", cfg.Camera.Driver,
		"classifier", cfg.Classifier.Driver)

	parts, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	var program *tea.Program
	bridge := tui.NewBridge(func(msg tea.Msg) { program.Send(msg) })
	ctrl := parts.controller(cfg, logger, bridge)
	model := tui.NewModel(ctx, ctrl, logger)
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return ctrl.Run(gctx)
	})
	group.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})
	if !c.NoAutoStart {
		group.Go(func() error {
			// Failures are shown by the UI; pressing s retries.
			if err := ctrl.Start(gctx); err != nil {
				logger.Warn("Initial start failed", "error", err)
			}
			return nil
		})
	}

	err = group.Wait()
	stats := model.Stats()
	logger.Info("Finished", "rounds", stats.Rounds, "wins", stats.Wins, "losses", stats.Losses, "ties", stats.Ties)
	return err
}
