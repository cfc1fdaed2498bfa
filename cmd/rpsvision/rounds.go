package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/rpsvision/cmd/rpsvision/shared"
	"github.com/lox/rpsvision/internal/countdown"
	"github.com/lox/rpsvision/internal/fileutil"
	"github.com/lox/rpsvision/internal/game"
	"github.com/lox/rpsvision/internal/rps"
	"github.com/lox/rpsvision/internal/statistics"
	"golang.org/x/sync/errgroup"
)

type RoundsCmd struct {
	Count  int    `short:"n" default:"3" help:"Number of rounds to play"`
	Report string `type:"path" help:"Write a JSON session report to this file"`
}

func (c *RoundsCmd) Run(g *Globals) error {
	if c.Count < 1 {
		return errors.New("count must be at least 1")
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger, err := shared.SetupLogger(os.Stderr, cfg.Log.Level)
	if err != nil {
		return err
	}

	parts, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	presenter := newLogPresenter(logger, c.Count)
	ctrl := parts.controller(cfg, logger, presenter)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return ctrl.Run(gctx)
	})
	group.Go(func() error {
		defer cancel()
		return playRounds(gctx, ctrl, presenter, c.Count)
	})
	if err := group.Wait(); err != nil {
		return err
	}

	stats := presenter.stats
	fmt.Println(stats.Summary())
	if stats.Decided() > 0 {
		lo, hi := stats.ConfidenceInterval95()
		fmt.Printf("Win rate %.0f%% (95%% CI %.0f%%-%.0f%%), detection rate %.0f%%\n",
			100*stats.WinRate(), 100*lo, 100*hi, 100*stats.DetectionRate())
	}
	if err := stats.Validate(); err != nil {
		return err
	}

	if c.Report != "" {
		if err := fileutil.WriteJSONAtomic(c.Report, presenter.report()); err != nil {
			return err
		}
		logger.Info("Wrote report", "path", c.Report)
	}
	return nil
}

// playRounds starts the game and restarts it after each result until count
// rounds have finished.
func playRounds(ctx context.Context, ctrl *game.Controller, p *logPresenter, count int) error {
	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	for played := 0; played < count; played++ {
		select {
		case <-p.results:
		case err := <-p.errs:
			return err
		case <-ctx.Done():
			return nil
		}
		if played+1 == count {
			break
		}
		if err := ctrl.Restart(ctx); err != nil {
			return err
		}
	}
	return nil
}

// logPresenter reports the game through the logger. Callbacks run on the
// controller goroutine; results and fatal errors are handed to the driver.
type logPresenter struct {
	game.NopPresenter
	logger  *log.Logger
	results chan rps.Round
	errs    chan error
	stats   *statistics.Statistics // written on the controller goroutine
	played  []rps.Round
}

func newLogPresenter(logger *log.Logger, rounds int) *logPresenter {
	return &logPresenter{
		logger:  logger.WithPrefix("rounds"),
		results: make(chan rps.Round, rounds),
		errs:    make(chan error, 1),
		stats:   statistics.New(),
	}
}

func (p *logPresenter) OnStateChange(from, to game.State) {
	p.logger.Debug("State changed", "from", from, "to", to)
}

func (p *logPresenter) OnCountdownTick(tick countdown.Tick) {
	p.logger.Info(tick.String())
}

func (p *logPresenter) OnChoicesRevealed(user, computer rps.Choice) {
	p.logger.Info("Choices",
		"you", user.Emoji()+" "+user.String(),
		"computer", computer.Emoji()+" "+computer.String())
}

func (p *logPresenter) OnResult(round rps.Round) {
	p.stats.Add(round)
	p.played = append(p.played, round)
	p.logger.Info(round.Outcome.Message(), "round", round.ID)

	select {
	case p.results <- round:
	default:
	}
}

func (p *logPresenter) OnError(kind game.ErrorKind, err error) {
	p.logger.Error(kind.Message(), "kind", kind, "error", err)
	if kind == game.KindDeviceUnavailable || kind == game.KindModelLoad {
		select {
		case p.errs <- err:
		default:
		}
	}
}

type roundReport struct {
	ID       string `json:"id"`
	User     string `json:"user"`
	Computer string `json:"computer"`
	Outcome  string `json:"outcome"`
}

type sessionReport struct {
	Rounds        []roundReport `json:"rounds"`
	Wins          int           `json:"wins"`
	Losses        int           `json:"losses"`
	Ties          int           `json:"ties"`
	Undetermined  int           `json:"undetermined"`
	WinRate       float64       `json:"win_rate"`
	DetectionRate float64       `json:"detection_rate"`
}

// report is built after the controller has stopped.
func (p *logPresenter) report() sessionReport {
	r := sessionReport{
		Rounds:        make([]roundReport, 0, len(p.played)),
		Wins:          p.stats.Wins,
		Losses:        p.stats.Losses,
		Ties:          p.stats.Ties,
		Undetermined:  p.stats.Undetermined,
		WinRate:       p.stats.WinRate(),
		DetectionRate: p.stats.DetectionRate(),
	}
	for _, round := range p.played {
		r.Rounds = append(r.Rounds, roundReport{
			ID:       round.ID,
			User:     round.User.String(),
			Computer: round.Computer.String(),
			Outcome:  round.Outcome.String(),
		})
	}
	return r
}
