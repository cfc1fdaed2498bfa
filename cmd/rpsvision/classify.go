package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lox/rpsvision/cmd/rpsvision/shared"
	"github.com/lox/rpsvision/internal/rps"
	"github.com/lox/rpsvision/internal/vision"
)

type ClassifyCmd struct {
	Frames  int           `short:"n" default:"1" help:"Number of consecutive frames to classify"`
	Timeout time.Duration `default:"10s" help:"Give up after this long"`
}

func (c *ClassifyCmd) Run(g *Globals) error {
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
	ctx, cancelTimeout := context.WithTimeout(ctx, c.Timeout)
	defer cancelTimeout()

	if err := parts.classifier.Load(ctx, cfg.Classifier.ModelURL); err != nil {
		return err
	}
	defer closeIfCloser(parts.classifier)

	if err := parts.source.Open(ctx); err != nil {
		return err
	}
	defer func() { _ = parts.source.Close() }()

	for i := 0; i < c.Frames; i++ {
		if i > 0 {
			select {
			case <-parts.source.Ticks():
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		frame, err := parts.source.CurrentFrame()
		if err != nil {
			return err
		}
		result, err := parts.classifier.Classify(ctx, frame)
		if err != nil {
			return err
		}
		printResult(os.Stdout, frame, result, cfg.Game.ConfidenceThreshold)
	}
	return nil
}

func printResult(w io.Writer, frame vision.Frame, result vision.PredictionResult, threshold float64) {
	choice := rps.Resolve(result, threshold)
	fmt.Fprintf(w, "frame %d: %s %s\n", frame.Seq, choice.Emoji(), choice)
	for _, line := range result.Lines() {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func closeIfCloser(v any) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}
