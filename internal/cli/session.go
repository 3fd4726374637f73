package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/sequence"
)

// RunSession plays one conversation in the terminal.
func RunSession(opts RunOptions) error {
	return runSession(context.Background(), opts, os.Stdin, os.Stdout)
}

func runSession(parent context.Context, opts RunOptions, in io.Reader, out io.Writer) error {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Dir != "" {
		cfg.Sequences.Dir = opts.Dir
	}
	if opts.Watch {
		cfg.Sequences.Watch = true
	}
	// Piped sessions never wait on typing delays.
	if opts.Instant || opts.Headless {
		cfg.Delay.Instant = true
	}
	logger := CreateLogger(cfg, opts.Debug)

	var extra []parley.Option
	if opts.Debug {
		extra = append(extra, parley.WithLifecycleHooks(createDebugHooks(logger)))
	}

	sigCtx := NewSignalContext(parent)
	defer sigCtx.Cancel()

	app, err := NewApp(sigCtx, cfg, logger, extra...)
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.Fresh {
		if err := app.Store.Clear(sigCtx); err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}
	}

	if !opts.Headless {
		tui.PrintBanner(out, parley.Version)
	}

	if _, err := app.Engine.InitializeSession(sigCtx); err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}

	if cfg.Sequences.Watch {
		go func() {
			if err := app.Engine.Watch(sigCtx); err != nil && !errors.Is(err, sequence.ErrNotWatchable) && sigCtx.Err() == nil {
				logger.Warn("sequence watcher stopped", "err", err)
			}
		}()
		logger.Info("Watching sequences", "dir", cfg.Sequences.Dir)
	}

	sequenceID := opts.Sequence
	if sequenceID == "" {
		sequenceID = determineEntryPoint(cfg.Sequences.Dir)
	}

	runner := &parley.Runner{
		Input:    NewInterruptibleReader(in, sigCtx.Done()),
		Output:   out,
		Headless: opts.Headless,
	}
	if !opts.Headless && tui.IsInteractive() {
		runner.Renderer = tui.NewRenderer(tui.Width(80))
	}

	runErr := runner.Run(sigCtx, app.Engine, sequenceID)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}
	logCompletion(out, sequenceID, runErr, opts.Headless, sigCtx.Signal())

	return handleExecutionError(runErr)
}
