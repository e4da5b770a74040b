package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/internal/presentation/tui"
	"golang.org/x/term"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	SetupPath      string
	OnlySuccessful bool
	// All enumerates every possibility instead of stopping at the first.
	All bool
	// Step drives the derivation interactively.
	Step bool
	// Interactive is set when stdin and stdout are terminals; it enables
	// prompts, the banner and styled markdown.
	Interactive bool
	ShowLog     bool
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f any) bool {
	file, ok := f.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Run executes the 'run' command.
func Run(ctx context.Context, cfg Config, opts RunOptions, in io.Reader, out io.Writer) error {
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	setup, err := LoadSetup(ctx, opts.SetupPath, logger)
	if err != nil {
		return err
	}
	engineOpts, err := cfg.EngineOptions(logger)
	if err != nil {
		return err
	}

	eng := spellout.New(append(engineOpts, spellout.WithName(opts.SetupPath))...)
	if err := eng.Start(setup); err != nil {
		return fmt.Errorf("invalid setup: %w", err)
	}

	render := tui.PlainRenderer
	if opts.Interactive {
		tui.PrintBanner(out)
		render = tui.NewRenderer()
	}

	if opts.Step {
		stepper := &Stepper{
			Engine: eng,
			In:     in,
			Out:    out,
			Render: render,
			Prompt: opts.Interactive,
		}
		return stepper.Run(ctx)
	}

	runErr := eng.FullRun(opts.OnlySuccessful)
	if runErr != nil && !errors.Is(runErr, spellout.ErrNoSuccessfulDerivation) {
		return runErr
	}
	Print(out, render, tui.Report(eng, opts.ShowLog))
	if runErr != nil || !opts.All {
		return runErr
	}

	for n := 2; ctx.Err() == nil; n++ {
		found, err := eng.NextPossibility(opts.OnlySuccessful)
		if err != nil {
			return err
		}
		if !found {
			break
		}
		printSystemMessage(out, "Possibility %d", n)
		Print(out, render, tui.Report(eng, opts.ShowLog))
	}
	return nil
}
