package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/internal/presentation/tui"
	"github.com/aretw0/spellout/pkg/domain"
)

// Stepper drives an engine one step at a time from line commands:
//
//	<enter>   step forward on the default path
//	<n>       step forward with alternative n
//	b, back   undo the latest step
//	e, end    run to the end
//	n, next   try the next possibility
//	q, quit   leave
type Stepper struct {
	Engine *spellout.Engine
	In     io.Reader
	Out    io.Writer
	Styler *tui.Styler
	Render func(string) (string, error)
	// Prompt shows the "> " prompt and command hints.
	Prompt bool

	printed int
}

// Run reads commands until quit, EOF or ctx is done.
func (s *Stepper) Run(ctx context.Context) error {
	if s.Render == nil {
		s.Render = tui.PlainRenderer
	}
	if s.Styler == nil {
		s.Styler = tui.NewStyler()
	}

	scanner := bufio.NewScanner(s.In)
	s.show()
	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.Prompt {
			fmt.Fprint(s.Out, s.Styler.Prompt("[enter] forward · [0-9] alternative · b back · e end · n next · q quit")+"\n> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line, err := SanitizeInput(scanner.Text())
		if err != nil {
			fmt.Fprintln(s.Out, s.Styler.Prompt("error: "+err.Error()))
			continue
		}
		quit, err := s.handle(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintln(s.Out, s.Styler.Prompt("error: "+err.Error()))
			continue
		}
		if quit {
			return nil
		}
		s.show()
	}
}

func (s *Stepper) handle(cmd string) (bool, error) {
	eng := s.Engine
	switch strings.ToLower(cmd) {
	case "q", "quit", "exit":
		return true, nil
	case "":
		return false, eng.GoForward(domain.DefaultAlternative)
	case "b", "back":
		return false, eng.GoBack()
	case "e", "end":
		return false, eng.GoToEnd()
	case "n", "next":
		found, err := eng.NextPossibility(false)
		if err == nil && !found {
			printSystemMessage(s.Out, "No further possibilities.")
		}
		return false, err
	}
	alternative, err := strconv.Atoi(cmd)
	if err != nil {
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, eng.GoForward(alternative)
}

// show prints the log lines added since the last call, then the choices
// or the final report.
func (s *Stepper) show() {
	log := s.Engine.Log()
	if len(log) < s.printed {
		printSystemMessage(s.Out, "Step undone (%s).", s.Engine.State())
		s.printed = len(log)
	}
	for _, m := range log[s.printed:] {
		fmt.Fprintln(s.Out, s.Styler.Message(m))
	}
	s.printed = len(log)

	if !s.Engine.CanGoForward() {
		Print(s.Out, s.Render, tui.Report(s.Engine, false))
		return
	}
	if s.Engine.InChoiceState() {
		for _, alt := range s.Engine.Alternatives() {
			fmt.Fprintf(s.Out, "  [%d] %s\n", alt.Index, alt.Label)
		}
	}
}

// Print renders markdown and writes it, falling back to the raw text.
func Print(w io.Writer, render func(string) (string, error), markdown string) {
	out, err := render(markdown)
	if err != nil {
		out = markdown
	}
	fmt.Fprint(w, out)
}
