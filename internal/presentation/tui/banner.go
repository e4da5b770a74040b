package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for spellout.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	lines := []struct {
		text  string
		color string
	}{
		{"                 _ _             _   ", "#818cf8"},
		{"  ___ _ __   ___| | | ___  _   _| |_ ", "#a78bfa"},
		{" / __| '_ \\ / _ \\ | |/ _ \\| | | | __|", "#c084fc"},
		{" \\__ \\ |_) |  __/ | | (_) | |_| | |_ ", "#e879f9"},
		{" |___/ .__/ \\___|_|_|\\___/ \\__,_|\\__|", "#f472b6"},
		{"     |_|                             ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
