package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrintBanner writes the quire banner to w when w is a terminal.
func PrintBanner(w io.Writer, version string) {
	if !IsTerminal(w) {
		return
	}
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _ _   _(_)_ __ ___", "#818cf8"},
		{"  / _` | | | | | '__/ _ \\", "#a78bfa"},
		{" | (_| | |_| | | | |  __/", "#c084fc"},
		{"  \\__, |\\__,_|_|_|  \\___|", "#e879f9"},
		{"     |_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  questionnaire builder "+version).Faint())
	fmt.Fprintln(w)
}
