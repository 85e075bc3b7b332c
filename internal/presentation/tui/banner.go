package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the speriment banner followed by the version to w.
// Colors degrade to plain text when w is not a color terminal.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).ColorProfile()
	// Subtle gradient (Teal/Cyan/Sky)
	lines := []struct{ text, color string }{
		{"  ___ _ __   ___ _ __(_)_ __ ___   ___ _ __ | |_ ", "#2dd4bf"},
		{" / __| '_ \\ / _ \\ '__| | '_ ` _ \\ / _ \\ '_ \\| __|", "#22d3ee"},
		{" \\__ \\ |_) |  __/ |  | | | | | | |  __/ | | | |_ ", "#38bdf8"},
		{" |___/ .__/ \\___|_|  |_|_| |_| |_|\\___|_| |_|\\__|", "#60a5fa"},
		{"     |_|", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "     %s\n\n", p.String("v"+strings.TrimSpace(version)).Faint())
}
