package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the parley banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"                   _", "#818cf8"},
		{"  _ __   __ _ _ __| | ___ _   _", "#a78bfa"},
		{" | '_ \\ / _` | '__| |/ _ \\ | | |", "#c084fc"},
		{" | |_) | (_| | |  | |  __/ |_| |", "#e879f9"},
		{" | .__/ \\__,_|_|  |_|\\___|\\__, |", "#f472b6"},
		{" |_|                      |___/", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
