package report

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the fold banner to w, colored when w supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"   __       _     _ ", "#818cf8"},
		{"  / _| ___ | | __| |", "#a78bfa"},
		{" | |_ / _ \\| |/ _` |", "#c084fc"},
		{" |  _| (_) | | (_| |", "#e879f9"},
		{" |_|  \\___/|_|\\__,_|", "#f472b6"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  "+version).Faint())
	fmt.Fprintln(w)
}
