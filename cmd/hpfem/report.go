package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rwcarlsen/hpfem"
	"golang.org/x/term"
)

// historyMarkdown formats the convergence history of an adapt run as a
// markdown table.
func historyMarkdown(title string, h hpfem.History) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %v\n\n", title)
	if len(h) == 0 {
		b.WriteString("No adaptivity steps were taken.\n")
		return b.String()
	}
	b.WriteString("| step | elements | ndof | ndof ref | err rel % | err exact % | newton |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, s := range h {
		exact := "-"
		if !math.IsNaN(s.ErrExact) {
			exact = fmt.Sprintf("%.4g", s.ErrExact)
		}
		fmt.Fprintf(&b, "| %v | %v | %v | %v | %.4g | %v | %v |\n",
			s.Step, s.NActive, s.NDof, s.NDofRef, s.ErrRel, exact, s.Iters)
	}
	return b.String()
}

// printReport writes markdown to w, rendered for the terminal when w is one.
func printReport(w io.Writer, markdown string) error {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			if out, err := r.Render(markdown); err == nil {
				markdown = out
			}
		}
	}
	_, err := io.WriteString(w, markdown)
	return err
}
