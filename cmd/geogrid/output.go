package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Status line colors for stderr output. Tables are rendered with lipgloss.
var (
	colorWarn = color.New(color.FgYellow).SprintFunc()
	colorErr  = color.New(color.FgRed, color.Bold).SprintFunc()
	colorOK   = color.New(color.FgGreen).SprintFunc()
	colorInfo = color.New(color.FgCyan).SprintFunc()
)

// printNotes writes session preparation notes to stderr.
func printNotes(notes []string) {
	for _, n := range notes {
		if rest, ok := strings.CutPrefix(n, "Warning:"); ok {
			fmt.Fprintf(os.Stderr, "%s%s\n", colorWarn("Warning:"), rest)
			continue
		}
		fmt.Fprintln(os.Stderr, n)
	}
}
