// Package printer formats CLI output with colors.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/okian/linemate/internal/domain/model"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Success prints a success message in green with a checkmark prefix
func Success(w io.Writer, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Fprintf(w, "✓ %s", msg)
	} else {
		green.Fprint(w, msg)
	}
}

// Warning prints a warning message in yellow with a warning prefix
func Warning(w io.Writer, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Fprintf(w, "⚠️  %s", msg)
	} else {
		yellow.Fprint(w, msg)
	}
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(w io.Writer, format string, a ...any) {
	cyan.Fprintf(w, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a formatted error with title, explanation and suggestions to
// stderr and returns a simple error for Cobra
func Error(title string, explanation string, suggestions []string) error {
	return ErrorTo(os.Stderr, title, explanation, suggestions)
}

// ErrorTo is Error writing to w.
func ErrorTo(w io.Writer, title string, explanation string, suggestions []string) error {
	red.Fprintf(w, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(w, "%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(w, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(w, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(w, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(w, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

// Split renders both teams line by line, followed by the bench and warnings.
func Split(w io.Writer, s model.Split) { //nolint:gocritic // hugeParam: read-only render
	team(w, "Team A", s.TeamA)
	fmt.Fprintln(w)
	team(w, "Team B", s.TeamB)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "diff %.2f  penalty %d  cost %.2f  seed %d\n", s.Diff, s.Penalty, s.Cost, s.Seed)
	if len(s.Bench) > 0 {
		fmt.Fprintf(w, "bench: %s\n", strings.Join(s.Bench, ", "))
	}
	if len(s.Leftover) > 0 {
		fmt.Fprintf(w, "left out: %s\n", strings.Join(s.Leftover, ", "))
	}
	for _, warn := range s.Warnings {
		Warning(w, "%s\n", warn)
	}
}

func team(w io.Writer, title string, t model.TeamSummary) {
	bold.Fprintf(w, "%s", title)
	fmt.Fprintf(w, "  total %.1f  avg %.2f\n", t.Total, t.Average)
	for i, line := range t.Forwards {
		fmt.Fprintf(w, "  L%d  %s\n", i+1, strings.Join(line, " / "))
	}
	for i, pair := range t.Defense {
		fmt.Fprintf(w, "  D%d  %s\n", i+1, strings.Join(pair, " / "))
	}
}

// Pairings renders pair counts as an aligned table.
func Pairings(w io.Writer, recs []model.PairingRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "no pairings recorded")
		return
	}
	width := len("PLAYER")
	for _, r := range recs {
		width = max(width, len(r.A))
	}
	bold.Fprintf(w, "%-*s  %-*s  %s\n", width, "PLAYER", width, "WITH", "COUNT")
	for _, r := range recs {
		fmt.Fprintf(w, "%-*s  %-*s  %d\n", width, r.A, width, r.B, r.Count)
	}
}
