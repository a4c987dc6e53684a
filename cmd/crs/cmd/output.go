package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/barysiuk/crs/internal/core"
)

// Status styles. lipgloss drops the colors when stdout is not a terminal.
var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	headingStyle = lipgloss.NewStyle().Bold(true)
)

const descriptionWidth = 60

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, okStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func printWarn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnStyle.Render("!")+" "+fmt.Sprintf(format, args...))
}

func printErr(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, errStyle.Render("✗")+" "+fmt.Sprintf(format, args...))
}

// truncate shortens s to the description column.
func truncate(s string) string {
	return ansi.Truncate(s, descriptionWidth, "…")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// printValidation renders validator findings.
func printValidation(w io.Writer, v *core.ValidationResult) {
	if v == nil {
		return
	}
	for _, e := range v.Errors {
		printErr(w, "%s", e)
	}
	for _, warning := range v.Warnings {
		printWarn(w, "%s", warning)
	}
}
