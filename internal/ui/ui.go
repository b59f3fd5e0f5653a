// Package ui renders command output for the terminal.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// Stdout and Stderr are the output streams, replaceable in tests.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// codeColors colors error codes by severity.
var codeColors = map[apierr.Code]*color.Color{
	apierr.Validation:  color.New(color.FgYellow, color.Bold),
	apierr.NotFound:    color.New(color.FgYellow, color.Bold),
	apierr.Unsupported: color.New(color.FgMagenta, color.Bold),
	apierr.IOError:     color.New(color.FgRed, color.Bold),
	apierr.Internal:    color.New(color.FgRed, color.Bold),
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...any) {
	fmt.Fprintln(Stdout, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...any) {
	fmt.Fprintln(Stderr, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...any) {
	fmt.Fprintln(Stdout, InfoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// PrintError prints err as `✗ CODE message` followed by its details.
func PrintError(err error) {
	apiErr := apierr.Normalize(err)
	if apiErr == nil {
		return
	}

	c, ok := codeColors[apiErr.Code]
	if !ok {
		c = color.New(color.FgRed, color.Bold)
	}
	fmt.Fprintf(Stderr, "%s %s %s\n", ErrorStyle.Render("✗"), c.Sprint(apiErr.Code), apiErr.Message)
	for _, key := range sortedKeys(apiErr.Details) {
		fmt.Fprintln(Stderr, SecondaryStyle.Render(fmt.Sprintf("    %s: %s", key, FormatValue(apiErr.Details[key]))))
	}
}

// PrintTitle prints a bold section title.
func PrintTitle(title string) {
	fmt.Fprintln(Stdout, TitleStyle.Render(title))
}

// PrintTable prints a table using pterm
func PrintTable(headers []string, rows [][]string) error {
	tableData := pterm.TableData{headers}
	tableData = append(tableData, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(Stdout).WithData(tableData).Render()
}

// PrintKeyValues prints aligned key/value pairs.
func PrintKeyValues(pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	key := SecondaryStyle.Width(width + 2)
	for _, p := range pairs {
		fmt.Fprintln(Stdout, lipgloss.JoinHorizontal(lipgloss.Top, key.Render(p[0]+":"), p[1]))
	}
}

// PrintMarkdown renders markdown content
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}

	fmt.Fprint(Stdout, out)
	return nil
}
