// Package ui provides colored terminal output for the adcraft CLI:
// prefixed message printers, tables, spinners and text helpers shared
// by the command and shell surfaces.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WrapWidth is the default wrapping width for generated text blocks.
const WrapWidth = 72

// UI writes colored, prefixed output to the configured writers.
type UI struct {
	Out    io.Writer
	ErrOut io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
	faintSprint   = color.New(color.Faint).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// Green returns a green-colored string.
func Green(s string) string { return green(s) }

// Yellow returns a yellow-colored string.
func Yellow(s string) string { return yellow(s) }

// Red returns a red-colored string.
func Red(s string) string { return red(s) }

// Faint returns a dimmed string.
func Faint(s string) string { return faintSprint(s) }

// StatusColor colors a session status: in-flight work yellow, terminal
// success green, failure red, everything awaiting input cyan.
func StatusColor(status string) string {
	switch {
	case strings.HasPrefix(status, "generating"), status == "persisting":
		return yellow(status)
	case status == "completed":
		return green(status)
	case status == "failed":
		return red(status)
	default:
		return cyan(status)
	}
}

// TitleWords renders a snake_case identifier as spaced title words, so
// "selecting_primary" displays as "Selecting Primary".
func TitleWords(s string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(s, "_", " "))
}

// Wrap word-wraps text to the given width; width <= 0 means WrapWidth.
func Wrap(s string, width int) string {
	if width <= 0 {
		width = WrapWidth
	}
	return wordwrap.String(s, width)
}

// Indent prefixes every line of s with n spaces.
func Indent(s string, n int) string {
	return indent.String(s, uint(n))
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

// Table creates a table writer mirrored to the UI's output, in the
// light style shared by every listing.
func (u *UI) Table(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(u.Out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

// Spinner creates a stopped spinner writing to stderr, so command
// output on stdout stays clean.
func (u *UI) Spinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(u.ErrOut))
	s.Suffix = " " + suffix
	_ = s.Color("cyan")
	return s
}
