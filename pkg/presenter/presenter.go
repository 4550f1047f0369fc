// Package presenter provides consistent user-facing CLI output with color
// support and a quiet mode. Diagnostic logging goes through pkg/logger; this
// package is only for messages the user is meant to read.
package presenter

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Presenter writes user-facing messages.
type Presenter struct {
	out    io.Writer
	errOut io.Writer
	colors bool
	quiet  bool
}

// New returns a presenter writing to stdout/stderr with color auto-detection.
func New() *Presenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColor())
}

// NewWithOptions returns a presenter with explicit writers and color setting.
func NewWithOptions(out, errOut io.Writer, colors bool) *Presenter {
	return &Presenter{out: out, errOut: errOut, colors: colors}
}

func detectColor() bool {
	// color.NoColor already accounts for NO_COLOR and non-terminal stdout
	return !color.NoColor
}

func (p *Presenter) paint(c *color.Color, s string) string {
	if !p.colors {
		return s
	}
	return c.Sprint(s)
}

// Error reports an error with optional context. Errors print even in quiet mode.
func (p *Presenter) Error(err error, context string) {
	if err == nil {
		return
	}
	msg := err.Error()
	if context != "" {
		msg = fmt.Sprintf("%s: %s", context, msg)
	}
	fmt.Fprintln(p.errOut, p.paint(color.New(color.FgRed, color.Bold), "Error: ")+msg)
}

// Success reports a successful operation.
func (p *Presenter) Success(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.paint(color.New(color.FgGreen), "✓ ")+message)
}

// Warning reports a non-fatal problem.
func (p *Presenter) Warning(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.paint(color.New(color.FgYellow), "! ")+message)
}

// Info prints an informational message.
func (p *Presenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, message)
}

// Section prints a titled separator before a block of output.
func (p *Presenter) Section(title string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.paint(color.New(color.Bold), title))
	fmt.Fprintln(p.out, p.paint(color.New(color.Bold), dashes(len(title))))
}

// SetQuiet suppresses everything except errors.
func (p *Presenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}

// default presenter used by the package-level functions
var std = New()

// Error reports an error via the default presenter.
func Error(err error, context string) { std.Error(err, context) }

// Success reports a success via the default presenter.
func Success(message string) { std.Success(message) }

// Warning reports a warning via the default presenter.
func Warning(message string) { std.Warning(message) }

// Info prints a message via the default presenter.
func Info(message string) { std.Info(message) }

// Section prints a section header via the default presenter.
func Section(title string) { std.Section(title) }

// SetQuiet toggles quiet mode on the default presenter.
func SetQuiet(quiet bool) { std.SetQuiet(quiet) }
