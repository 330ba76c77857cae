// Package console prints coloured, human-readable operator messages.
// Structured diagnostics go through slog; this is what the operator reads.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	StyleFail    = lipgloss.NewStyle().Foreground(colorRed)
	StyleLink    = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
)

// Printer writes operator messages to a writer.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w (stdout when nil).
func New(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

// Writer exposes the underlying writer, e.g. for streaming process output.
func (p *Printer) Writer() io.Writer { return p.w }

func (p *Printer) line(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}

// Success prints a green check line.
func (p *Printer) Success(format string, args ...any) {
	p.line(StyleSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

// Fail prints a red "Error" line.
func (p *Printer) Fail(format string, args ...any) {
	p.line(StyleFail.Render(iconError+" Error") + " " + fmt.Sprintf(format, args...))
}

// Warning prints an amber line.
func (p *Printer) Warning(format string, args ...any) {
	p.line(StyleWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// Info prints a plain status line.
func (p *Printer) Info(format string, args ...any) {
	p.line(StyleDim.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// Header prints a bold section heading.
func (p *Printer) Header(format string, args ...any) {
	p.line(StyleHeader.Render(fmt.Sprintf(format, args...)))
}

// Detail prints an indented, dimmed line.
func (p *Printer) Detail(format string, args ...any) {
	p.line("    " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// Command prints a suggested shell command.
func (p *Printer) Command(cmd string) {
	p.line("  " + StyleCommand.Render("$ "+cmd))
}

// Newline prints an empty line.
func (p *Printer) Newline() { p.line("") }
