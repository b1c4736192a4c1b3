// Package term renders assistant output to the terminal: colored status
// lines, markdown bodies, and the progress bar.
package term

import (
	"fmt"
	"io"
	"os"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	minRenderWidth = 60
	maxRenderWidth = 110
)

// Printer writes styled output.
type Printer struct {
	out     io.Writer
	success *color.Color
	failure *color.Color
	notice  *color.Color
	muted   *color.Color

	promptHook func(hint string)
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:     out,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		notice:  color.New(color.FgYellow),
		muted:   color.New(color.Faint),
	}
}

// Print writes a plain line.
func (p *Printer) Print(s string) {
	fmt.Fprintln(p.out, s)
}

// Success writes a green line.
func (p *Printer) Success(s string) {
	p.success.Fprintln(p.out, s)
}

// Failure writes a red line.
func (p *Printer) Failure(s string) {
	p.failure.Fprintln(p.out, s)
}

// Notice writes a yellow line.
func (p *Printer) Notice(s string) {
	p.notice.Fprintln(p.out, s)
}

// Muted writes a dim line.
func (p *Printer) Muted(s string) {
	p.muted.Fprintln(p.out, s)
}

// Markdown renders a markdown body at the terminal width.
func (p *Printer) Markdown(body string) {
	fmt.Fprintln(p.out, string(markdown.Render(body, renderWidth(), 2)))
}

// Placeholder communicates the expected next input. When a prompt hook is
// installed (the readline integration), it updates the input prompt;
// otherwise the hint is printed dimmed.
func (p *Printer) Placeholder(hint string) {
	if p.promptHook != nil {
		p.promptHook(hint)
		return
	}
	if hint != "" {
		p.muted.Fprintf(p.out, "(%s)\n", hint)
	}
}

// OnPlaceholder installs the placeholder hook.
func (p *Printer) OnPlaceholder(hook func(hint string)) {
	p.promptHook = hook
}

func renderWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 100
	}
	if width < minRenderWidth {
		return minRenderWidth
	}
	if width > maxRenderWidth {
		return maxRenderWidth
	}
	return width
}
