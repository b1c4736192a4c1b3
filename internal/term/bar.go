package term

import (
	"fmt"
	"io"
	"strings"
)

const barCells = 20

var spinnerFrames = []string{"|", "/", "-", "\\"}

// BarRenderer draws an in-place progress bar on one terminal line.
type BarRenderer struct {
	out   io.Writer
	frame int
}

// NewBarRenderer creates a renderer writing to out.
func NewBarRenderer(out io.Writer) *BarRenderer {
	return &BarRenderer{out: out}
}

// Update redraws the bar line with the current estimate and caption.
func (b *BarRenderer) Update(percent int, caption string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := percent * barCells / 100
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barCells-filled)
	spinner := spinnerFrames[b.frame%len(spinnerFrames)]
	b.frame++

	// \x1b[K clears leftovers from a longer previous caption.
	fmt.Fprintf(b.out, "\r%s [%s] %3d%% %s\x1b[K", spinner, bar, percent, caption)
}

// Done clears the bar line.
func (b *BarRenderer) Done() {
	fmt.Fprint(b.out, "\r\x1b[K")
}
