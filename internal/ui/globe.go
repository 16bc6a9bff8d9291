package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/cycleglobe/internal/scene"
)

// colorSteps quantizes each channel so neighbouring cells share a style and
// runs collapse into one escape sequence.
const colorSteps = 16

// renderGlobe turns a frame into newline-separated rows of coloured glyphs.
func renderGlobe(f scene.Frame) string {
	if f.Width == 0 || f.Height == 0 {
		return ""
	}
	styles := make(map[string]lipgloss.Style)
	style := func(hex string) lipgloss.Style {
		st, ok := styles[hex]
		if !ok {
			st = lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
			styles[hex] = st
		}
		return st
	}

	var b strings.Builder
	var run strings.Builder
	for y := 0; y < f.Height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		cur := ""
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(style(cur).Render(run.String()))
			}
			run.Reset()
		}
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y)
			hex := ""
			if c.Rune != ' ' {
				hex = quantize(c.Color).Hex()
			}
			if hex != cur {
				flush()
				cur = hex
			}
			run.WriteRune(c.Rune)
		}
		flush()
	}
	return b.String()
}

func quantize(c scene.Color) scene.Color {
	q := func(v float64) float64 {
		return float64(int(v*colorSteps+0.5)) / colorSteps
	}
	c = c.Clamp()
	return scene.Color{R: q(c.R), G: q(c.G), B: q(c.B)}
}
