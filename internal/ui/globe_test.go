package ui

import (
	"strings"
	"testing"

	"github.com/abelbrown/cycleglobe/internal/scene"
)

func TestRenderGlobeShape(t *testing.T) {
	s := scene.New()
	out := renderGlobe(s.RenderSize(40, 12))

	rows := strings.Split(out, "\n")
	if len(rows) != 12 {
		t.Fatalf("rows = %d, want 12", len(rows))
	}
	if !strings.ContainsAny(rows[6], ".:-=+*#%@") {
		t.Errorf("middle row has no globe glyphs: %q", rows[6])
	}
}

func TestRenderGlobeEmpty(t *testing.T) {
	if got := renderGlobe(scene.Frame{}); got != "" {
		t.Errorf("empty frame rendered %q", got)
	}
}

func TestQuantize(t *testing.T) {
	a := quantize(scene.Color{R: 0.50, G: 0.20, B: 0.90})
	b := quantize(scene.Color{R: 0.51, G: 0.21, B: 0.91})
	if a != b {
		t.Errorf("near colours should share a bucket: %v vs %v", a, b)
	}
	if c := quantize(scene.Color{R: 2}); c.R != 1 {
		t.Errorf("quantize should clamp, got %v", c)
	}
}
