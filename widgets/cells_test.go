package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"go-cccv/theme"
)

func TestRenderBar(t *testing.T) {
	bar := []rune(" ▁▂▃▄▅▆▇█")
	tests := []struct {
		v    float32
		want string
	}{
		{0, "    "},
		{10, "████"},
		{20, "████"},
		{5, "██  "},
		{-2.5, "█   "},
		{1.25, "▄   "},
	}
	for _, tt := range tests {
		if got := RenderBar(tt.v, 4, bar); got != tt.want {
			t.Errorf("RenderBar(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
	if got := RenderBar(5, 0, bar); got != "" {
		t.Errorf("zero width = %q", got)
	}
}

func TestRenderGrid(t *testing.T) {
	th := theme.New(nil)
	cells := make([]Cell, 64)
	for i := range cells {
		cells[i] = Cell{Index: i, CC: i, Value: -1}
	}
	cells[5].Learning = true
	cells[6].CC = -1

	out := RenderGrid(cells, th)
	if h := lipgloss.Height(out); h != 16 {
		t.Errorf("grid height = %d, want 16", h)
	}
	if !strings.Contains(out, string(th.Symbols.Learning)) {
		t.Error("learning cell not marked")
	}
	if !strings.Contains(out, string(th.Symbols.Unbound)) {
		t.Error("unbound cell not marked")
	}
}

func TestRenderKeyLine(t *testing.T) {
	got := RenderKeyLine([]KeyBinding{{"l", "learn"}, {"q", "quit"}})
	if got != "l:learn  q:quit" {
		t.Errorf("RenderKeyLine = %q", got)
	}
}
