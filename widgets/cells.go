package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-cccv/theme"
)

// GridColumns is the number of cell columns, like the 4-wide module panel
const GridColumns = 4

// Cell is what one grid cell shows
type Cell struct {
	Index    int     // 0-based
	CC       int     // -1 unbound
	Voltage  float32 // volts
	Value    int     // last CC sent, -1 if none (CV>CC side)
	Learning bool
	Selected bool
}

// RenderBar draws |v| out of 10V as a bar of width runes
func RenderBar(v float32, width int, bar []rune) string {
	if width <= 0 || len(bar) < 2 {
		return ""
	}
	level := float64(v) / 10
	if level < 0 {
		level = -level
	}
	level = min(level, 1)

	steps := len(bar) - 1
	filled := int(level*float64(width*steps) + 0.5)

	var out strings.Builder
	for i := 0; i < width; i++ {
		n := max(0, min(filled-i*steps, steps))
		out.WriteRune(bar[n])
	}
	return out.String()
}

// RenderCell renders one cell: cursor, number, controller, bar and reading
func RenderCell(c Cell, th *theme.Theme) string {
	cursor := " "
	if c.Selected {
		cursor = string(th.Symbols.Cursor)
	}

	label := fmt.Sprintf("%2d", c.Index+1)
	var cc string
	switch {
	case c.Learning:
		cc = fmt.Sprintf(" %c  ", th.Symbols.Learning)
	case c.CC < 0:
		cc = fmt.Sprintf(" %c  ", th.Symbols.Unbound)
	default:
		cc = fmt.Sprintf("%3d ", c.CC)
	}

	reading := fmt.Sprintf("%+6.2fV", c.Voltage)
	if c.Value >= 0 {
		reading = fmt.Sprintf("%3d %c ", c.Value, th.Symbols.Sent)
	}

	labelStyle := lipgloss.NewStyle().Foreground(th.Muted())
	ccStyle := lipgloss.NewStyle().Foreground(th.FG())
	barStyle := lipgloss.NewStyle().Foreground(th.Voltage(c.Voltage))
	switch {
	case c.Learning:
		ccStyle = ccStyle.Foreground(th.Warning()).Bold(true)
	case c.CC < 0:
		ccStyle = ccStyle.Foreground(th.Muted())
	}
	if c.Selected {
		labelStyle = labelStyle.Foreground(th.Cursor()).Bold(true)
	}

	return cursor +
		labelStyle.Render(label) + " " +
		ccStyle.Render(cc) +
		barStyle.Render(RenderBar(c.Voltage, 4, th.Symbols.Bar)) + " " +
		ccStyle.Render(reading)
}

// RenderGrid lays cells out in GridColumns columns, filling rows first
func RenderGrid(cells []Cell, th *theme.Theme) string {
	var rows []string
	for start := 0; start < len(cells); start += GridColumns {
		var line []string
		for i := start; i < min(start+GridColumns, len(cells)); i++ {
			line = append(line, RenderCell(cells[i], th))
		}
		rows = append(rows, strings.Join(line, "  "))
	}
	return strings.Join(rows, "\n")
}

// RenderToggle renders "name:on" or "name:off"
func RenderToggle(name string, on bool, th *theme.Theme) string {
	if on {
		return lipgloss.NewStyle().Foreground(th.Success()).Render(name + ":on")
	}
	return lipgloss.NewStyle().Foreground(th.Muted()).Render(name + ":off")
}
