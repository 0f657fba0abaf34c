// Package render draws search frames for terminals.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/wricardo/gridpath/game/engine"
)

var tileColors = map[engine.Tile]lipgloss.Color{
	engine.TileObstacle: lipgloss.Color("9"),  // bright red
	engine.TileVisited:  lipgloss.Color("13"), // bright magenta
	engine.TileFrontier: lipgloss.Color("14"), // bright cyan
	engine.TileStart:    lipgloss.Color("10"), // bright green
	engine.TileEnd:      lipgloss.Color("11"), // bright yellow
	engine.TilePath:     lipgloss.Color("10"),
}

const connector = "█"

// Terminal renders frames as a box-drawn grid, one glyph per cell, with the
// path joined across cell borders once a search succeeds.
type Terminal struct {
	color  bool
	styles map[engine.Tile]lipgloss.Style
	path   lipgloss.Style
}

// NewTerminal creates a renderer; with color false the output is plain text
func NewTerminal(color bool) *Terminal {
	t := &Terminal{
		color:  color,
		styles: make(map[engine.Tile]lipgloss.Style, len(tileColors)),
		path:   lipgloss.NewStyle().Foreground(tileColors[engine.TilePath]),
	}
	for tile, c := range tileColors {
		t.styles[tile] = lipgloss.NewStyle().Foreground(c)
	}
	return t
}

// Render draws the frame grid
func (t *Terminal) Render(f engine.Frame) string {
	if f.Width == 0 || f.Height == 0 {
		return ""
	}

	links := pathLinks(f.Path)
	var b strings.Builder

	b.WriteString(border("╭", "┬", "╮", f.Width))
	for y := 0; y < f.Height; y++ {
		b.WriteString("│")
		for x := 0; x < f.Width; x++ {
			c := engine.Coordinate{X: x, Y: y}
			right := c.Add(engine.Coordinate{X: 1})

			b.WriteString(t.link(links, c.Add(engine.Coordinate{X: -1}), c, " "))
			b.WriteString(t.glyph(f.Tile(c)))
			b.WriteString(t.link(links, c, right, " "))

			if x < f.Width-1 {
				b.WriteString(t.link(links, c, right, "│"))
			}
		}
		b.WriteString("│\n")

		if y == f.Height-1 {
			break
		}

		b.WriteString("├")
		for x := 0; x < f.Width; x++ {
			c := engine.Coordinate{X: x, Y: y}
			b.WriteString("─")
			b.WriteString(t.link(links, c, c.Add(engine.Coordinate{Y: 1}), "─"))
			b.WriteString("─")
			if x < f.Width-1 {
				b.WriteString("┼")
			}
		}
		b.WriteString("┤\n")
	}
	b.WriteString(border("╰", "┴", "╯", f.Width))

	return b.String()
}

// Summary is a one-line description of the frame's search progress
func (t *Terminal) Summary(f engine.Frame) string {
	line := fmt.Sprintf("status: %s  steps: %d  open: %d  closed: %d  stale: %d  start: %s  end: %s",
		f.Status, f.Stats.Steps, f.OpenCount, f.ClosedCount, f.Stats.StalePops, f.Start, f.End)
	if f.Status == engine.StatusSucceeded && len(f.Path) > 0 {
		line += fmt.Sprintf("  path: %d moves", len(f.Path)-1)
	}
	return line
}

// Legend lists the glyphs in use
func (t *Terminal) Legend() string {
	tiles := []engine.Tile{
		engine.TileStart, engine.TileEnd, engine.TileObstacle,
		engine.TileFrontier, engine.TileVisited, engine.TilePath,
	}
	parts := make([]string, len(tiles))
	for i, tile := range tiles {
		parts[i] = t.glyph(tile) + " " + string(tile)
	}
	return strings.Join(parts, "  ")
}

func (t *Terminal) glyph(tile engine.Tile) string {
	s := string(tile.Symbol())
	if !t.color {
		return s
	}
	if style, ok := t.styles[tile]; ok {
		return style.Render(s)
	}
	return s
}

// link draws a connector when a and b are consecutive on the path, and
// otherwise the given fallback
func (t *Terminal) link(links map[[2]engine.Coordinate]bool, a, b engine.Coordinate, fallback string) string {
	if !links[[2]engine.Coordinate{a, b}] {
		return fallback
	}
	if t.color {
		return t.path.Render(connector)
	}
	return connector
}

// pathLinks indexes consecutive path cells in both directions
func pathLinks(path []engine.Coordinate) map[[2]engine.Coordinate]bool {
	links := make(map[[2]engine.Coordinate]bool, 2*len(path))
	for i := 1; i < len(path); i++ {
		links[[2]engine.Coordinate{path[i-1], path[i]}] = true
		links[[2]engine.Coordinate{path[i], path[i-1]}] = true
	}
	return links
}

func border(left, mid, right string, width int) string {
	var b strings.Builder
	b.WriteString(left)
	for x := 0; x < width; x++ {
		b.WriteString("───")
		if x < width-1 {
			b.WriteString(mid)
		}
	}
	b.WriteString(right)
	b.WriteString("\n")
	return b.String()
}
