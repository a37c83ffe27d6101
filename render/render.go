// Package render draws game states for terminals.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"hydrus/game"
)

// Snakes cycle through four colors in board order: green, yellow, blue,
// magenta. Food is red, hazards are dimmed.
var (
	snakeStyles = [...]lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	}
	foodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hazardStyle = lipgloss.NewStyle().Faint(true)
	emptyStyle  = lipgloss.NewStyle().Faint(true)
)

type cell struct {
	glyph string
	style lipgloss.Style
}

// Board draws the state in color, top row first.
func Board(state *game.State) string {
	return draw(state, true)
}

// PlainBoard draws the state as bare text in the notation game.Parse reads,
// so a printed board can be pasted straight into a test.
func PlainBoard(state *game.State) string {
	return draw(state, false)
}

func draw(state *game.State, color bool) string {
	grid := make([][]cell, state.Height)
	for y := range grid {
		grid[y] = make([]cell, state.Width)
		for x := range grid[y] {
			grid[y][x] = cell{glyph: ".", style: emptyStyle}
		}
	}
	set := func(p game.Point, glyph string, style lipgloss.Style) {
		if !state.InBounds(p) {
			return
		}
		grid[p.Y][p.X] = cell{glyph: glyph, style: style}
	}

	for _, p := range state.Hazards {
		set(p, "#", hazardStyle)
	}
	for _, p := range state.Food {
		set(p, "o", foodStyle)
	}
	for si, s := range state.Snakes {
		style := snakeStyles[si%len(snakeStyles)]
		for i := len(s.Body) - 1; i >= 1; i-- {
			seg, ahead := s.Body[i], s.Body[i-1]
			if seg == ahead {
				// Stacked segments occupy one cell.
				continue
			}
			set(seg, arrow(seg, ahead), style)
		}
		set(s.Head(), headGlyph(si), style.Bold(true))
	}

	var b strings.Builder
	for y := state.Height - 1; y >= 0; y-- {
		for x := 0; x < state.Width; x++ {
			if x > 0 {
				b.WriteString(" ")
			}
			c := grid[y][x]
			if color {
				b.WriteString(c.style.Render(c.glyph))
			} else {
				b.WriteString(c.glyph)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Legend lists the snakes under a board, one line each, in board order.
func Legend(state *game.State) string {
	return LegendNames(state, nil)
}

// LegendNames is Legend with display names shown alongside snake ids, for
// callers whose ids are opaque engine identifiers. Names are looked up by
// id and may collide; the id stays on the line so the snakes remain
// tellable apart.
func LegendNames(state *game.State, names map[string]string) string {
	var b strings.Builder
	for si, s := range state.Snakes {
		style := snakeStyles[si%len(snakeStyles)]
		fmt.Fprintf(&b, "%s %s", style.Bold(true).Render(headGlyph(si)), s.ID)
		if name := names[s.ID]; name != "" && name != s.ID {
			fmt.Fprintf(&b, " (%s)", name)
		}
		fmt.Fprintf(&b, " health=%d length=%d\n", s.Health, s.Length())
	}
	return b.String()
}

// arrow points a body segment at the segment in front of it.
func arrow(from, to game.Point) string {
	switch {
	case to.X == from.X+1:
		return ">"
	case to.X == from.X-1:
		return "<"
	case to.Y == from.Y+1:
		return "^"
	default:
		return "v"
	}
}

func headGlyph(seat int) string {
	return strconv.Itoa(seat % 10)
}
