package game

import (
	"fmt"
	"strings"
)

// Parse builds a State from a small text drawing of a board. It exists so
// tests and debug tooling can write positions the way they appear on screen
// rather than as coordinate literals.
//
// Rows are listed top to bottom, cells separated by spaces:
//
//	. is an empty cell
//	o is food
//	# is hazard
//	0-9 is a snake head; the digit becomes the snake's id
//	^ v < > is a body segment pointing at the segment in front of it
//
// Stacked segments cannot be drawn; grow states must be built by hand.
// Every snake starts at full health on turn zero with default rules.
func Parse(art string) (*State, error) {
	var rows [][]string
	for _, line := range strings.Split(strings.TrimSpace(art), "\n") {
		cells := strings.Fields(line)
		if len(cells) == 0 {
			continue
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty board drawing")
	}

	height := len(rows)
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), width)
		}
	}

	st := &State{
		Width:  width,
		Height: height,
		Rules:  DefaultRuleset(),
	}

	// cell returns the glyph at board coordinates, rows[0] being the top.
	cell := func(p Point) string {
		return rows[height-1-p.Y][p.X]
	}

	var heads []Point
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := Point{X: x, Y: y}
			switch c := cell(p); c {
			case ".":
			case "o":
				st.Food = append(st.Food, p)
			case "#":
				st.Hazards = append(st.Hazards, p)
			case "^", "v", "<", ">":
				// Body segments are claimed while walking back from heads.
			case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
				heads = append(heads, p)
			default:
				return nil, fmt.Errorf("unknown glyph %q at (%d,%d)", c, x, y)
			}
		}
	}

	pointsAt := func(p Point) (Point, bool) {
		for _, d := range Directions {
			q := d.Apply(p)
			if !st.InBounds(q) {
				continue
			}
			var target Point
			switch cell(q) {
			case "^":
				target = Up.Apply(q)
			case "v":
				target = Down.Apply(q)
			case "<":
				target = Left.Apply(q)
			case ">":
				target = Right.Apply(q)
			default:
				continue
			}
			if target == p {
				return q, true
			}
		}
		return Point{}, false
	}

	claimed := map[Point]bool{}
	for _, head := range heads {
		claimed[head] = true
	}
	for _, head := range heads {
		snake := Snake{
			ID:     cell(head),
			Health: st.Rules.StartingHealth,
			Body:   []Point{head},
		}
		for {
			next, ok := pointsAt(snake.Body[len(snake.Body)-1])
			if !ok || claimed[next] {
				break
			}
			claimed[next] = true
			snake.Body = append(snake.Body, next)
		}
		st.Snakes = append(st.Snakes, snake)
	}

	return st, nil
}
