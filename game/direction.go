package game

import "fmt"

// Direction is one of the four moves a snake can make on a turn.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists all four moves in a stable order, for iteration.
var Directions = [4]Direction{Up, Down, Left, Right}

// Offset returns the unit delta this direction applies to a point.
func (d Direction) Offset() Point {
	switch d {
	case Up:
		return Point{X: 0, Y: 1}
	case Down:
		return Point{X: 0, Y: -1}
	case Left:
		return Point{X: -1, Y: 0}
	case Right:
		return Point{X: 1, Y: 0}
	default:
		return Point{}
	}
}

// Apply returns p shifted one cell in this direction.
func (d Direction) Apply(p Point) Point {
	o := d.Offset()
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// ParseDirection converts a wire-format move string to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Up, fmt.Errorf("unknown direction %q", s)
	}
}
