// Package game defines the core state types for the snake decision engine.
//
// These types represent the minimal state needed for rules evaluation and
// search. The state is designed to be efficiently clonable so that agents can
// explore hypothetical futures without disturbing the real game.
package game

// Point is a board coordinate.
// (0,0) is the bottom-left corner; X grows right, Y grows up.
type Point struct {
	X int
	Y int
}

// Snake is one competitor on the board. Body runs head first: Body[0] is the
// head, Body[len-1] the tail. Segments may overlap while the snake is growing
// or has not yet uncoiled from its starting stack.
type Snake struct {
	ID     string
	Health int
	Body   []Point
}

// Head returns the snake's head cell.
func (s *Snake) Head() Point {
	return s.Body[0]
}

// Length returns the number of body segments, counting stacked ones.
func (s *Snake) Length() int {
	return len(s.Body)
}

// Alive reports whether the snake is still in the game.
func (s *Snake) Alive() bool {
	return s.Health > 0 && len(s.Body) > 0
}

// Ruleset carries the tunable parameters of a game. The zero value is not
// useful; start from DefaultRuleset.
type Ruleset struct {
	// StartingHealth is the health a snake holds at spawn and after eating.
	StartingHealth int
	// FoodSpawnChance is the percent chance (0-100) that a food spawns on a
	// turn where the board already holds at least MinimumFood.
	FoodSpawnChance int
	// MinimumFood is topped up every turn before the chance roll.
	MinimumFood int
	// HazardDamage is extra health lost per turn while the head is in hazard.
	HazardDamage int
	// TurnLimit ends the game in a draw once reached. Zero means no limit.
	TurnLimit int
	// ShrinkEveryNTurns grows the hazard border inward on this cadence.
	// Zero disables shrinking.
	ShrinkEveryNTurns int
	// ShrinkOnEliminationOnly defers a due shrink until a turn on which a
	// snake was eliminated.
	ShrinkOnEliminationOnly bool
}

// DefaultRuleset returns the standard parameters.
func DefaultRuleset() Ruleset {
	return Ruleset{
		StartingHealth:  100,
		FoodSpawnChance: 15,
		MinimumFood:     1,
		HazardDamage:    14,
		TurnLimit:       500,
	}
}

// State is a complete snapshot of a game at one turn.
type State struct {
	Width   int
	Height  int
	Snakes  []Snake
	Food    []Point
	Hazards []Point
	Turn    int
	Rules   Ruleset
}

// InBounds reports whether p lies on the board.
func (s *State) InBounds(p Point) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

// SnakeByID returns the snake with the given id, or nil if absent.
func (s *State) SnakeByID(id string) *Snake {
	for i := range s.Snakes {
		if s.Snakes[i].ID == id {
			return &s.Snakes[i]
		}
	}
	return nil
}

// HasFood reports whether a food sits on p.
func (s *State) HasFood(p Point) bool {
	for _, f := range s.Food {
		if f == p {
			return true
		}
	}
	return false
}

// HasHazard reports whether p is inside the hazard zone.
func (s *State) HasHazard(p Point) bool {
	for _, h := range s.Hazards {
		if h == p {
			return true
		}
	}
	return false
}

// Clone performs a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	out := &State{
		Width:  s.Width,
		Height: s.Height,
		Turn:   s.Turn,
		Rules:  s.Rules,
	}

	if len(s.Food) > 0 {
		out.Food = make([]Point, len(s.Food))
		copy(out.Food, s.Food)
	}

	if len(s.Hazards) > 0 {
		out.Hazards = make([]Point, len(s.Hazards))
		copy(out.Hazards, s.Hazards)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]Snake, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = Snake{ID: s.Snakes[i].ID, Health: s.Snakes[i].Health}
			if len(s.Snakes[i].Body) > 0 {
				out.Snakes[i].Body = make([]Point, len(s.Snakes[i].Body))
				copy(out.Snakes[i].Body, s.Snakes[i].Body)
			}
		}
	}

	return out
}

// Outcome classifies a finished or running game.
type Outcome int

const (
	// Ongoing means at least two snakes are still alive and the turn limit
	// has not been reached.
	Ongoing Outcome = iota
	// Won means exactly one snake survived.
	Won
	// Draw means no snake survived, or the turn limit ended the game with
	// more than one survivor.
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Ongoing:
		return "ongoing"
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Verdict is the result of advancing a state one turn. Winner is set only
// when Outcome is Won.
type Verdict struct {
	Outcome Outcome
	Winner  string
}
