// Package rules implements the deterministic transition function of the game.
//
// Advance is the single entry point: it never mutates its input, so agents
// can branch freely from any state they hold. All randomness flows through
// the caller's rng; a nil rng disables food spawning entirely, which keeps
// search futures stable.
package rules

import (
	"math/rand"

	"hydrus/game"
)

// Heading returns the direction a snake is currently facing, inferred from
// its first two segments. Freshly spawned snakes are stacked and have no
// facing yet; they default to Up.
func Heading(s *game.Snake) game.Direction {
	if len(s.Body) < 2 {
		return game.Up
	}
	head, neck := s.Body[0], s.Body[1]
	switch {
	case head.Y > neck.Y:
		return game.Up
	case head.Y < neck.Y:
		return game.Down
	case head.X < neck.X:
		return game.Left
	case head.X > neck.X:
		return game.Right
	default:
		return game.Up
	}
}

// LegalMoves returns the moves that do not lose immediately for the snake
// with the given id. Tails count as free cells because they vacate on the
// same turn, unless the tail is stacked from a recent meal. The result may
// be empty; Advance still accepts any move and resolves the consequences.
func LegalMoves(state *game.State, id string) []game.Direction {
	you := state.SnakeByID(id)
	if you == nil || !you.Alive() {
		return nil
	}

	head := you.Head()
	var moves []game.Direction
	for _, d := range game.Directions {
		if isSafe(state, d.Apply(head)) {
			moves = append(moves, d)
		}
	}
	return moves
}

func isSafe(state *game.State, p game.Point) bool {
	if !state.InBounds(p) {
		return false
	}

	for _, s := range state.Snakes {
		if !s.Alive() {
			continue
		}
		last := len(s.Body) - 1
		tailVacates := last > 0 && s.Body[last] != s.Body[last-1]
		for i, bp := range s.Body {
			if i == last && tailVacates {
				continue
			}
			if p == bp {
				return false
			}
		}
	}

	return true
}

// Advance applies one simultaneous turn to state and returns the successor
// along with a verdict. Moves are keyed by snake id; a snake without an
// entry continues straight. The input state is never modified.
//
// The state must be live: advancing a position whose game is already won or
// drawn is a caller bug, and Advance does not guard against it. Check
// Result before calling.
//
// Elimination conditions are evaluated against the board after every snake
// has moved, so the order snakes appear in has no effect on who dies: a
// snake eliminated this turn still participates in every collision check.
func Advance(state *game.State, moves map[string]game.Direction, rng *rand.Rand) (*game.State, game.Verdict) {
	next := state.Clone()
	next.Turn++

	// Tentative new heads for every snake moving this turn.
	newHeads := make(map[string]game.Point, len(next.Snakes))
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if !s.Alive() {
			continue
		}
		move, ok := moves[s.ID]
		if !ok {
			move = Heading(s)
		}
		newHeads[s.ID] = move.Apply(s.Head())
	}

	// Food is claimed by head position before bodies update. Two snakes
	// arriving on the same food both eat it.
	eaten := make(map[int]bool)
	ate := make(map[string]bool)
	for id, head := range newHeads {
		for i, f := range next.Food {
			if f == head {
				eaten[i] = true
				ate[id] = true
			}
		}
	}
	if len(eaten) > 0 {
		remaining := next.Food[:0]
		for i, f := range next.Food {
			if !eaten[i] {
				remaining = append(remaining, f)
			}
		}
		next.Food = remaining
	}

	// Move bodies and settle health. Growth duplicates the new tail so the
	// stack unwinds over the following turns.
	for i := range next.Snakes {
		s := &next.Snakes[i]
		head, ok := newHeads[s.ID]
		if !ok {
			continue
		}

		body := make([]game.Point, 0, len(s.Body)+1)
		body = append(body, head)
		body = append(body, s.Body[:len(s.Body)-1]...)
		if ate[s.ID] {
			body = append(body, body[len(body)-1])
		}
		s.Body = body

		s.Health--
		if next.InBounds(head) && next.HasHazard(head) {
			s.Health -= next.Rules.HazardDamage
		}
		if ate[s.ID] {
			s.Health = next.Rules.StartingHealth
		}
		if s.Health < 0 {
			s.Health = 0
		}
	}

	// Eliminations, all judged against the fully moved board.
	dead := make(map[string]bool)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if _, moved := newHeads[s.ID]; !moved {
			continue
		}

		if s.Health <= 0 {
			dead[s.ID] = true
		}

		head := s.Head()
		if !next.InBounds(head) {
			dead[s.ID] = true
			continue
		}

		for j := range next.Snakes {
			other := &next.Snakes[j]
			if _, moved := newHeads[other.ID]; !moved {
				continue
			}
			for k, p := range other.Body {
				if k == 0 {
					// Heads are settled by the length rule below.
					continue
				}
				if p == head {
					dead[s.ID] = true
				}
			}
		}
	}

	for i := 0; i < len(next.Snakes); i++ {
		s1 := &next.Snakes[i]
		if _, moved := newHeads[s1.ID]; !moved {
			continue
		}
		for j := i + 1; j < len(next.Snakes); j++ {
			s2 := &next.Snakes[j]
			if _, moved := newHeads[s2.ID]; !moved {
				continue
			}
			if s1.Head() != s2.Head() {
				continue
			}
			switch {
			case s1.Length() > s2.Length():
				dead[s2.ID] = true
			case s2.Length() > s1.Length():
				dead[s1.ID] = true
			default:
				dead[s1.ID] = true
				dead[s2.ID] = true
			}
		}
	}

	if len(dead) > 0 {
		living := next.Snakes[:0]
		for _, s := range next.Snakes {
			if dead[s.ID] {
				continue
			}
			living = append(living, s)
		}
		next.Snakes = living
	}

	applyShrink(next, len(dead) > 0)

	if rng != nil {
		applyFoodRules(next, rng)
	}

	return next, Result(next)
}

// Result judges a state: Won with the survivor's id if exactly one snake
// remains, Draw if none remain or the turn limit has passed, Ongoing
// otherwise.
func Result(state *game.State) game.Verdict {
	living := 0
	winner := ""
	for i := range state.Snakes {
		if state.Snakes[i].Alive() {
			living++
			winner = state.Snakes[i].ID
		}
	}

	switch {
	case living == 1:
		return game.Verdict{Outcome: game.Won, Winner: winner}
	case living == 0:
		return game.Verdict{Outcome: game.Draw}
	case state.Rules.TurnLimit > 0 && state.Turn >= state.Rules.TurnLimit:
		return game.Verdict{Outcome: game.Draw}
	default:
		return game.Verdict{Outcome: game.Ongoing}
	}
}

// startingCorners lists spawn cells in seat order for up to four snakes.
func startingCorners(width, height int) [4]game.Point {
	return [4]game.Point{
		{X: 1, Y: 1},
		{X: width - 2, Y: height - 2},
		{X: 1, Y: height - 2},
		{X: width - 2, Y: 1},
	}
}

// NewGame builds a turn-zero state with one stacked length-3 snake per id,
// placed on opposite corners in seat order, and the minimum food already on
// the board. The rng places starting food; nil leaves the board foodless.
func NewGame(width, height int, ids []string, rs game.Ruleset, rng *rand.Rand) *game.State {
	state := &game.State{
		Width:  width,
		Height: height,
		Rules:  rs,
	}

	corners := startingCorners(width, height)
	for i, id := range ids {
		spawn := corners[i%len(corners)]
		state.Snakes = append(state.Snakes, game.Snake{
			ID:     id,
			Health: rs.StartingHealth,
			Body:   []game.Point{spawn, spawn, spawn},
		})
	}

	if rng != nil {
		applyFoodRules(state, rng)
	}

	return state
}
