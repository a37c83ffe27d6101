package api

import (
	"fmt"
	"sort"

	"hydrus/game"
)

// maxSnakes bounds how many snakes a converted state carries. Bigger boards
// keep the requesting snake and its nearest opponents only.
const maxSnakes = 4

// Validate checks the parts of the payload the engine depends on. A real
// engine never sends a bad board; hand-crafted requests do.
func (r *GameRequest) Validate() error {
	if r.Board.Width <= 0 || r.Board.Height <= 0 {
		return fmt.Errorf("bad board dimensions %dx%d", r.Board.Width, r.Board.Height)
	}
	if r.Turn < 0 {
		return fmt.Errorf("negative turn %d", r.Turn)
	}
	if r.You.ID == "" {
		return fmt.Errorf("request names no snake")
	}

	inBounds := func(c Coord) bool {
		return c.X >= 0 && c.X < r.Board.Width && c.Y >= 0 && c.Y < r.Board.Height
	}
	maxHealth := r.ruleset().StartingHealth

	seen := make(map[string]bool, len(r.Board.Snakes))
	foundYou := false
	for _, s := range r.Board.Snakes {
		if s.ID == "" {
			return fmt.Errorf("snake with empty id")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate snake id %q", s.ID)
		}
		seen[s.ID] = true
		if s.ID == r.You.ID {
			foundYou = true
		}
		if s.Health < 0 || s.Health > maxHealth {
			return fmt.Errorf("snake %q health %d out of range", s.ID, s.Health)
		}
		if len(s.Body) == 0 {
			return fmt.Errorf("snake %q has no body", s.ID)
		}
		for _, c := range s.Body {
			if !inBounds(c) {
				return fmt.Errorf("snake %q body cell (%d,%d) is off the board", s.ID, c.X, c.Y)
			}
		}
	}
	if !foundYou {
		return fmt.Errorf("snake %q is not on the board", r.You.ID)
	}

	food := make(map[Coord]bool, len(r.Board.Food))
	for _, c := range r.Board.Food {
		if !inBounds(c) {
			return fmt.Errorf("food (%d,%d) is off the board", c.X, c.Y)
		}
		if food[c] {
			return fmt.Errorf("duplicate food at (%d,%d)", c.X, c.Y)
		}
		food[c] = true
	}
	for _, c := range r.Board.Hazards {
		if !inBounds(c) {
			return fmt.Errorf("hazard (%d,%d) is off the board", c.X, c.Y)
		}
	}
	return nil
}

// State converts the request into an engine state.
//
// Boards with more than four snakes are cut down to the requesting snake
// plus its three nearest opponents, head to head. Snakes half a board away
// blow up the search space without changing the best move.
func (r *GameRequest) State() (*game.State, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	st := &game.State{
		Width:  r.Board.Width,
		Height: r.Board.Height,
		Turn:   r.Turn,
		Rules:  r.ruleset(),
	}
	for _, c := range r.Board.Food {
		st.Food = append(st.Food, game.Point{X: c.X, Y: c.Y})
	}
	for _, c := range r.Board.Hazards {
		st.Hazards = append(st.Hazards, game.Point{X: c.X, Y: c.Y})
	}

	keep := r.Board.Snakes
	if len(keep) > maxSnakes {
		keep = nearestSnakes(r.Board.Snakes, r.You.ID, maxSnakes)
	}
	for _, s := range keep {
		snake := game.Snake{ID: s.ID, Health: s.Health, Body: make([]game.Point, len(s.Body))}
		for i, c := range s.Body {
			snake.Body[i] = game.Point{X: c.X, Y: c.Y}
		}
		st.Snakes = append(st.Snakes, snake)
	}
	return st, nil
}

// ruleset maps wire settings onto engine rules. The wire never carries a
// starting health, and engine games end by elimination rather than a turn
// count, so those two stay at their defaults.
func (r *GameRequest) ruleset() game.Ruleset {
	rs := game.DefaultRuleset()
	rs.TurnLimit = 0
	if r.Game.Ruleset.Name == "" {
		return rs
	}
	s := r.Game.Ruleset.Settings
	rs.FoodSpawnChance = s.FoodSpawnChance
	rs.MinimumFood = s.MinimumFood
	rs.HazardDamage = s.HazardDamagePerTurn
	rs.ShrinkEveryNTurns = s.Royale.ShrinkEveryNTurns
	return rs
}

// nearestSnakes keeps you plus the n-1 closest opponents.
func nearestSnakes(snakes []Battlesnake, youID string, n int) []Battlesnake {
	var you Battlesnake
	others := make([]Battlesnake, 0, len(snakes)-1)
	for _, s := range snakes {
		if s.ID == youID {
			you = s
		} else {
			others = append(others, s)
		}
	}
	yh := you.Body[0]
	dist := func(s Battlesnake) int {
		h := s.Body[0]
		return abs(h.X-yh.X) + abs(h.Y-yh.Y)
	}
	sort.SliceStable(others, func(i, j int) bool {
		di, dj := dist(others[i]), dist(others[j])
		if di != dj {
			return di < dj
		}
		return others[i].ID < others[j].ID
	})
	return append([]Battlesnake{you}, others[:n-1]...)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
