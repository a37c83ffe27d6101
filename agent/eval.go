package agent

import (
	"hydrus/game"
)

// Terminal scores sit far outside the range a live position can reach, so
// search can recognize decided branches. A draw is scored below every live
// position but above a loss: taking an opponent with you beats dying alone.
const (
	winScore  = 1e9
	loseScore = -1e9
	drawScore = -winScore / 2
)

// Weights blends the evaluation terms. Each term is normalized to roughly
// [-1, 1] before weighting, so the weights express relative importance
// directly.
type Weights struct {
	// Space rewards the share of the board reachable from the head.
	Space float64 `json:"space"`
	// Food rewards being near food, scaled up sharply as health drops.
	Food float64 `json:"food"`
	// Health rewards the raw health fraction.
	Health float64 `json:"health"`
	// Length rewards outgrowing the longest opponent; being longer wins
	// head-to-head collisions.
	Length float64 `json:"length"`
}

// DefaultWeights favors board control, with food urgency taking over as
// health runs down. Health carries the same weight as Food so that a snake
// which just ate outscores one still hovering hungrily beside the food: the
// food term tops out at urgency*proximity < 1, which a full health bar must
// beat.
func DefaultWeights() Weights {
	return Weights{
		Space:  1.0,
		Food:   0.6,
		Health: 0.6,
		Length: 0.4,
	}
}

// Evaluator scores states for one snake's perspective. Higher is better.
type Evaluator struct {
	W Weights
}

// Score rates the state for the snake with the given id. Dead or absent
// snakes score as a loss; a won position scores as a win.
func (e Evaluator) Score(state *game.State, id string) float64 {
	you := state.SnakeByID(id)
	if you == nil || !you.Alive() {
		return loseScore
	}

	longestOther := 0
	for i := range state.Snakes {
		s := &state.Snakes[i]
		if s.ID == id || !s.Alive() {
			continue
		}
		if s.Length() > longestOther {
			longestOther = s.Length()
		}
	}
	if longestOther == 0 {
		return winScore
	}

	space, foodDist := reachable(state, you.Head())

	spaceTerm := float64(space) / float64(state.Width*state.Height)

	foodTerm := 0.0
	if foodDist >= 0 {
		hunger := 1 - float64(you.Health)/float64(state.Rules.StartingHealth)
		urgency := hunger * hunger
		maxDist := float64(state.Width + state.Height)
		foodTerm = urgency * (1 - float64(foodDist)/maxDist)
	}

	healthTerm := float64(you.Health) / float64(state.Rules.StartingHealth)

	lengthTerm := float64(you.Length()-longestOther) / 10
	if lengthTerm > 1 {
		lengthTerm = 1
	}
	if lengthTerm < -1 {
		lengthTerm = -1
	}

	return e.W.Space*spaceTerm + e.W.Food*foodTerm + e.W.Health*healthTerm + e.W.Length*lengthTerm
}

// reachable flood fills from a head and returns the number of reachable
// cells along with the breadth-first distance to the nearest food, or -1
// when no food can be reached. Snake bodies block; hazards do not, they
// only cost health.
func reachable(state *game.State, from game.Point) (space int, foodDist int) {
	w, h := state.Width, state.Height
	blocked := make([]bool, w*h)
	for i := range state.Snakes {
		s := &state.Snakes[i]
		if !s.Alive() {
			continue
		}
		for _, p := range s.Body {
			if p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h {
				blocked[p.Y*w+p.X] = true
			}
		}
	}

	food := make([]bool, w*h)
	for _, f := range state.Food {
		if f.X >= 0 && f.X < w && f.Y >= 0 && f.Y < h {
			food[f.Y*w+f.X] = true
		}
	}

	visited := make([]bool, w*h)
	dist := make([]int, w*h)
	queue := make([]game.Point, 0, w*h)

	start := from.Y*w + from.X
	visited[start] = true
	queue = append(queue, from)
	foodDist = -1

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		idx := p.Y*w + p.X
		space++

		if food[idx] && foodDist < 0 {
			foodDist = dist[idx]
		}

		for _, d := range game.Directions {
			n := d.Apply(p)
			if n.X < 0 || n.X >= w || n.Y < 0 || n.Y >= h {
				continue
			}
			ni := n.Y*w + n.X
			if visited[ni] || blocked[ni] {
				continue
			}
			visited[ni] = true
			dist[ni] = dist[idx] + 1
			queue = append(queue, n)
		}
	}

	// The head itself is always counted; subtract it so an enclosed snake
	// scores zero space.
	return space - 1, foodDist
}
