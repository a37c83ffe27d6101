package rules

import (
	"math/rand"

	"hydrus/game"
)

// applyFoodRules tops the board up to MinimumFood and then rolls
// FoodSpawnChance for one extra. Food lands on a uniformly chosen cell that
// holds no snake segment and no food; hazard cells are fair game. Callers
// that want food-free transitions pass rng=nil to Advance and this is never
// reached.
func applyFoodRules(state *game.State, rng *rand.Rand) {
	if state.Width <= 0 || state.Height <= 0 {
		return
	}

	minFood := state.Rules.MinimumFood
	if minFood < 0 {
		minFood = 0
	}
	chance := state.Rules.FoodSpawnChance
	if chance < 0 {
		chance = 0
	}
	if chance > 100 {
		chance = 100
	}

	deficit := minFood - len(state.Food)
	if deficit < 0 {
		deficit = 0
	}

	spawnExtra := chance > 0 && rng.Intn(100) < chance

	toSpawn := deficit
	if spawnExtra {
		toSpawn++
	}
	if toSpawn == 0 {
		return
	}

	occupied := make(map[game.Point]struct{}, state.Width*state.Height)
	for _, s := range state.Snakes {
		if !s.Alive() {
			continue
		}
		for _, p := range s.Body {
			occupied[p] = struct{}{}
		}
	}
	for _, f := range state.Food {
		occupied[f] = struct{}{}
	}

	available := make([]game.Point, 0, state.Width*state.Height)
	for y := 0; y < state.Height; y++ {
		for x := 0; x < state.Width; x++ {
			p := game.Point{X: x, Y: y}
			if _, ok := occupied[p]; ok {
				continue
			}
			available = append(available, p)
		}
	}

	for ; toSpawn > 0 && len(available) > 0; toSpawn-- {
		i := rng.Intn(len(available))
		state.Food = append(state.Food, available[i])
		available[i] = available[len(available)-1]
		available = available[:len(available)-1]
	}
}
