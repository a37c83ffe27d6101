package agent

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"hydrus/game"
	"hydrus/rules"
)

// Random picks uniformly among legal moves. With a fixed seed it is fully
// reproducible, which makes it the baseline opponent for simulations and the
// fallback policy when search cannot run.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom builds a random agent. Seed 0 draws a seed from the clock.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// ChooseMove returns a uniformly random legal move. When boxed in with no
// legal moves it continues straight, which at least keeps the losing move
// predictable.
func (r *Random) ChooseMove(_ context.Context, state *game.State, id string) (game.Direction, error) {
	you, err := snakeFor(state, id)
	if err != nil {
		return game.Up, err
	}

	legal := rules.LegalMoves(state, id)
	if len(legal) == 0 {
		return rules.Heading(you), nil
	}

	r.mu.Lock()
	move := legal[r.rng.Intn(len(legal))]
	r.mu.Unlock()
	return move, nil
}
