// Package agent implements move selection for snakes.
//
// An Agent picks one move for one snake in a given state. Implementations
// must honor the caller's context deadline by returning their best answer so
// far rather than an error: running out of time is normal operation, not a
// failure. Errors are reserved for contract violations such as asking for a
// move on behalf of a snake that is not in the game.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"hydrus/game"
)

// Agent picks a move for the snake with the given id.
type Agent interface {
	ChooseMove(ctx context.Context, state *game.State, id string) (game.Direction, error)
}

// Config selects and parameterizes one agent variant. Exactly one field may
// be set; the JSON form is a single-key object, e.g.
//
//	{"astar": {"max_depth": 8}}
//	{"random": {"seed": 42}}
type Config struct {
	AStar  *AStarConfig  `json:"astar,omitempty"`
	Random *RandomConfig `json:"random,omitempty"`
}

// AStarConfig tunes the searching agent. Zero values fall back to defaults.
type AStarConfig struct {
	Weights  *Weights `json:"weights,omitempty"`
	MaxDepth int      `json:"max_depth,omitempty"`
}

// RandomConfig seeds the random agent. Seed 0 means derive one from the
// clock at construction.
type RandomConfig struct {
	Seed int64 `json:"seed,omitempty"`
}

// Validate checks that exactly one variant is selected.
func (c Config) Validate() error {
	set := 0
	if c.AStar != nil {
		set++
	}
	if c.Random != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("agent config must set exactly one variant, got %d", set)
	}
	return nil
}

// Name returns the variant tag, for display and reporting.
func (c Config) Name() string {
	switch {
	case c.AStar != nil:
		return "astar"
	case c.Random != nil:
		return "random"
	default:
		return "invalid"
	}
}

// New constructs the configured agent.
func (c Config) New() (Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch {
	case c.AStar != nil:
		return NewAStar(*c.AStar), nil
	case c.Random != nil:
		return NewRandom(c.Random.Seed), nil
	default:
		return nil, fmt.Errorf("agent config has no variant")
	}
}

// ParseConfig decodes a JSON agent config and validates it.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parsing agent config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// snakeFor resolves the mover and fails fast when the contract is broken.
func snakeFor(state *game.State, id string) (*game.Snake, error) {
	s := state.SnakeByID(id)
	if s == nil {
		return nil, fmt.Errorf("snake %q is not in the game", id)
	}
	if !s.Alive() {
		return nil, fmt.Errorf("snake %q is dead", id)
	}
	return s, nil
}
