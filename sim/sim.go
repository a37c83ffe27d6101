// Package sim plays batches of games between configured agents and
// aggregates who won.
//
// Games are independent of each other, so the batch runs on a pool of
// workers with one game per worker at a time. A fixed Config.Seed makes the
// whole batch reproducible: every game derives its rng seed from the batch
// seed and its own index, and unseeded random agents are seeded the same
// way.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"hydrus/agent"
	"hydrus/game"
	"hydrus/rules"
)

// perGameSeedStride spaces per-game seeds so neighbouring games do not share
// low-bit structure.
const perGameSeedStride = 1000003

// Config describes a batch of games.
type Config struct {
	// Agents play in seat order: seat 0 spawns in the first corner, seat 1
	// in the second, and so on. Two to four seats.
	Agents []agent.Config

	// Ruleset applies to every game. The zero value means the default
	// ruleset.
	Ruleset game.Ruleset

	Width  int
	Height int

	// Games is how many games to play. Workers caps how many run at once;
	// zero means one per CPU.
	Games   int
	Workers int

	// Seed fixes the batch. Game i seeds its rules rng with
	// Seed + i*perGameSeedStride.
	Seed int64

	// MoveBudget bounds each ChooseMove call. Zero means no deadline.
	MoveBudget time.Duration
}

func (c Config) validate() error {
	if len(c.Agents) < 2 || len(c.Agents) > 4 {
		return fmt.Errorf("need 2 to 4 agents, got %d", len(c.Agents))
	}
	for i, ac := range c.Agents {
		if err := ac.Validate(); err != nil {
			return fmt.Errorf("agent %d: %w", i, err)
		}
	}
	if c.Width < 5 || c.Height < 5 {
		return fmt.Errorf("board %dx%d is too small, need at least 5x5", c.Width, c.Height)
	}
	if c.Games <= 0 {
		return fmt.Errorf("games must be positive, got %d", c.Games)
	}
	return nil
}

// GameResult reports one finished game.
type GameResult struct {
	Index    int    // position in the batch, 0-based
	Winner   int    // winning seat, -1 on a draw
	WinnerID string // snake id of the winner, "" on a draw
	Turns    int
	Seed     int64 // seed the game ran with, enough to replay it
	Elapsed  time.Duration
}

// Result aggregates a batch. Wins is indexed by seat; the wins summed with
// Draws equal Games. When Run stops early, Games counts only the games that
// actually finished.
type Result struct {
	Wins  []int
	Draws int
	Games int
}

// Run plays cfg.Games games and returns the aggregate. onGame, if non-nil,
// is called once per finished game on the calling goroutine, in completion
// order. Cancelling ctx stops the batch after the games already in flight
// wind down; the partial Result is returned along with the ctx error.
func Run(ctx context.Context, cfg Config, onGame func(GameResult)) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	if cfg.Ruleset == (game.Ruleset{}) {
		cfg.Ruleset = game.DefaultRuleset()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > cfg.Games {
		workers = cfg.Games
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		res GameResult
		err error
	}

	jobs := make(chan int)
	out := make(chan outcome, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res, err := playGame(ctx, cfg, idx)
				out <- outcome{res: res, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Games; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	result := Result{Wins: make([]int, len(cfg.Agents))}
	var firstErr error
	for oc := range out {
		if oc.err != nil {
			if firstErr == nil {
				firstErr = oc.err
				cancel()
			}
			continue
		}
		result.Games++
		if oc.res.Winner >= 0 {
			result.Wins[oc.res.Winner]++
		} else {
			result.Draws++
		}
		if onGame != nil {
			onGame(oc.res)
		}
	}
	// A short batch with no game error means the feeder stopped on ctx.
	if firstErr == nil && result.Games < cfg.Games {
		firstErr = ctx.Err()
	}
	return result, firstErr
}

// playGame runs one full game to its verdict.
func playGame(ctx context.Context, cfg Config, idx int) (GameResult, error) {
	start := time.Now()
	seed := cfg.Seed + int64(idx)*perGameSeedStride
	rng := rand.New(rand.NewSource(seed))

	ids := make([]string, len(cfg.Agents))
	players := make([]agent.Agent, len(cfg.Agents))
	for seat, ac := range cfg.Agents {
		ids[seat] = fmt.Sprintf("%s-%d", ac.Name(), seat)
		built, err := newSeatAgent(ac, seed, seat)
		if err != nil {
			return GameResult{}, fmt.Errorf("game %d seat %d: %w", idx, seat, err)
		}
		players[seat] = built
	}

	state := rules.NewGame(cfg.Width, cfg.Height, ids, cfg.Ruleset, rng)
	verdict := rules.Result(state)

	for verdict.Outcome == game.Ongoing {
		if err := ctx.Err(); err != nil {
			return GameResult{}, err
		}

		moves := make(map[string]game.Direction, len(state.Snakes))
		for seat, id := range ids {
			if state.SnakeByID(id) == nil {
				continue
			}
			move, err := chooseMove(ctx, cfg.MoveBudget, players[seat], state, id)
			if err != nil {
				return GameResult{}, fmt.Errorf("game %d turn %d %s: %w", idx, state.Turn, id, err)
			}
			moves[id] = move
		}

		state, verdict = rules.Advance(state, moves, rng)
	}

	res := GameResult{
		Index:   idx,
		Winner:  -1,
		Turns:   state.Turn,
		Seed:    seed,
		Elapsed: time.Since(start),
	}
	if verdict.Outcome == game.Won {
		res.WinnerID = verdict.Winner
		for seat, id := range ids {
			if id == verdict.Winner {
				res.Winner = seat
			}
		}
	}
	return res, nil
}

func chooseMove(ctx context.Context, budget time.Duration, a agent.Agent, state *game.State, id string) (game.Direction, error) {
	if budget <= 0 {
		return a.ChooseMove(ctx, state, id)
	}
	moveCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	return a.ChooseMove(moveCtx, state, id)
}

// newSeatAgent builds the agent for one seat. Random agents without an
// explicit seed get one derived from the game seed, otherwise a fixed batch
// seed would still produce unrepeatable games.
func newSeatAgent(ac agent.Config, gameSeed int64, seat int) (agent.Agent, error) {
	if ac.Random != nil && ac.Random.Seed == 0 {
		derived := *ac.Random
		derived.Seed = gameSeed*31 + int64(seat) + 1
		if derived.Seed == 0 {
			derived.Seed = 1
		}
		return agent.Config{Random: &derived}.New()
	}
	return ac.New()
}
