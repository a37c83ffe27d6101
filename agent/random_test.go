package agent

import (
	"context"
	"math/rand"
	"testing"

	"hydrus/game"
	"hydrus/rules"
)

func TestRandom_OnlyLegalMoves(t *testing.T) {
	ctx := context.Background()
	r := NewRandom(7)

	state := rules.NewGame(11, 11, []string{"a", "b"}, game.DefaultRuleset(), rand.New(rand.NewSource(1)))
	rng := rand.New(rand.NewSource(2))

	for turn := 0; turn < 150; turn++ {
		if state.SnakeByID("a") == nil {
			return
		}

		move, err := r.ChooseMove(ctx, state, "a")
		if err != nil {
			t.Fatalf("turn %d: %v", turn, err)
		}

		legal := rules.LegalMoves(state, "a")
		if len(legal) > 0 {
			found := false
			for _, d := range legal {
				if d == move {
					found = true
				}
			}
			if !found {
				t.Fatalf("turn %d: move %s not in legal set %v", turn, move, legal)
			}
		}

		moves := map[string]game.Direction{"a": move}
		if legalB := rules.LegalMoves(state, "b"); len(legalB) > 0 {
			moves["b"] = legalB[rng.Intn(len(legalB))]
		}

		var verdict game.Verdict
		state, verdict = rules.Advance(state, moves, rng)
		if verdict.Outcome != game.Ongoing {
			return
		}
	}
}

func TestRandom_SameSeedSameMoves(t *testing.T) {
	ctx := context.Background()
	state := rules.NewGame(11, 11, []string{"a", "b"}, game.DefaultRuleset(), rand.New(rand.NewSource(5)))

	r1 := NewRandom(99)
	r2 := NewRandom(99)

	for i := 0; i < 50; i++ {
		m1, err1 := r1.ChooseMove(ctx, state, "a")
		m2, err2 := r2.ChooseMove(ctx, state, "a")
		if err1 != nil || err2 != nil {
			t.Fatalf("errors: %v %v", err1, err2)
		}
		if m1 != m2 {
			t.Fatalf("call %d: same seed diverged: %s vs %s", i, m1, m2)
		}
	}
}

func TestRandom_BoxedInContinuesStraight(t *testing.T) {
	state := &game.State{
		Width:  5,
		Height: 5,
		Snakes: []game.Snake{{
			ID:     "a",
			Health: 100,
			Body:   []game.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 0}},
		}},
		Rules: game.DefaultRuleset(),
	}

	if legal := rules.LegalMoves(state, "a"); len(legal) != 0 {
		t.Fatalf("setup broken, legal=%v want none", legal)
	}

	move, err := NewRandom(1).ChooseMove(context.Background(), state, "a")
	if err != nil {
		t.Fatalf("boxed in should not error: %v", err)
	}
	if move != game.Down {
		t.Fatalf("move=%s want=down (current heading)", move)
	}
}

func TestRandom_DeadSnakeErrors(t *testing.T) {
	state := &game.State{
		Width:  5,
		Height: 5,
		Snakes: []game.Snake{{ID: "a", Health: 0, Body: []game.Point{{X: 1, Y: 1}}}},
		Rules:  game.DefaultRuleset(),
	}

	r := NewRandom(1)
	if _, err := r.ChooseMove(context.Background(), state, "a"); err == nil {
		t.Fatalf("dead snake should error")
	}
	if _, err := r.ChooseMove(context.Background(), state, "ghost"); err == nil {
		t.Fatalf("unknown snake should error")
	}
}
