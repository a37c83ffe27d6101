package agent

import (
	"testing"

	"hydrus/game"
)

func evalState(snakes []game.Snake, food []game.Point) *game.State {
	return &game.State{
		Width:  7,
		Height: 7,
		Snakes: snakes,
		Food:   food,
		Rules:  game.DefaultRuleset(),
	}
}

func TestScore_DeadIsLoss(t *testing.T) {
	e := Evaluator{W: DefaultWeights()}

	state := evalState([]game.Snake{
		{ID: "b", Health: 100, Body: []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}}},
	}, nil)

	if got := e.Score(state, "a"); got != loseScore {
		t.Fatalf("absent snake score=%v want=%v", got, loseScore)
	}

	state.Snakes = append(state.Snakes, game.Snake{
		ID: "a", Health: 0, Body: []game.Point{{X: 1, Y: 1}},
	})
	if got := e.Score(state, "a"); got != loseScore {
		t.Fatalf("dead snake score=%v want=%v", got, loseScore)
	}
}

func TestScore_SoleSurvivorIsWin(t *testing.T) {
	e := Evaluator{W: DefaultWeights()}

	state := evalState([]game.Snake{
		{ID: "a", Health: 30, Body: []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}}},
	}, nil)

	if got := e.Score(state, "a"); got != winScore {
		t.Fatalf("sole survivor score=%v want=%v", got, winScore)
	}
}

func TestScore_PrefersOpenSpace(t *testing.T) {
	e := Evaluator{W: DefaultWeights()}

	you := game.Snake{ID: "a", Health: 80, Body: []game.Point{{X: 3, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 3}}}

	// Opponent out of the way on the top edge.
	open := evalState([]game.Snake{
		you,
		{ID: "b", Health: 80, Body: []game.Point{
			{X: 0, Y: 6}, {X: 1, Y: 6}, {X: 2, Y: 6}, {X: 3, Y: 6},
			{X: 4, Y: 6}, {X: 5, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 5},
		}},
	}, nil)

	// Same opponent coiled into a ring around us: zero reachable space.
	boxed := evalState([]game.Snake{
		you,
		{ID: "b", Health: 80, Body: []game.Point{
			{X: 2, Y: 3}, {X: 2, Y: 4}, {X: 3, Y: 4}, {X: 4, Y: 4},
			{X: 4, Y: 3}, {X: 4, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 2},
		}},
	}, nil)

	openScore := e.Score(open, "a")
	boxedScore := e.Score(boxed, "a")
	t.Logf("open=%v boxed=%v", openScore, boxedScore)
	if openScore <= boxedScore {
		t.Fatalf("open space should score higher: open=%v boxed=%v", openScore, boxedScore)
	}
}

func TestScore_FoodUrgencyScalesWithHunger(t *testing.T) {
	e := Evaluator{W: DefaultWeights()}

	build := func(health int, food game.Point) *game.State {
		return evalState([]game.Snake{
			{ID: "a", Health: health, Body: []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}}},
			{ID: "b", Health: 100, Body: []game.Point{{X: 6, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 6}}},
		}, []game.Point{food})
	}

	near := game.Point{X: 3, Y: 4}
	far := game.Point{X: 0, Y: 0}

	hungryGain := e.Score(build(10, near), "a") - e.Score(build(10, far), "a")
	fullGain := e.Score(build(95, near), "a") - e.Score(build(95, far), "a")
	t.Logf("hungryGain=%v fullGain=%v", hungryGain, fullGain)

	if hungryGain <= fullGain {
		t.Fatalf("food proximity should matter more when hungry: hungry=%v full=%v", hungryGain, fullGain)
	}
	if hungryGain <= 0 {
		t.Fatalf("a hungry snake should prefer near food, gain=%v", hungryGain)
	}
}

func TestScore_EatingBeatsHoveringBesideFood(t *testing.T) {
	e := Evaluator{W: DefaultWeights()}

	opponent := game.Snake{ID: "b", Health: 100, Body: []game.Point{{X: 6, Y: 0}, {X: 6, Y: 0}, {X: 6, Y: 0}}}

	// Starving with the meal one cell up.
	hover := evalState([]game.Snake{
		{ID: "a", Health: 3, Body: []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}}},
		opponent,
	}, []game.Point{{X: 3, Y: 4}})

	// The same snake one turn later, having taken it.
	ate := evalState([]game.Snake{
		{ID: "a", Health: 100, Body: []game.Point{{X: 3, Y: 4}, {X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 2}}},
		opponent,
	}, nil)

	fed := e.Score(ate, "a")
	hungry := e.Score(hover, "a")
	t.Logf("fed=%v hungry=%v", fed, hungry)
	if fed <= hungry {
		t.Fatalf("eating should outscore hovering beside the food: fed=%v hungry=%v", fed, hungry)
	}
}

func TestScore_PrefersLengthLead(t *testing.T) {
	e := Evaluator{W: DefaultWeights()}

	you := game.Snake{ID: "a", Health: 80, Body: []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}, {X: 3, Y: 1}}}

	shortOpp := evalState([]game.Snake{
		you,
		{ID: "b", Health: 80, Body: []game.Point{{X: 6, Y: 6}, {X: 6, Y: 5}}},
	}, nil)
	longOpp := evalState([]game.Snake{
		you,
		{ID: "b", Health: 80, Body: []game.Point{
			{X: 6, Y: 6}, {X: 6, Y: 5}, {X: 6, Y: 4}, {X: 6, Y: 3}, {X: 6, Y: 2}, {X: 6, Y: 1},
		}},
	}, nil)

	ahead := e.Score(shortOpp, "a")
	behind := e.Score(longOpp, "a")
	t.Logf("ahead=%v behind=%v", ahead, behind)
	if ahead <= behind {
		t.Fatalf("length lead should score higher: ahead=%v behind=%v", ahead, behind)
	}
}

func TestScore_FoodwardBeatsDeadEnd(t *testing.T) {
	e := Evaluator{W: DefaultWeights()}

	// The same hungry snake one turn later: out in the open next to food, or
	// tucked into a one-cell pocket against the wall with the food cut off.
	opponent := game.Snake{ID: "b", Health: 100, Body: []game.Point{{X: 6, Y: 6}, {X: 6, Y: 5}, {X: 6, Y: 4}}}

	foodward := evalState([]game.Snake{
		{ID: "a", Health: 20, Body: []game.Point{{X: 2, Y: 2}, {X: 2, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}},
		opponent,
	}, []game.Point{{X: 2, Y: 3}})

	deadEnd := evalState([]game.Snake{
		{ID: "a", Health: 20, Body: []game.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 0}}},
		opponent,
	}, []game.Point{{X: 2, Y: 3}})

	toward := e.Score(foodward, "a")
	trapped := e.Score(deadEnd, "a")
	t.Logf("foodward=%v deadEnd=%v", toward, trapped)
	if toward <= trapped {
		t.Fatalf("food-ward state should outscore the dead end: foodward=%v deadEnd=%v", toward, trapped)
	}
}

func TestReachable_CountsAndFoodDistance(t *testing.T) {
	state, err := game.Parse(`
		. . . . .
		. . . . .
		o . 0 < .
		. . . . .
		. . . . .
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	space, foodDist := reachable(state, state.Snakes[0].Head())

	// 25 cells minus the snake's two segments.
	if space != 23 {
		t.Fatalf("space=%d want=23", space)
	}
	if foodDist != 2 {
		t.Fatalf("foodDist=%d want=2", foodDist)
	}
}

func TestReachable_EnclosedIsZero(t *testing.T) {
	state := evalState([]game.Snake{
		{ID: "a", Health: 80, Body: []game.Point{{X: 0, Y: 0}}},
		{ID: "b", Health: 80, Body: []game.Point{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}},
	}, nil)

	space, foodDist := reachable(state, game.Point{X: 0, Y: 0})
	if space != 0 {
		t.Fatalf("space=%d want=0", space)
	}
	if foodDist != -1 {
		t.Fatalf("foodDist=%d want=-1", foodDist)
	}
}
