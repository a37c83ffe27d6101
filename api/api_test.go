package api

import (
	"fmt"
	"strings"
	"testing"

	"hydrus/game"
)

// engineRequest is a trimmed copy of a real engine /move payload.
const engineRequest = `{
  "game": {
    "id": "7c17ba6d-e9f0-4c2d-a9a4-2f5a0a1b6a01",
    "ruleset": {
      "name": "royale",
      "version": "v1.2.3",
      "settings": {
        "foodSpawnChance": 15,
        "minimumFood": 1,
        "hazardDamagePerTurn": 14,
        "royale": {"shrinkEveryNTurns": 25}
      }
    },
    "map": "royale",
    "timeout": 500,
    "source": "league"
  },
  "turn": 14,
  "board": {
    "height": 11,
    "width": 11,
    "food": [{"x": 5, "y": 5}, {"x": 9, "y": 0}],
    "hazards": [{"x": 0, "y": 0}, {"x": 0, "y": 1}],
    "snakes": [
      {
        "id": "you-id",
        "name": "hydrus",
        "health": 54,
        "body": [{"x": 0, "y": 2}, {"x": 1, "y": 2}, {"x": 2, "y": 2}],
        "latency": "111",
        "head": {"x": 0, "y": 2},
        "length": 3,
        "shout": ""
      },
      {
        "id": "them-id",
        "name": "rival",
        "health": 16,
        "body": [{"x": 5, "y": 4}, {"x": 5, "y": 3}, {"x": 6, "y": 3}],
        "latency": "222",
        "head": {"x": 5, "y": 4},
        "length": 3,
        "shout": "hiss"
      }
    ]
  },
  "you": {
    "id": "you-id",
    "name": "hydrus",
    "health": 54,
    "body": [{"x": 0, "y": 2}, {"x": 1, "y": 2}, {"x": 2, "y": 2}],
    "latency": "111",
    "head": {"x": 0, "y": 2},
    "length": 3,
    "shout": ""
  }
}`

func TestReadGameRequest_EnginePayload(t *testing.T) {
	req, err := ReadGameRequest(strings.NewReader(engineRequest))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if req.Game.ID != "7c17ba6d-e9f0-4c2d-a9a4-2f5a0a1b6a01" {
		t.Fatalf("game id=%q", req.Game.ID)
	}
	if req.Game.Timeout != 500 {
		t.Fatalf("timeout=%d want=500", req.Game.Timeout)
	}

	state, err := req.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Width != 11 || state.Height != 11 || state.Turn != 14 {
		t.Fatalf("board %dx%d turn %d", state.Width, state.Height, state.Turn)
	}
	if len(state.Food) != 2 || !state.HasFood(game.Point{X: 5, Y: 5}) {
		t.Fatalf("food=%v", state.Food)
	}
	if len(state.Hazards) != 2 || !state.HasHazard(game.Point{X: 0, Y: 1}) {
		t.Fatalf("hazards=%v", state.Hazards)
	}

	you := state.SnakeByID("you-id")
	if you == nil {
		t.Fatalf("requesting snake missing from state")
	}
	if you.Health != 54 {
		t.Fatalf("health=%d want=54", you.Health)
	}
	wantBody := []game.Point{{X: 0, Y: 2}, {X: 1, Y: 2}, {X: 2, Y: 2}}
	for i, p := range wantBody {
		if you.Body[i] != p {
			t.Fatalf("body[%d]=%v want=%v", i, you.Body[i], p)
		}
	}

	rs := state.Rules
	if rs.FoodSpawnChance != 15 || rs.MinimumFood != 1 || rs.HazardDamage != 14 {
		t.Fatalf("ruleset=%+v", rs)
	}
	if rs.ShrinkEveryNTurns != 25 {
		t.Fatalf("shrink=%d want=25", rs.ShrinkEveryNTurns)
	}
	if rs.TurnLimit != 0 {
		t.Fatalf("turn limit=%d, engine games have none", rs.TurnLimit)
	}
}

func TestReadGameRequest_MalformedJSON(t *testing.T) {
	if _, err := ReadGameRequest(strings.NewReader(`{"board": [}`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func validRequest() *GameRequest {
	snake := func(id string, x, y int) Battlesnake {
		return Battlesnake{
			ID:     id,
			Health: 90,
			Body:   []Coord{{X: x, Y: y}, {X: x, Y: y - 1}},
			Head:   Coord{X: x, Y: y},
			Length: 2,
		}
	}
	you := snake("you", 1, 1)
	return &GameRequest{
		Turn: 3,
		Board: Board{
			Width:   7,
			Height:  7,
			Food:    []Coord{{X: 3, Y: 3}},
			Hazards: []Coord{{X: 6, Y: 6}},
			Snakes:  []Battlesnake{you, snake("them", 5, 5)},
		},
		You: you,
	}
}

func TestGameRequest_ValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*GameRequest)
	}{
		{"zero width", func(r *GameRequest) { r.Board.Width = 0 }},
		{"negative turn", func(r *GameRequest) { r.Turn = -1 }},
		{"no you", func(r *GameRequest) { r.You.ID = "" }},
		{"you not on board", func(r *GameRequest) { r.You.ID = "ghost" }},
		{"duplicate snake id", func(r *GameRequest) { r.Board.Snakes[1].ID = "you" }},
		{"empty body", func(r *GameRequest) { r.Board.Snakes[1].Body = nil }},
		{"body off board", func(r *GameRequest) { r.Board.Snakes[1].Body[0] = Coord{X: 7, Y: 5} }},
		{"negative health", func(r *GameRequest) { r.Board.Snakes[1].Health = -1 }},
		{"health above start", func(r *GameRequest) { r.Board.Snakes[1].Health = 150 }},
		{"food off board", func(r *GameRequest) { r.Board.Food[0] = Coord{X: -1, Y: 0} }},
		{"duplicate food", func(r *GameRequest) { r.Board.Food = append(r.Board.Food, r.Board.Food[0]) }},
		{"hazard off board", func(r *GameRequest) { r.Board.Hazards[0] = Coord{X: 0, Y: 9} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)
			if err := req.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if err := validRequest().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestState_TruncatesToNearestOpponents(t *testing.T) {
	req := validRequest()
	req.Board.Width = 19
	req.Board.Height = 19
	req.Board.Snakes = req.Board.Snakes[:1] // keep "you" at (1,1)
	for i, d := range []int{2, 4, 6, 8, 10} {
		s := Battlesnake{
			ID:     fmt.Sprintf("s%d", i),
			Health: 90,
			Body:   []Coord{{X: 1 + d, Y: 1}, {X: 1 + d, Y: 0}},
			Head:   Coord{X: 1 + d, Y: 1},
			Length: 2,
		}
		req.Board.Snakes = append(req.Board.Snakes, s)
	}

	state, err := req.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(state.Snakes) != 4 {
		t.Fatalf("kept %d snakes, want 4", len(state.Snakes))
	}
	if state.Snakes[0].ID != "you" {
		t.Fatalf("first snake=%q want=you", state.Snakes[0].ID)
	}
	for _, id := range []string{"s0", "s1", "s2"} {
		if state.SnakeByID(id) == nil {
			t.Fatalf("near snake %q was dropped", id)
		}
	}
	for _, id := range []string{"s3", "s4"} {
		if state.SnakeByID(id) != nil {
			t.Fatalf("far snake %q was kept", id)
		}
	}
}
