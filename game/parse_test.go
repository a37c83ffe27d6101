package game

import "testing"

func TestParse_SingleSnakeAndFood(t *testing.T) {
	st, err := Parse(`
		. . . o .
		. . . . .
		. 0 < < .
		. . . ^ .
		. . . . .
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if st.Width != 5 || st.Height != 5 {
		t.Fatalf("size=%dx%d want=5x5", st.Width, st.Height)
	}
	if len(st.Food) != 1 || st.Food[0] != (Point{X: 3, Y: 4}) {
		t.Fatalf("food=%v want=[(3,4)]", st.Food)
	}
	if len(st.Snakes) != 1 {
		t.Fatalf("snakes=%d want=1", len(st.Snakes))
	}

	s := st.Snakes[0]
	if s.ID != "0" {
		t.Fatalf("id=%q want=0", s.ID)
	}
	want := []Point{{X: 1, Y: 2}, {X: 2, Y: 2}, {X: 3, Y: 2}, {X: 3, Y: 1}}
	if len(s.Body) != len(want) {
		t.Fatalf("body len=%d want=%d", len(s.Body), len(want))
	}
	for i := range want {
		if s.Body[i] != want[i] {
			t.Fatalf("body[%d]=%v want=%v", i, s.Body[i], want[i])
		}
	}
	if s.Health != 100 {
		t.Fatalf("health=%d want=100", s.Health)
	}
}

func TestParse_TwoSnakesAndHazard(t *testing.T) {
	st, err := Parse(`
		# # # # #
		# 0 < . #
		# . . . #
		# . 1 < #
		# # # # #
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(st.Snakes) != 2 {
		t.Fatalf("snakes=%d want=2", len(st.Snakes))
	}
	if len(st.Hazards) != 16 {
		t.Fatalf("hazards=%d want=16", len(st.Hazards))
	}

	zero := st.SnakeByID("0")
	one := st.SnakeByID("1")
	if zero == nil || one == nil {
		t.Fatalf("missing snake: 0=%v 1=%v", zero, one)
	}
	if zero.Head() != (Point{X: 1, Y: 3}) {
		t.Fatalf("snake 0 head=%v want=(1,3)", zero.Head())
	}
	if one.Head() != (Point{X: 2, Y: 1}) {
		t.Fatalf("snake 1 head=%v want=(2,1)", one.Head())
	}
	if zero.Length() != 2 || one.Length() != 2 {
		t.Fatalf("lengths=%d,%d want=2,2", zero.Length(), one.Length())
	}
}

func TestParse_Rejects(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatalf("empty drawing should fail")
	}
	if _, err := Parse(". . .\n. ."); err == nil {
		t.Fatalf("ragged rows should fail")
	}
	if _, err := Parse(". ? ."); err == nil {
		t.Fatalf("unknown glyph should fail")
	}
}
