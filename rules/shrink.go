package rules

import "hydrus/game"

// ringDepth is the distance from p to the nearest board edge. Ring r of the
// shrinking border covers every cell at depth r-1.
func ringDepth(state *game.State, p game.Point) int {
	d := p.X
	if p.Y < d {
		d = p.Y
	}
	if v := state.Width - 1 - p.X; v < d {
		d = v
	}
	if v := state.Height - 1 - p.Y; v < d {
		d = v
	}
	return d
}

// ringsApplied counts how many complete border rings are already hazard.
// Deriving the count from the board itself means hand-built states with
// partial hazards behave sensibly: the first incomplete ring is completed
// next.
func ringsApplied(state *game.State) int {
	maxRings := (min(state.Width, state.Height) + 1) / 2
	for r := 0; r < maxRings; r++ {
		complete := true
		for y := 0; y < state.Height && complete; y++ {
			for x := 0; x < state.Width; x++ {
				p := game.Point{X: x, Y: y}
				if ringDepth(state, p) != r {
					continue
				}
				if !state.HasHazard(p) {
					complete = false
					break
				}
			}
		}
		if !complete {
			return r
		}
	}
	return maxRings
}

// applyShrink grows the hazard border inward by one ring when the shrink
// cadence has come due. With ShrinkOnEliminationOnly set, a due shrink
// waits for a turn on which a snake died; overdue rings still land one per
// qualifying turn, never in a burst.
func applyShrink(state *game.State, eliminated bool) {
	n := state.Rules.ShrinkEveryNTurns
	if n <= 0 {
		return
	}
	if state.Rules.ShrinkOnEliminationOnly && !eliminated {
		return
	}

	applied := ringsApplied(state)
	if state.Turn < (applied+1)*n {
		return
	}
	if applied >= (min(state.Width, state.Height)+1)/2 {
		return
	}

	for y := 0; y < state.Height; y++ {
		for x := 0; x < state.Width; x++ {
			p := game.Point{X: x, Y: y}
			if ringDepth(state, p) != applied {
				continue
			}
			if state.HasHazard(p) {
				continue
			}
			state.Hazards = append(state.Hazards, p)
		}
	}
}
