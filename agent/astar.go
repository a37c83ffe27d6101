package agent

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"

	"hydrus/game"
	"hydrus/rules"
)

const (
	// Boards beyond this size make the search tree too wide for a move
	// budget; the agent degrades to a uniform pick among legal moves.
	maxBoardSize = 19

	defaultMaxDepth = 12

	// hungerUpkeep is credited for every searched turn a branch stays
	// alive, scaled by health. Leaves alone cannot see when a branch ate,
	// so without a per-turn term the search prefers deferring a meal to
	// its last ply, where the horizon health reads highest.
	hungerUpkeep = 0.02
)

// AStar is the searching agent. It runs iterative deepening over full game
// turns: its own moves branch, opponents follow a fixed one-step policy,
// and leaves are scored by the Evaluator. The search keeps the best answer
// from the last completed depth, so hitting the deadline mid-depth never
// costs more than the partial work.
type AStar struct {
	eval     Evaluator
	maxDepth int
}

// NewAStar builds the searching agent, filling in default weights and depth
// where the config leaves them zero.
func NewAStar(cfg AStarConfig) *AStar {
	w := DefaultWeights()
	if cfg.Weights != nil {
		w = *cfg.Weights
	}
	depth := cfg.MaxDepth
	if depth <= 0 {
		depth = defaultMaxDepth
	}
	return &AStar{
		eval:     Evaluator{W: w},
		maxDepth: depth,
	}
}

// ChooseMove searches until the context deadline or the depth cap, whichever
// comes first, and returns the best move found so far. Deadline expiry is
// not an error.
func (a *AStar) ChooseMove(ctx context.Context, state *game.State, id string) (game.Direction, error) {
	you, err := snakeFor(state, id)
	if err != nil {
		return game.Up, err
	}

	legal := rules.LegalMoves(state, id)
	if len(legal) == 0 {
		// Boxed in. Continue straight and let the rules settle it.
		return rules.Heading(you), nil
	}
	if len(legal) == 1 {
		return legal[0], nil
	}

	if state.Width > maxBoardSize || state.Height > maxBoardSize {
		return legal[saltIndex(state, id, len(legal))], nil
	}

	ordered := a.orderRoot(ctx, state, you, legal)
	best := ordered[0]

	for depth := 1; depth <= a.maxDepth; depth++ {
		move, score, complete := a.searchRoot(ctx, state, id, ordered, depth)
		if !complete {
			break
		}
		best = move
		promote(ordered, best)

		if score >= winScore || score <= loseScore {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	return best, nil
}

// searchRoot evaluates every root move at a fixed depth. complete is false
// when the deadline interrupted the sweep, in which case the caller should
// discard the partial result in favor of the previous depth's answer.
func (a *AStar) searchRoot(ctx context.Context, state *game.State, id string, ordered []game.Direction, depth int) (game.Direction, float64, bool) {
	best := ordered[0]
	bestScore := math.Inf(-1)

	for _, move := range ordered {
		if ctx.Err() != nil {
			return best, bestScore, false
		}

		next, _ := rules.Advance(state, a.jointMoves(state, id, move), nil)
		score, ok := a.search(ctx, next, id, depth-1)
		if score > bestScore {
			bestScore = score
			best = move
		}
		if !ok {
			return best, bestScore, false
		}
	}

	return best, bestScore, true
}

func (a *AStar) search(ctx context.Context, state *game.State, id string, depth int) (float64, bool) {
	if ctx.Err() != nil {
		return a.eval.Score(state, id), false
	}

	// Decided positions score outside the heuristic range, shaded by depth
	// so wins land sooner and losses later.
	verdict := rules.Result(state)
	switch verdict.Outcome {
	case game.Won:
		if verdict.Winner == id {
			return winScore + float64(depth), true
		}
		return loseScore - float64(depth), true
	case game.Draw:
		return drawScore, true
	}

	you := state.SnakeByID(id)
	if you == nil || !you.Alive() {
		return loseScore - float64(depth), true
	}

	if depth == 0 {
		return a.eval.Score(state, id), true
	}

	legal := rules.LegalMoves(state, id)
	if len(legal) == 0 {
		return loseScore - float64(depth), true
	}

	best := math.Inf(-1)
	for _, move := range legal {
		next, _ := rules.Advance(state, a.jointMoves(state, id, move), nil)
		score, ok := a.search(ctx, next, id, depth-1)
		if score > best {
			best = score
		}
		if !ok {
			return best, false
		}
	}

	upkeep := hungerUpkeep * float64(you.Health) / float64(state.Rules.StartingHealth)
	return best + upkeep, true
}

// jointMoves pairs the ego move with one predicted move per opponent.
func (a *AStar) jointMoves(state *game.State, id string, move game.Direction) map[string]game.Direction {
	moves := predictOpponents(state, id)
	moves[id] = move
	return moves
}

// predictOpponents picks one move for every other living snake: the legal
// move that keeps the most immediate freedom, nudged toward food and away
// from stronger heads. Opponents with no legal move are left out so they
// continue straight.
func predictOpponents(state *game.State, egoID string) map[string]game.Direction {
	moves := make(map[string]game.Direction, len(state.Snakes))

	for i := range state.Snakes {
		s := &state.Snakes[i]
		if s.ID == egoID || !s.Alive() {
			continue
		}

		legal := rules.LegalMoves(state, s.ID)
		if len(legal) == 0 {
			continue
		}

		best := legal[0]
		bestScore := math.Inf(-1)
		for _, d := range legal {
			if score := opponentMoveScore(state, s, d); score > bestScore {
				bestScore = score
				best = d
			}
		}
		moves[s.ID] = best
	}

	return moves
}

// opponentMoveScore is deliberately cheap: it runs for every opponent at
// every node of the search.
func opponentMoveScore(state *game.State, s *game.Snake, d game.Direction) float64 {
	q := d.Apply(s.Head())

	score := float64(freedom(state, q))
	if state.HasFood(q) {
		score += 0.5
	}
	for i := range state.Snakes {
		o := &state.Snakes[i]
		if o.ID == s.ID || !o.Alive() {
			continue
		}
		if o.Length() >= s.Length() && manhattan(o.Head(), q) == 1 {
			score -= 2
		}
	}

	return score
}

// freedom counts open cells next to p.
func freedom(state *game.State, p game.Point) int {
	open := 0
	for _, d := range game.Directions {
		q := d.Apply(p)
		if !state.InBounds(q) {
			continue
		}
		if occupied(state, q) {
			continue
		}
		open++
	}
	return open
}

func occupied(state *game.State, p game.Point) bool {
	for i := range state.Snakes {
		s := &state.Snakes[i]
		if !s.Alive() {
			continue
		}
		for _, bp := range s.Body {
			if bp == p {
				return true
			}
		}
	}
	return false
}

func manhattan(a, b game.Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// orderRoot ranks the root moves by a one-turn lookahead, then puts the
// first step of the shortest path to food in front. Good root ordering is
// what lets a truncated depth still return a sane move.
func (a *AStar) orderRoot(ctx context.Context, state *game.State, you *game.Snake, legal []game.Direction) []game.Direction {
	type scored struct {
		move  game.Direction
		score float64
	}

	ranked := make([]scored, 0, len(legal))
	for _, move := range legal {
		if ctx.Err() != nil {
			// Out of time already; any legal order will do.
			return legal
		}
		next, _ := rules.Advance(state, a.jointMoves(state, you.ID, move), nil)
		ranked = append(ranked, scored{move: move, score: a.eval.Score(next, you.ID)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	ordered := make([]game.Direction, len(ranked))
	for i, r := range ranked {
		ordered[i] = r.move
	}

	if step, ok := firstStepToFood(state, you); ok {
		promote(ordered, step)
	}

	return ordered
}

// promote moves d to the front of moves if present, keeping the rest in
// order.
func promote(moves []game.Direction, d game.Direction) {
	for i, m := range moves {
		if m != d {
			continue
		}
		copy(moves[1:i+1], moves[:i])
		moves[0] = d
		return
	}
}

// firstStepToFood runs a breadth-first path search from the head and
// returns the first move of the shortest path to any food. On a uniform
// grid this finds the same paths an A* would, without the bookkeeping.
func firstStepToFood(state *game.State, you *game.Snake) (game.Direction, bool) {
	w, h := state.Width, state.Height
	if len(state.Food) == 0 {
		return game.Up, false
	}

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

	type node struct {
		p     game.Point
		first game.Direction
	}

	visited := make([]bool, w*h)
	head := you.Head()
	visited[head.Y*w+head.X] = true

	queue := make([]node, 0, w*h)
	for _, d := range game.Directions {
		q := d.Apply(head)
		if !state.InBounds(q) {
			continue
		}
		qi := q.Y*w + q.X
		if blocked[qi] || visited[qi] {
			continue
		}
		if food[qi] {
			return d, true
		}
		visited[qi] = true
		queue = append(queue, node{p: q, first: d})
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, d := range game.Directions {
			q := d.Apply(n.p)
			if !state.InBounds(q) {
				continue
			}
			qi := q.Y*w + q.X
			if blocked[qi] || visited[qi] {
				continue
			}
			if food[qi] {
				return n.first, true
			}
			visited[qi] = true
			queue = append(queue, node{p: q, first: n.first})
		}
	}

	return game.Up, false
}

// saltIndex derives a stable pseudo-random index from the position, so the
// oversized-board fallback stays reproducible run to run.
func saltIndex(state *game.State, id string, n int) int {
	h := fnv.New64a()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(uint32(state.Width))|(uint64(uint32(state.Height))<<32))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(uint32(state.Turn)))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(id))
	if s := state.SnakeByID(id); s != nil && len(s.Body) > 0 {
		head := s.Head()
		binary.LittleEndian.PutUint64(buf[:], (uint64(uint32(head.X))<<32)|uint64(uint32(head.Y)))
		_, _ = h.Write(buf[:])
	}

	return int(h.Sum64() % uint64(n))
}
