// Package main runs head-to-head batches between configured agents.
//
// Games run in parallel on a worker pool. A progress TUI (or -plain log
// lines) tracks the batch; per-game results can land in parquet for offline
// analysis, and the final standings in a sqlite ledger. A fixed -seed replays
// the identical batch.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"hydrus/agent"
	"hydrus/game"
	"hydrus/logging"
	"hydrus/sim"
	"hydrus/store"
)

var totalGames atomic.Int64
var totalDraws atomic.Int64
var seatWins []atomic.Int64

type gameUpdate struct {
	res sim.GameResult
}

type simDoneMsg struct {
	res sim.Result
	err error
}

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

type model struct {
	total       int
	agents      []string
	bar         progress.Model
	startTime   time.Time
	games       int64
	draws       int64
	wins        []int64
	recentGames []string
	updates     chan gameUpdate
}

func initialModel(updates chan gameUpdate, agents []string, total int) model {
	return model{
		total:     total,
		agents:    agents,
		bar:       progress.New(progress.WithDefaultGradient()),
		startTime: time.Now(),
		wins:      make([]int64, len(agents)),
		updates:   updates,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func waitForUpdate(updates chan gameUpdate) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.games = totalGames.Load()
		m.draws = totalDraws.Load()
		for i := range m.wins {
			m.wins[i] = seatWins[i].Load()
		}
		return m, tickCmd()
	case gameUpdate:
		r := msg.res
		line := fmt.Sprintf("Game %d: draw after %d turns", r.Index, r.Turns)
		if r.Winner >= 0 {
			line = fmt.Sprintf("Game %d: %s won in %d turns", r.Index, r.WinnerID, r.Turns)
		}
		m.recentGames = append([]string{line}, m.recentGames...)
		if len(m.recentGames) > 10 {
			m.recentGames = m.recentGames[:10]
		}
		return m, waitForUpdate(m.updates)
	case simDoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	gamesPerSec := float64(m.games) / duration.Seconds()
	if duration.Seconds() < 1 {
		gamesPerSec = 0
	}
	frac := 0.0
	if m.total > 0 {
		frac = float64(m.games) / float64(m.total)
	}

	s := fmt.Sprintf("Simulating %d games: %s\n\n", m.total, strings.Join(m.agents, " vs "))
	s += m.bar.ViewAs(frac) + "\n\n"
	s += fmt.Sprintf("Games:     %d / %d\n", m.games, m.total)
	for i, name := range m.agents {
		s += fmt.Sprintf("Seat %d:    %s, %d wins\n", i, name, m.wins[i])
	}
	s += fmt.Sprintf("Draws:     %d\n", m.draws)
	s += fmt.Sprintf("Duration:  %s\n", duration.Round(time.Second))
	s += fmt.Sprintf("Games/Sec: %.2f\n\n", gamesPerSec)

	s += "Recent Games:\n"
	for _, g := range m.recentGames {
		s += g + "\n"
	}

	s += "\nPress q to stop early.\n"
	return s
}

func main() {
	agentsSpec := flag.String("agents", `[{"astar":{}},{"random":{}}]`, "JSON array of agent configs in seat order, or @path to a file holding it")
	games := flag.Int("games", 100, "Number of games to play")
	workers := flag.Int("workers", 0, "Concurrent games (0 = one per CPU)")
	width := flag.Int("width", 11, "Board width")
	height := flag.Int("height", 11, "Board height")
	seed := flag.Int64("seed", 0, "Batch seed (0 = derive one from the clock)")
	moveBudget := flag.Duration("move-budget", 75*time.Millisecond, "Time each agent gets per move (0 = unbounded)")
	foodSpawn := flag.Int("food-spawn", 15, "Percent chance of an extra food spawn per turn")
	minFood := flag.Int("min-food", 1, "Food kept on the board")
	hazardDamage := flag.Int("hazard-damage", 14, "Extra health lost per turn in hazard")
	turnLimit := flag.Int("turn-limit", 500, "Turn at which a game is called a draw (0 = no limit)")
	shrinkEvery := flag.Int("shrink-every", 0, "Shrink the board every N turns (0 = never)")
	shrinkElim := flag.Bool("shrink-elim", false, "Defer due shrinks until an elimination turn")
	outDir := flag.String("out-dir", getEnvOrDefault("OUT_DIR", ""), "If set, write one parquet row per game under this directory")
	gamesPerFlush := flag.Int("games-per-flush", 200, "Games to buffer per parquet flush")
	dbPath := flag.String("db", getEnvOrDefault("LEDGER_DB", ""), "If set, record the run and standings in this sqlite ledger")
	plain := flag.Bool("plain", false, "Plain log lines instead of the TUI")
	logLevel := flag.String("log-level", "info", "Minimum log level (debug, info, warn, error)")
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfgs, err := parseAgents(*agentsSpec)
	if err != nil {
		slog.Error("bad -agents flag", "err", err)
		os.Exit(1)
	}
	names := make([]string, len(cfgs))
	for i, c := range cfgs {
		names[i] = c.Name()
	}
	seatWins = make([]atomic.Int64, len(cfgs))

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	runID := fmt.Sprintf("run_%s", time.Now().UTC().Format("20060102T150405Z"))

	rs := game.DefaultRuleset()
	rs.FoodSpawnChance = *foodSpawn
	rs.MinimumFood = *minFood
	rs.HazardDamage = *hazardDamage
	rs.TurnLimit = *turnLimit
	rs.ShrinkEveryNTurns = *shrinkEvery
	rs.ShrinkOnEliminationOnly = *shrinkElim

	cfg := sim.Config{
		Agents:     cfgs,
		Ruleset:    rs,
		Width:      *width,
		Height:     *height,
		Games:      *games,
		Workers:    *workers,
		Seed:       *seed,
		MoveBudget: *moveBudget,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	slog.Info("starting batch",
		"run", runID,
		"games", *games,
		"seed", *seed,
		"agents", strings.Join(names, " vs "),
		"board", fmt.Sprintf("%dx%d", *width, *height))

	persist := *outDir != ""
	writeReqs := make(chan store.GameRow, 256)
	writerDone := make(chan struct{})
	if persist {
		go func() {
			parquetWriterLoop(*outDir, *gamesPerFlush, writeReqs)
			close(writerDone)
		}()
	} else {
		close(writerDone)
	}

	updates := make(chan gameUpdate, 64)
	onGame := func(r sim.GameResult) {
		totalGames.Add(1)
		if r.Winner >= 0 {
			seatWins[r.Winner].Add(1)
		} else {
			totalDraws.Add(1)
		}
		if persist {
			writeReqs <- store.GameRow{
				RunID:       runID,
				GameIdx:     int32(r.Index),
				Seed:        r.Seed,
				Width:       int32(*width),
				Height:      int32(*height),
				Agents:      names,
				Winner:      int32(r.Winner),
				WinnerAgent: winnerAgent(names, r.Winner),
				Turns:       int32(r.Turns),
				DurationMs:  r.Elapsed.Milliseconds(),
			}
		}
		// Drop the update rather than block when the UI stops consuming.
		select {
		case updates <- gameUpdate{res: r}:
		default:
		}
	}

	simDone := make(chan simDoneMsg, 1)
	go func() {
		res, err := sim.Run(ctx, cfg, onGame)
		simDone <- simDoneMsg{res: res, err: err}
	}()

	var final simDoneMsg
	if *plain {
		final = plainLoop(updates, simDone, *games)
	} else {
		p := tea.NewProgram(initialModel(updates, names, *games))
		done := make(chan simDoneMsg, 1)
		go func() {
			msg := <-simDone
			done <- msg
			p.Send(msg)
		}()
		if _, err := p.Run(); err != nil {
			slog.Error("tui failed", "err", err)
		}
		cancel() // quitting the TUI early stops the batch
		final = <-done
	}

	if persist {
		close(writeReqs)
		<-writerDone
	}

	printSummary(runID, names, final.res)

	if *dbPath != "" {
		if err := saveLedger(*dbPath, runID, cfg, string(mustJSON(rs)), names, final.res); err != nil {
			slog.Error("ledger write failed", "err", err)
			os.Exit(1)
		}
		slog.Info("run recorded", "db", *dbPath, "run", runID)
	}

	if final.err != nil {
		if errors.Is(final.err, context.Canceled) {
			slog.Warn("batch stopped early", "finished", final.res.Games, "of", *games)
			return
		}
		slog.Error("batch failed", "err", final.err)
		os.Exit(1)
	}
}

// plainLoop reports progress as log lines until the batch finishes.
func plainLoop(updates <-chan gameUpdate, simDone <-chan simDoneMsg, total int) simDoneMsg {
	startTime := time.Now()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-simDone:
			return msg
		case u := <-updates:
			r := u.res
			winner := "draw"
			if r.Winner >= 0 {
				winner = r.WinnerID
			}
			slog.Debug("game finished",
				"game", r.Index, "winner", winner, "turns", r.Turns, "elapsed", r.Elapsed)
		case <-ticker.C:
			done := totalGames.Load()
			gamesPerSec := float64(done) / time.Since(startTime).Seconds()
			slog.Info("progress",
				"games", done,
				"total", total,
				"draws", totalDraws.Load(),
				"games_per_sec", fmt.Sprintf("%.2f", gamesPerSec))
		}
	}
}

// parquetWriterLoop buffers finished games and flushes them in batches. The
// final partial batch flushes when the channel closes.
func parquetWriterLoop(outDir string, gamesPerFlush int, in <-chan store.GameRow) {
	if gamesPerFlush <= 0 {
		gamesPerFlush = 200
	}

	pending := make([]store.GameRow, 0, gamesPerFlush)
	flush := func(reason string) {
		if len(pending) == 0 {
			return
		}
		outPath, err := store.WriteResults(outDir, pending[0].RunID, pending)
		if err != nil {
			slog.Error("parquet flush failed", "reason", reason, "rows", len(pending), "err", err)
		} else {
			slog.Info("parquet flush", "reason", reason, "rows", len(pending), "path", outPath)
		}
		pending = pending[:0]
	}

	for row := range in {
		pending = append(pending, row)
		if len(pending) >= gamesPerFlush {
			flush("count")
		}
	}
	flush("final")
}

func printSummary(runID string, names []string, res sim.Result) {
	fmt.Printf("\n%s: %d games finished\n", runID, res.Games)
	if res.Games == 0 {
		return
	}
	for seat, name := range names {
		wins := res.Wins[seat]
		fmt.Printf("  seat %d %-8s %5d wins (%.1f%%)\n",
			seat, name, wins, 100*float64(wins)/float64(res.Games))
	}
	fmt.Printf("  draws          %5d      (%.1f%%)\n",
		res.Draws, 100*float64(res.Draws)/float64(res.Games))
}

func saveLedger(path, runID string, cfg sim.Config, rulesetJSON string, names []string, res sim.Result) error {
	db, err := store.OpenDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	run := store.Run{
		ID:         runID,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Games:      res.Games,
		Workers:    cfg.Workers,
		Seed:       cfg.Seed,
		MoveBudget: cfg.MoveBudget,
		Ruleset:    rulesetJSON,
		Draws:      res.Draws,
	}
	standings := make([]store.Standing, len(names))
	for seat, name := range names {
		standings[seat] = store.Standing{RunID: runID, Seat: seat, Agent: name, Wins: res.Wins[seat]}
	}
	return db.SaveRun(run, standings)
}

// parseAgents parses the -agents flag: a JSON array of agent configs, or
// @path to a file holding it.
func parseAgents(spec string) ([]agent.Config, error) {
	data := []byte(spec)
	if strings.HasPrefix(spec, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(spec, "@"))
		if err != nil {
			return nil, fmt.Errorf("reading agents config: %w", err)
		}
		data = b
	}
	var cfgs []agent.Config
	if err := json.Unmarshal(data, &cfgs); err != nil {
		return nil, fmt.Errorf("parsing agents config: %w", err)
	}
	for i, c := range cfgs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
	}
	return cfgs, nil
}

func winnerAgent(names []string, seat int) string {
	if seat < 0 {
		return ""
	}
	return names[seat]
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
