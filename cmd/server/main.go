// Package main serves the Battlesnake HTTP API backed by one configured agent.
//
// The engine drives the game: it POSTs the full board to /move every turn and
// expects a direction back inside the declared timeout. The agent gets that
// timeout minus a latency reserve, so the response is on the wire before the
// engine gives up on us.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"hydrus/agent"
	"hydrus/api"
	"hydrus/game"
	"hydrus/logging"
	"hydrus/rules"
)

// Server holds the agent and move timing configuration.
type Server struct {
	agent       agent.Agent
	agentName   string
	moveTimeout time.Duration
	latency     time.Duration
}

func NewServer(a agent.Agent, name string, moveTimeout, latency time.Duration) *Server {
	return &Server{
		agent:       a,
		agentName:   name,
		moveTimeout: moveTimeout,
		latency:     latency,
	}
}

// handleIndex returns the snake's appearance and API version.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	response := api.InfoResponse{
		APIVersion: "1",
		Author:     "hydrus",
		Color:      "#2bb4c4",
		Head:       "default",
		Tail:       "default",
		Version:    "1.0.0",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleStart is called when a game starts.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req api.GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Info("game started",
		"game", req.Game.ID,
		"ruleset", req.Game.Ruleset.Name,
		"snakes", len(req.Board.Snakes),
		"you", req.You.Name)
	w.WriteHeader(http.StatusOK)
}

// handleMove answers one turn.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	req, err := api.ReadGameRequest(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := req.State()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The engine declares its timeout per game; fall back to ours. Whatever
	// the budget, keep a floor so the agent always gets to look at the board.
	timeout := s.moveTimeout
	if req.Game.Timeout > 0 {
		timeout = time.Duration(req.Game.Timeout) * time.Millisecond
	}
	computeTime := timeout - s.latency
	if computeTime < 50*time.Millisecond {
		computeTime = 50 * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(r.Context(), computeTime)
	defer cancel()

	move, err := s.agent.ChooseMove(ctx, state, req.You.ID)
	if err != nil {
		slog.Error("agent failed, using fallback move",
			"game", req.Game.ID, "turn", req.Turn, "err", err)
		move = fallbackMove(state, req.You.ID)
	}

	slog.Info("move",
		"game", req.Game.ID,
		"turn", req.Turn,
		"move", move.String(),
		"elapsed", time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.MoveResponse{Move: move.String()})
}

// handleEnd is called when a game ends.
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req api.GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The final board only lists survivors.
	youAlive := false
	for _, snake := range req.Board.Snakes {
		if snake.ID == req.You.ID {
			youAlive = true
			break
		}
	}

	result := "lost"
	if youAlive {
		result = "won"
	} else if len(req.Board.Snakes) == 0 {
		result = "draw"
	}

	slog.Info("game ended", "game", req.Game.ID, "turn", req.Turn, "result", result)
	w.WriteHeader(http.StatusOK)
}

// fallbackMove returns any legal move when the agent errors out.
func fallbackMove(state *game.State, id string) game.Direction {
	legal := rules.LegalMoves(state, id)
	if len(legal) == 0 {
		return game.Up // boxed in, the direction no longer matters
	}
	return legal[0]
}

// loadAgentConfig parses the -agent flag: inline JSON, or @path to a file
// holding the JSON.
func loadAgentConfig(spec string) (agent.Config, error) {
	data := []byte(spec)
	if strings.HasPrefix(spec, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(spec, "@"))
		if err != nil {
			return agent.Config{}, fmt.Errorf("reading agent config: %w", err)
		}
		data = b
	}
	return agent.ParseConfig(data)
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	listen := fs.String("listen", ":8080", "HTTP listen address")
	agentSpec := fs.String("agent", `{"astar":{}}`, "Agent config JSON, or @path to a file holding it")
	moveTimeout := fs.Duration("move-timeout", 500*time.Millisecond, "Move timeout when the request does not declare one")
	latency := fs.Duration("latency", 120*time.Millisecond, "Reserve for network and encoding, subtracted from each move budget")
	logLevel := fs.String("log-level", "info", "Minimum log level (debug, info, warn, error)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := loadAgentConfig(*agentSpec)
	if err != nil {
		slog.Error("bad -agent flag", "err", err)
		os.Exit(1)
	}
	a, err := cfg.New()
	if err != nil {
		slog.Error("building agent", "err", err)
		os.Exit(1)
	}

	server := NewServer(a, cfg.Name(), *moveTimeout, *latency)

	mux := http.NewServeMux()
	mux.HandleFunc("/", server.handleIndex)
	mux.HandleFunc("/start", server.handleStart)
	mux.HandleFunc("/move", server.handleMove)
	mux.HandleFunc("/end", server.handleEnd)

	srv := &http.Server{
		Addr:              *listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("listening", "addr", *listen, "agent", cfg.Name(), "latency_reserve", *latency)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
