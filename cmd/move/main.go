// Package main answers one /move request from the command line.
//
// Feed it a request body captured from the engine (or written by hand) and it
// draws the board, runs the agent once, and prints the chosen direction.
// Handy for replaying a turn that went wrong in a live game.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"hydrus/agent"
	"hydrus/api"
	"hydrus/logging"
	"hydrus/render"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	requestPath := fs.String("request", "-", "Path to a /move request body, - for stdin")
	agentSpec := fs.String("agent", `{"astar":{}}`, "Agent config JSON, or @path to a file holding it")
	budget := fs.Duration("budget", 500*time.Millisecond, "Time the agent gets to decide")
	logLevel := fs.String("log-level", "warn", "Minimum log level (debug, info, warn, error)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(*requestPath, *agentSpec, *budget); err != nil {
		slog.Error("move failed", "err", err)
		os.Exit(1)
	}
}

func run(requestPath, agentSpec string, budget time.Duration) error {
	var in io.Reader = os.Stdin
	if requestPath != "-" {
		f, err := os.Open(requestPath)
		if err != nil {
			return fmt.Errorf("opening request: %w", err)
		}
		defer f.Close()
		in = f
	}

	req, err := api.ReadGameRequest(in)
	if err != nil {
		return err
	}
	state, err := req.State()
	if err != nil {
		return err
	}

	cfg, err := loadAgentConfig(agentSpec)
	if err != nil {
		return err
	}
	a, err := cfg.New()
	if err != nil {
		return err
	}

	fmt.Printf("game %s, turn %d, you are %s\n\n", req.Game.ID, state.Turn, req.You.ID)
	fmt.Print(render.Board(state))
	fmt.Println()
	fmt.Print(render.Legend(state))

	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	start := time.Now()
	move, err := a.ChooseMove(ctx, state, req.You.ID)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s says: %s (took %v)\n", cfg.Name(), move, time.Since(start).Round(time.Millisecond))
	return nil
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
