// Package main reports standings from simulation results.
//
// It points DuckDB at the parquet batches a simulation run wrote and prints
// win rates per run. With -ledger it also lists the runs recorded in the
// sqlite ledger.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"hydrus/logging"
	"hydrus/store"
)

type runSummary struct {
	RunID     string
	Games     int64
	Draws     int64
	MeanTurns float64
	Width     int
	Height    int
}

type agentWins struct {
	Agent string
	Wins  int64
}

func main() {
	dataDir := flag.String("data", "data/results", "Directory holding parquet result batches")
	runFilter := flag.String("run", "", "Limit the report to one run id")
	ledgerPath := flag.String("ledger", "", "Also list runs from this sqlite ledger")
	limit := flag.Int("limit", 20, "Ledger runs to list")
	logLevel := flag.String("log-level", "warn", "Minimum log level (debug, info, warn, error)")
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(*dataDir, *runFilter, *ledgerPath, *limit); err != nil {
		slog.Error("report failed", "err", err)
		os.Exit(1)
	}
}

func run(dataDir, runFilter, ledgerPath string, limit int) error {
	ctx := context.Background()

	db, err := openResults(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	summaries, err := queryRuns(ctx, db, runFilter)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Printf("no results under %s\n", dataDir)
	}

	wins, err := queryWins(ctx, db, runFilter)
	if err != nil {
		return err
	}

	for _, s := range summaries {
		drawPct := 0.0
		if s.Games > 0 {
			drawPct = 100 * float64(s.Draws) / float64(s.Games)
		}
		fmt.Printf("%s  %dx%d  %d games  draws %d (%.1f%%)  mean turns %.1f\n",
			s.RunID, s.Width, s.Height, s.Games, s.Draws, drawPct, s.MeanTurns)
		for _, w := range wins[s.RunID] {
			fmt.Printf("    %-8s %6d wins  %5.1f%%\n",
				w.Agent, w.Wins, 100*float64(w.Wins)/float64(s.Games))
		}
	}

	if ledgerPath != "" {
		if len(summaries) > 0 {
			fmt.Println()
		}
		if err := printLedger(ledgerPath, limit); err != nil {
			return err
		}
	}
	return nil
}

// openResults points an in-memory DuckDB at every parquet batch under root.
func openResults(root string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}

	glob := filepath.Join(root, "**", "*.parquet")
	sqlText := `CREATE OR REPLACE VIEW games AS
		SELECT * FROM read_parquet(['` + escapeSQLString(glob) + `'], union_by_name=true)`
	if _, err := db.Exec(sqlText); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("reading parquet under %s: %w", root, err)
	}
	return db, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func queryRuns(ctx context.Context, db *sql.DB, runFilter string) ([]runSummary, error) {
	query := `SELECT run_id,
		count(*)::BIGINT AS games,
		sum(CASE WHEN winner < 0 THEN 1 ELSE 0 END)::BIGINT AS draws,
		avg(turns) AS mean_turns,
		min(width)::INTEGER AS width,
		min(height)::INTEGER AS height
	FROM games`
	args := []any{}
	if runFilter != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runFilter)
	}
	query += ` GROUP BY run_id ORDER BY run_id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]runSummary, 0, 16)
	for rows.Next() {
		var s runSummary
		if err := rows.Scan(&s.RunID, &s.Games, &s.Draws, &s.MeanTurns, &s.Width, &s.Height); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func queryWins(ctx context.Context, db *sql.DB, runFilter string) (map[string][]agentWins, error) {
	query := `SELECT run_id, winner_agent, count(*)::BIGINT AS wins
	FROM games
	WHERE winner >= 0`
	args := []any{}
	if runFilter != "" {
		query += ` AND run_id = ?`
		args = append(args, runFilter)
	}
	query += ` GROUP BY run_id, winner_agent ORDER BY run_id, wins DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]agentWins)
	for rows.Next() {
		var runID string
		var w agentWins
		if err := rows.Scan(&runID, &w.Agent, &w.Wins); err != nil {
			return nil, err
		}
		out[runID] = append(out[runID], w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// printLedger lists the most recent runs the sqlite ledger holds.
func printLedger(path string, limit int) error {
	db, err := store.OpenDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Runs(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("ledger is empty")
		return nil
	}

	fmt.Println("ledger runs (newest first):")
	for _, run := range runs {
		standings, err := db.RunStandings(run.ID)
		if err != nil {
			return err
		}
		parts := make([]string, 0, len(standings))
		for _, s := range standings {
			parts = append(parts, fmt.Sprintf("%s=%d", s.Agent, s.Wins))
		}
		fmt.Printf("  %s  started %s  %dx%d  games %d  draws %d  budget %s  [%s]\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04"), run.Width, run.Height,
			run.Games, run.Draws, run.MoveBudget, strings.Join(parts, " "))
	}
	return nil
}
