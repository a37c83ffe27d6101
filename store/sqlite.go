package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the run ledger.
type DB struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Run is one simulation batch as recorded in the ledger.
type Run struct {
	ID         string
	StartedAt  time.Time
	Width      int
	Height     int
	Games      int
	Workers    int
	Seed       int64
	MoveBudget time.Duration
	Ruleset    string // ruleset knobs as a JSON document
	Draws      int
}

// Standing is one seat's final tally within a run.
type Standing struct {
	RunID string
	Seat  int
	Agent string
	Wins  int
}

// OpenDB opens or creates the ledger at path.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// SQLite supports a single writer.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		width INTEGER,
		height INTEGER,
		games INTEGER,
		workers INTEGER,
		seed INTEGER,
		move_budget_ms INTEGER,
		ruleset TEXT,
		draws INTEGER
	);

	CREATE TABLE IF NOT EXISTS standings (
		run_id TEXT,
		seat INTEGER,
		agent TEXT,
		wins INTEGER,
		PRIMARY KEY (run_id, seat),
		FOREIGN KEY(run_id) REFERENCES runs(id)
	);
	`

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

// SaveRun records a finished run and its standings in one transaction.
// Recording the same run id twice is an error.
func (db *DB) SaveRun(run Run, standings []Standing) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, width, height, games, workers, seed, move_budget_ms, ruleset, draws)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Width, run.Height, run.Games, run.Workers,
		run.Seed, run.MoveBudget.Milliseconds(), run.Ruleset, run.Draws,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Prepare("INSERT INTO standings (run_id, seat, agent, wins) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare standings: %w", err)
	}
	defer stmt.Close()

	for _, s := range standings {
		if _, err := stmt.Exec(run.ID, s.Seat, s.Agent, s.Wins); err != nil {
			return fmt.Errorf("insert standing seat %d: %w", s.Seat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

// Runs lists the most recent runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(
		`SELECT id, started_at, width, height, games, workers, seed, move_budget_ms, ruleset, draws
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var budgetMs int64
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Width, &r.Height, &r.Games,
			&r.Workers, &r.Seed, &budgetMs, &r.Ruleset, &r.Draws); err != nil {
			return nil, err
		}
		r.MoveBudget = time.Duration(budgetMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunStandings returns the standings for one run in seat order.
func (db *DB) RunStandings(runID string) ([]Standing, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(
		"SELECT run_id, seat, agent, wins FROM standings WHERE run_id = ? ORDER BY seat", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standings []Standing
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.RunID, &s.Seat, &s.Agent, &s.Wins); err != nil {
			return nil, err
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

// Close closes the ledger.
func (db *DB) Close() error {
	return db.conn.Close()
}
