package store

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleRows() []GameRow {
	return []GameRow{
		{
			RunID: "r1", GameIdx: 0, Seed: 99, Width: 11, Height: 11,
			Agents: []string{"astar", "random"},
			Winner: 0, WinnerAgent: "astar", Turns: 143, DurationMs: 512,
		},
		{
			RunID: "r1", GameIdx: 1, Seed: 99 + 1000003, Width: 11, Height: 11,
			Agents: []string{"astar", "random"},
			Winner: -1, WinnerAgent: "", Turns: 500, DurationMs: 1733,
		},
	}
}

func TestWriteResults_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rows := sampleRows()

	path, err := WriteResults(dir, "r1", rows)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("batch landed in %s, want %s", filepath.Dir(path), dir)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "results_r1_") || !strings.HasSuffix(base, ".parquet") {
		t.Fatalf("unexpected batch name %q", base)
	}

	got, err := ReadResults(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Fatalf("rows changed through the file:\n got=%+v\nwant=%+v", got, rows)
	}

	// The tmp staging area must not accumulate leftovers.
	leftovers, err := os.ReadDir(filepath.Join(dir, "tmp"))
	if err != nil {
		t.Fatalf("tmp dir: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("%d files left in tmp", len(leftovers))
	}
}

func TestLedger_SaveAndQuery(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	run := Run{
		ID: "run-1", Width: 11, Height: 11, Games: 100, Workers: 8,
		Seed: 42, MoveBudget: 75 * time.Millisecond,
		Ruleset: `{"food_spawn_chance":15}`, Draws: 3,
	}
	standings := []Standing{
		{Seat: 0, Agent: "astar", Wins: 61},
		{Seat: 1, Agent: "random", Wins: 36},
	}
	if err := db.SaveRun(run, standings); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err := db.Runs(10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != "run-1" || got.Games != 100 || got.Draws != 3 {
		t.Fatalf("run=%+v", got)
	}
	if got.MoveBudget != 75*time.Millisecond {
		t.Fatalf("move budget=%s want=75ms", got.MoveBudget)
	}
	if got.StartedAt.IsZero() {
		t.Fatalf("started_at not recorded")
	}

	want := []Standing{
		{RunID: "run-1", Seat: 0, Agent: "astar", Wins: 61},
		{RunID: "run-1", Seat: 1, Agent: "random", Wins: 36},
	}
	gotStandings, err := db.RunStandings("run-1")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if !reflect.DeepEqual(gotStandings, want) {
		t.Fatalf("standings=%+v want=%+v", gotStandings, want)
	}
}

func TestLedger_DuplicateRunErrors(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	run := Run{ID: "run-1", Games: 1}
	if err := db.SaveRun(run, nil); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := db.SaveRun(run, nil); err == nil {
		t.Fatalf("second save of %s should fail", run.ID)
	}
}
