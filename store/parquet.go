// Package store persists simulation outcomes.
//
// Two sinks, both optional at the call sites: parquet batches hold one row
// per finished game for offline analysis, and a sqlite ledger keeps one row
// per run with its final standings. Neither stores per-turn history.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// GameRow is one finished game.
//
// Winner is the winning seat index, -1 for a draw. WinnerAgent is that
// seat's agent variant name, "" for a draw; it is denormalized so standings
// queries can group on a plain column.
type GameRow struct {
	RunID       string   `parquet:"run_id,dict"`
	GameIdx     int32    `parquet:"game_idx"`
	Seed        int64    `parquet:"seed"`
	Width       int32    `parquet:"width"`
	Height      int32    `parquet:"height"`
	Agents      []string `parquet:"agents,dict"`
	Winner      int32    `parquet:"winner"`
	WinnerAgent string   `parquet:"winner_agent,dict"`
	Turns       int32    `parquet:"turns"`
	DurationMs  int64    `parquet:"duration_ms"`
}

// WriteResults writes one batch of game rows into outDir and returns the
// final path. The file lands via a tmp directory and a rename, so readers
// polling outDir never observe a partially-written batch.
func WriteResults(outDir, runID string, rows []GameRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("results_%s_%d.parquet", runID, time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "game_result_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}

	return finalPath, nil
}

// ReadResults loads a batch written by WriteResults.
func ReadResults(path string) ([]GameRow, error) {
	rows, err := parquet.ReadFile[GameRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
