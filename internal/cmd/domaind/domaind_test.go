package domaind

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/latticeworks/dislocnet/internal/storage"
	"github.com/latticeworks/dislocnet/internal/storage/sqlite"
)

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("DISLOCNET_DOMAINS", "8")
	t.Setenv("DISLOCNET_CYCLES", "50")

	fs := flag.NewFlagSet("domaind", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-cycles", "25", "-db-path", "state/run.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Domains != 8 {
		t.Fatalf("expected env domain count 8, got %d", cfg.Domains)
	}
	if cfg.Cycles != 25 {
		t.Fatalf("expected flag cycle count 25, got %d", cfg.Cycles)
	}
	if cfg.DBPath != "state/run.db" {
		t.Fatalf("expected flag db path, got %q", cfg.DBPath)
	}
	// Untouched fields keep their env defaults.
	if cfg.BoxSide != 1000 || cfg.OplogBlock != 1024 || !cfg.Periodic {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"no domains", Config{Domains: 0, Cycles: 1, BoxSide: 100}},
		{"negative cycles", Config{Domains: 1, Cycles: -1, BoxSide: 100}},
		{"degenerate box", Config{Domains: 1, Cycles: 1, BoxSide: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Run(context.Background(), tc.cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRunRejectsPartialCheckpointSet(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "partial.db")

	// Checkpoint only one of the two domains the run expects.
	store, err := sqlite.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.SaveCheckpoint(context.Background(), storage.Checkpoint{Domain: 0, Cycle: 1}); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	cfg := Config{
		Domains:         2,
		Cycles:          4,
		BoxSide:         1000,
		Periodic:        true,
		OplogBlock:      16,
		DBPath:          dbPath,
		CheckpointEvery: 2,
	}
	if err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected partial checkpoint set to be rejected")
	}
}

func TestRunCheckpointsAndResumes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	cfg := Config{
		Domains:         2,
		Cycles:          4,
		BoxSide:         1000,
		Periodic:        true,
		OplogBlock:      16,
		DBPath:          dbPath,
		CheckpointEvery: 2,
	}

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}

	store, err := sqlite.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	for rank := 0; rank < cfg.Domains; rank++ {
		latest, err := store.LatestCycle(context.Background(), rank)
		if err != nil {
			t.Fatalf("latest cycle for domain %d: %v", rank, err)
		}
		if latest != 3 {
			t.Fatalf("expected latest checkpoint at cycle 3 for domain %d, got %d", rank, latest)
		}
	}

	// A second run against the same database resumes past the recorded
	// cycles and finishes without rewinding.
	cfg.Cycles = 6
	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("resume run: %v", err)
	}
	latest, err := store.LatestCycle(context.Background(), 0)
	if err != nil {
		t.Fatalf("latest cycle after resume: %v", err)
	}
	if latest != 5 {
		t.Fatalf("expected latest checkpoint at cycle 5 after resume, got %d", latest)
	}
}
