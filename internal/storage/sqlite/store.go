// Package sqlite implements the checkpoint and telemetry stores on a
// local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/latticeworks/dislocnet/internal/network"
	"github.com/latticeworks/dislocnet/internal/platform/storage/sqlitemigrate"
	"github.com/latticeworks/dislocnet/internal/storage"
	"github.com/latticeworks/dislocnet/internal/storage/sqlite/migrations"
)

// Store is a SQLite-backed checkpoint and telemetry store.
type Store struct {
	db *sql.DB
}

var _ storage.CheckpointStore = (*Store)(nil)
var _ storage.TelemetryStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveCheckpoint writes the checkpoint in one transaction, replacing any
// prior snapshot for the same domain and cycle.
func (s *Store) SaveCheckpoint(ctx context.Context, cp storage.Checkpoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkpoint transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM checkpoints WHERE domain = ? AND cycle = ?",
		cp.Domain, cp.Cycle,
	); err != nil {
		return fmt.Errorf("clear prior checkpoint: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO checkpoints (domain, cycle, created_at) VALUES (?, ?, ?)",
		cp.Domain, cp.Cycle, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO checkpoint_nodes
    (domain, cycle, idx, pos_x, pos_y, pos_z, vel_x, vel_y, vel_z,
     force_x, force_y, force_z, flags, arms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare node insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, node := range cp.Nodes {
		arms, err := json.Marshal(node.Arms)
		if err != nil {
			return fmt.Errorf("encode arms for node %s: %w", node.Tag, err)
		}
		if _, err := stmt.ExecContext(ctx,
			cp.Domain, cp.Cycle, node.Tag.Index,
			node.Pos.X, node.Pos.Y, node.Pos.Z,
			node.Vel.X, node.Vel.Y, node.Vel.Z,
			node.Force.X, node.Force.Y, node.Force.Z,
			node.Flags, string(arms),
		); err != nil {
			return fmt.Errorf("insert node %s: %w", node.Tag, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads back the snapshot for a domain and cycle. Returns
// storage.ErrNotFound when no such checkpoint exists.
func (s *Store) LoadCheckpoint(ctx context.Context, domain, cycle int) (storage.Checkpoint, error) {
	cp := storage.Checkpoint{Domain: domain, Cycle: cycle}

	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT created_at FROM checkpoints WHERE domain = ? AND cycle = ?",
		domain, cycle,
	).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return storage.Checkpoint{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Checkpoint{}, fmt.Errorf("query checkpoint: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT idx, pos_x, pos_y, pos_z, vel_x, vel_y, vel_z,
       force_x, force_y, force_z, flags, arms
FROM checkpoint_nodes
WHERE domain = ? AND cycle = ?
ORDER BY idx`, domain, cycle)
	if err != nil {
		return storage.Checkpoint{}, fmt.Errorf("query checkpoint nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var node network.Node
		var idx int
		var arms string
		if err := rows.Scan(&idx,
			&node.Pos.X, &node.Pos.Y, &node.Pos.Z,
			&node.Vel.X, &node.Vel.Y, &node.Vel.Z,
			&node.Force.X, &node.Force.Y, &node.Force.Z,
			&node.Flags, &arms,
		); err != nil {
			return storage.Checkpoint{}, fmt.Errorf("scan checkpoint node: %w", err)
		}
		node.Tag = network.Tag{Domain: domain, Index: idx}
		if err := json.Unmarshal([]byte(arms), &node.Arms); err != nil {
			return storage.Checkpoint{}, fmt.Errorf("decode arms for node %s: %w", node.Tag, err)
		}
		cp.Nodes = append(cp.Nodes, node)
	}
	if err := rows.Err(); err != nil {
		return storage.Checkpoint{}, fmt.Errorf("iterate checkpoint nodes: %w", err)
	}
	return cp, nil
}

// LatestCycle reports the most recent checkpointed cycle for a domain.
func (s *Store) LatestCycle(ctx context.Context, domain int) (int, error) {
	var cycle sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(cycle) FROM checkpoints WHERE domain = ?", domain,
	).Scan(&cycle)
	if err != nil {
		return 0, fmt.Errorf("query latest cycle: %w", err)
	}
	if !cycle.Valid {
		return 0, storage.ErrNotFound
	}
	return int(cycle.Int64), nil
}

// AppendTelemetryEvent records one telemetry measurement.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO telemetry_events (ts, domain, cycle, name, value) VALUES (?, ?, ?, ?, ?)",
		ts.UTC().UnixMilli(), evt.Domain, evt.Cycle, evt.Name, evt.Value,
	); err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}
