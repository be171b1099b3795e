package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Record inserts a run with its log and manifest in one transaction. An
// empty ID or zero StartedAt is filled in from the store's generator and
// clock; the assigned values are written back to run.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.clock.Now()
	}
	if run.Status == "" {
		run.Status = StatusOK
	}

	files := run.Files
	if files == nil {
		files = []string{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("record run: marshal files: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, config_hash, files, status, error_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.ConfigHash,
		string(filesJSON),
		string(run.Status),
		run.ErrorCode,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}

	for i, msg := range run.Log {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_log (run_id, seq, message) VALUES (?, ?, ?)
		`, run.ID, i, msg); err != nil {
			return fmt.Errorf("record run %s: log entry %d: %w", run.ID, i, err)
		}
	}

	for _, svc := range run.Services {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_services (run_id, service_id, class, scope, public, alias_of)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, svc.ID, svc.Class, svc.Scope, svc.Public, svc.AliasOf); err != nil {
			return fmt.Errorf("record run %s: service %q: %w", run.ID, svc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run %s: commit: %w", run.ID, err)
	}
	return nil
}
