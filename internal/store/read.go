package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const runColumns = `id, started_at, config_hash, files, status, error_code, error`

// ReadRun returns one run with its log and manifest, or ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	if run.Log, err = s.readLog(ctx, id); err != nil {
		return Run{}, err
	}
	if run.Services, err = s.readServices(ctx, id); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first, without log or manifest.
// A limit of zero or less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryRuns(ctx, `
		SELECT `+runColumns+` FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
}

// RunsByConfigHash returns every run of one configuration, oldest first.
func (s *Store) RunsByConfigHash(ctx context.Context, hash string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE config_hash = ?
		ORDER BY seq ASC
	`, hash)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		startedAt string
		files     string
		status    string
	)
	if err := row.Scan(&run.ID, &startedAt, &run.ConfigHash, &files, &status, &run.ErrorCode, &run.Error); err != nil {
		return Run{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("scan run %s: started_at: %w", run.ID, err)
	}
	run.StartedAt = t
	if err := json.Unmarshal([]byte(files), &run.Files); err != nil {
		return Run{}, fmt.Errorf("scan run %s: files: %w", run.ID, err)
	}
	run.Status = Status(status)
	return run, nil
}

func (s *Store) readLog(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message FROM run_log WHERE run_id = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run log: %w", err)
	}
	defer rows.Close()

	log := []string{}
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("scan run log: %w", err)
		}
		log = append(log, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run log: %w", err)
	}
	return log, nil
}

func (s *Store) readServices(ctx context.Context, id string) ([]Service, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT service_id, class, scope, public, alias_of
		FROM run_services
		WHERE run_id = ?
		ORDER BY service_id COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run services: %w", err)
	}
	defer rows.Close()

	services := []Service{}
	for rows.Next() {
		var svc Service
		if err := rows.Scan(&svc.ID, &svc.Class, &svc.Scope, &svc.Public, &svc.AliasOf); err != nil {
			return nil, fmt.Errorf("scan run service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run services: %w", err)
	}
	return services, nil
}
