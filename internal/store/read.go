package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when the requested run does not exist.
var ErrNotFound = errors.New("store: run not found")

// GetRun returns a run with its lines and unresolved events. Lines come
// back ordered by entity id and unresolved events by stream offset, so
// reads are deterministic.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	run, err := s.getRunRow(ctx, id)
	if err != nil {
		return nil, err
	}

	if run.Lines, err = s.readLines(ctx, id); err != nil {
		return nil, err
	}
	if run.Unresolved, err = s.readUnresolved(ctx, id); err != nil {
		return nil, err
	}

	return run, nil
}

// ListRuns returns all runs for a replay name, newest first. The returned
// runs carry no lines or unresolved rows; use GetRun for the full record.
//
// Returns an empty slice (not nil) if no runs exist for the replay.
func (s *Store) ListRuns(ctx context.Context, replay string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, replay, fingerprint, duration, created_at
		FROM runs
		WHERE replay = ?
		ORDER BY created_at DESC, id COLLATE BINARY ASC
	`, replay)
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
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

func (s *Store) getRunRow(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, replay, fingerprint, duration, created_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run     Run
		created int64
	)
	if err := sc.Scan(&run.ID, &run.Replay, &run.Fingerprint, &run.Duration, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.CreatedAt = time.Unix(created, 0).UTC()
	return &run, nil
}

func (s *Store) readLines(ctx context.Context, runID string) ([]PlayerLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity, name, hero, team, kills, deaths, assists
		FROM lines
		WHERE run_id = ?
		ORDER BY entity ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer rows.Close()

	lines := []PlayerLine{}
	for rows.Next() {
		var l PlayerLine
		if err := rows.Scan(&l.Entity, &l.Name, &l.Hero, &l.Team, &l.Kills, &l.Deaths, &l.Assists); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines: %w", err)
	}

	return lines, nil
}

func (s *Store) readUnresolved(ctx context.Context, runID string) ([]UnresolvedRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, entity, off, reason
		FROM unresolved
		WHERE run_id = ?
		ORDER BY off ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query unresolved: %w", err)
	}
	defer rows.Close()

	var unresolved []UnresolvedRow
	for rows.Next() {
		var u UnresolvedRow
		if err := rows.Scan(&u.Kind, &u.Entity, &u.Offset, &u.Reason); err != nil {
			return nil, fmt.Errorf("scan unresolved: %w", err)
		}
		unresolved = append(unresolved, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unresolved: %w", err)
	}

	return unresolved, nil
}

// FindByFingerprint returns runs whose stream fingerprint matches, newest
// first. Used to detect that a replay has already been analyzed regardless
// of what it was named.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, replay, fingerprint, duration, created_at
		FROM runs
		WHERE fingerprint = ?
		ORDER BY created_at DESC, id COLLATE BINARY ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query runs by fingerprint: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}
