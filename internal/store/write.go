package store

import (
	"context"
	"fmt"
)

// SaveRun inserts a run with its stat lines and unresolved events in one
// transaction. Uses ON CONFLICT(id) DO NOTHING for idempotency - saving the
// same run twice is a silent no-op, and child rows are only written when
// the run row actually inserted.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, replay, fingerprint, duration, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Replay,
		run.Fingerprint,
		run.Duration,
		run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save run: rows affected: %w", err)
	}
	if affected == 0 {
		// Run already saved; the transaction has nothing further to do.
		return tx.Commit()
	}

	for _, line := range run.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lines (run_id, entity, name, hero, team, kills, deaths, assists)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			line.Entity,
			line.Name,
			line.Hero,
			line.Team,
			line.Kills,
			line.Deaths,
			line.Assists,
		)
		if err != nil {
			return fmt.Errorf("save run: line %d: %w", line.Entity, err)
		}
	}

	for _, u := range run.Unresolved {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO unresolved (run_id, kind, entity, off, reason)
			VALUES (?, ?, ?, ?, ?)
		`,
			run.ID,
			u.Kind,
			u.Entity,
			u.Offset,
			u.Reason,
		)
		if err != nil {
			return fmt.Errorf("save run: unresolved at %d: %w", u.Offset, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run: commit: %w", err)
	}

	return nil
}

// DeleteRun removes a run and, via cascade, its lines and unresolved rows.
// Deleting a run that does not exist is not an error.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}
