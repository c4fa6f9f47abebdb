package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
)

// SaveRun persiste el resumen de una ejecución.
func (s *SQLiteStorage) SaveRun(ctx context.Context, r domain.Run) error {
	failed, err := json.Marshal(nonNil(r.Failed))
	if err != nil {
		return fmt.Errorf("storage.SaveRun: marshal failed: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
			(id, kind, started_at, finished_at, leagues, events, candidates,
			 inserted, resolved, unresolved, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Kind), formatTime(r.StartedAt), formatTime(r.FinishedAt),
		r.Leagues, r.Events, r.Candidates, r.Inserted, r.Resolved, r.Unresolved,
		string(failed), r.Error,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert %s: %w", r.ID, err)
	}
	return nil
}

// RecentRuns devuelve las últimas ejecuciones, la más reciente primero.
func (s *SQLiteStorage) RecentRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, started_at, finished_at, leagues, events, candidates,
		       inserted, resolved, unresolved, failed, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentRuns: query: %w", err)
	}
	defer rows.Close()

	runs := []domain.Run{}
	for rows.Next() {
		var (
			r                 domain.Run
			kind, failed      string
			started, finished string
		)
		if err := rows.Scan(&r.ID, &kind, &started, &finished, &r.Leagues, &r.Events,
			&r.Candidates, &r.Inserted, &r.Resolved, &r.Unresolved, &failed, &r.Error); err != nil {
			return nil, fmt.Errorf("storage.RecentRuns: scan row: %w", err)
		}
		r.Kind = domain.RunKind(kind)
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		_ = json.Unmarshal([]byte(failed), &r.Failed)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// pruneRuns elimina ejecuciones antiguas. Los picks nunca se borran.
func (s *SQLiteStorage) pruneRuns(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, formatTime(cutoff))
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
