package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pickColumns = `id, sport_key, event_id, commence_time_utc, home, away, selection, market,
	fair_odds, soft_odds, ev_pct, best_book, status, score_home, score_away,
	sharp_sources, created_at, resolved_at`

// Store implementa ports.Storage sobre un pool de pgx.
type Store struct {
	pool *pgxpool.Pool
}

// New conecta, aplica las migraciones y devuelve el Store.
func New(ctx context.Context, cfg ClientConfig) (*Store, error) {
	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: %w", err)
	}
	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: migrations: %w", err)
	}
	return &Store{pool: pool}, nil
}

// FindPick busca un pick por (eventID, selection).
func (s *Store) FindPick(ctx context.Context, eventID, selection string) (domain.Pick, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE event_id = $1 AND selection = $2`,
		eventID, selection)
	p, err := scanPick(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Pick{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Pick{}, fmt.Errorf("postgres.FindPick: %w", err)
	}
	return p, nil
}

// InsertPick inserta salvo conflicto en (event_id, selection); RETURNING no
// devuelve fila si hubo conflicto.
func (s *Store) InsertPick(ctx context.Context, p domain.Pick) (int64, bool, error) {
	if p.Market == "" {
		p.Market = domain.MarketH2H
	}
	if p.Status == "" {
		p.Status = domain.StatusUpcoming
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO picks
			(sport_key, event_id, commence_time_utc, home, away, selection, market,
			 fair_odds, soft_odds, ev_pct, best_book, status, sharp_sources, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (event_id, selection) DO NOTHING
		RETURNING id`,
		p.SportKey, p.EventID, p.CommenceTime.UTC(), p.HomeTeam, p.AwayTeam, p.Selection,
		p.Market, p.FairOdds, p.SoftOdds, p.EVPct, p.BestBook, string(p.Status),
		p.SharpSources, p.CreatedAt.UTC(),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, ferr := s.FindPick(ctx, p.EventID, p.Selection)
		if ferr != nil {
			return 0, false, fmt.Errorf("postgres.InsertPick: lookup existing: %w", ferr)
		}
		return existing.ID, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("postgres.InsertPick: insert %s/%s: %w", p.EventID, p.Selection, err)
	}
	return id, true, nil
}

// PendingPicks devuelve los picks upcoming de un evento.
func (s *Store) PendingPicks(ctx context.Context, eventID string) ([]domain.Pick, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE event_id = $1 AND status = 'upcoming' ORDER BY id`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("postgres.PendingPicks: %w", err)
	}
	return collectPicks(rows, "postgres.PendingPicks")
}

// UpdateStatus califica un pick si sigue upcoming.
func (s *Store) UpdateStatus(ctx context.Context, eventID, selection string, r domain.Resolution) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE picks
		SET status = $1, score_home = $2, score_away = $3, resolved_at = $4
		WHERE event_id = $5 AND selection = $6 AND status = 'upcoming'`,
		string(r.Status), r.ScoreHome, r.ScoreAway, r.ResolvedAt.UTC(), eventID, selection)
	if err != nil {
		return false, fmt.Errorf("postgres.UpdateStatus: %s/%s: %w", eventID, selection, err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryUpcomingDue devuelve pares (liga, evento) con picks upcoming que empiezan antes de cutoff.
func (s *Store) QueryUpcomingDue(ctx context.Context, cutoff time.Time, limit int) ([]domain.PendingEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sport_key, event_id
		FROM picks
		WHERE status = 'upcoming' AND commence_time_utc <= $1
		GROUP BY sport_key, event_id
		ORDER BY MIN(commence_time_utc)
		LIMIT $2`, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres.QueryUpcomingDue: %w", err)
	}
	defer rows.Close()

	var out []domain.PendingEvent
	for rows.Next() {
		var pe domain.PendingEvent
		if err := rows.Scan(&pe.SportKey, &pe.EventID); err != nil {
			return nil, fmt.Errorf("postgres.QueryUpcomingDue: scan: %w", err)
		}
		out = append(out, pe)
	}
	return out, rows.Err()
}

// ListUpcoming devuelve los picks pendientes, los más próximos primero.
func (s *Store) ListUpcoming(ctx context.Context, limit int) ([]domain.Pick, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE status = 'upcoming'
		 ORDER BY commence_time_utc ASC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres.ListUpcoming: %w", err)
	}
	return collectPicks(rows, "postgres.ListUpcoming")
}

// ListResolved devuelve los picks calificados, los más recientes primero.
func (s *Store) ListResolved(ctx context.Context, limit int) ([]domain.Pick, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE status <> 'upcoming'
		 ORDER BY resolved_at DESC NULLS LAST, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres.ListResolved: %w", err)
	}
	return collectPicks(rows, "postgres.ListResolved")
}

// Stats agrega totales, aciertos y cuota media.
func (s *Store) Stats(ctx context.Context) (domain.PickStats, error) {
	var (
		total, played, won int64
		avg                *float64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('won','lost','push')),
			COUNT(*) FILTER (WHERE status = 'won'),
			AVG(soft_odds)
		FROM picks`).Scan(&total, &played, &won, &avg)
	if err != nil {
		return domain.PickStats{}, fmt.Errorf("postgres.Stats: %w", err)
	}
	return domain.NewPickStats(int(total), int(played), int(won), avg), nil
}

// SaveRun persiste el resumen de una ejecución.
func (s *Store) SaveRun(ctx context.Context, r domain.Run) error {
	failed := r.Failed
	if failed == nil {
		failed = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runs
			(id, kind, started_at, finished_at, leagues, events, candidates,
			 inserted, resolved, unresolved, failed, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, string(r.Kind), r.StartedAt.UTC(), r.FinishedAt.UTC(), r.Leagues, r.Events,
		r.Candidates, r.Inserted, r.Resolved, r.Unresolved, failed, r.Error)
	if err != nil {
		return fmt.Errorf("postgres.SaveRun: insert %s: %w", r.ID, err)
	}
	return nil
}

// RecentRuns devuelve las últimas ejecuciones, la más reciente primero.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, started_at, finished_at, leagues, events, candidates,
		       inserted, resolved, unresolved, failed, error
		FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres.RecentRuns: %w", err)
	}
	defer rows.Close()

	runs := []domain.Run{}
	for rows.Next() {
		var (
			r    domain.Run
			kind string
		)
		if err := rows.Scan(&r.ID, &kind, &r.StartedAt, &r.FinishedAt, &r.Leagues, &r.Events,
			&r.Candidates, &r.Inserted, &r.Resolved, &r.Unresolved, &r.Failed, &r.Error); err != nil {
			return nil, fmt.Errorf("postgres.RecentRuns: scan: %w", err)
		}
		r.Kind = domain.RunKind(kind)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Ping comprueba que la base de datos responde.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close cierra el pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanPick(row pgx.Row) (domain.Pick, error) {
	var (
		p      domain.Pick
		status string
	)
	err := row.Scan(
		&p.ID, &p.SportKey, &p.EventID, &p.CommenceTime, &p.HomeTeam, &p.AwayTeam,
		&p.Selection, &p.Market, &p.FairOdds, &p.SoftOdds, &p.EVPct, &p.BestBook,
		&status, &p.ScoreHome, &p.ScoreAway, &p.SharpSources, &p.CreatedAt, &p.ResolvedAt,
	)
	if err != nil {
		return domain.Pick{}, err
	}
	p.Status = domain.PickStatus(status)
	p.CommenceTime = p.CommenceTime.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	if p.ResolvedAt != nil {
		t := p.ResolvedAt.UTC()
		p.ResolvedAt = &t
	}
	return p, nil
}

func collectPicks(rows pgx.Rows, op string) ([]domain.Pick, error) {
	defer rows.Close()
	picks := []domain.Pick{}
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		picks = append(picks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return picks, nil
}
