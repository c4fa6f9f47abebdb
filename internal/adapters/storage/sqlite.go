package storage

// sqlite.go: persistencia de picks y ejecuciones.
//
// Estrategia:
//   - `picks`: una fila por (event_id, selection). UNIQUE + INSERT ... ON CONFLICT DO NOTHING:
//     el primer scan que encuentra el pick gana y los siguientes no tocan la fila.
//   - La liquidación solo actualiza filas con status='upcoming', así un evento
//     procesado dos veces no recalifica nada.
//   - Fechas como TEXT RFC3339 UTC sin fracciones: se comparan como strings.
//   - `runs`: resumen de cada ejecución de scan/settle. Prune al arrancar (> 30d).

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS picks (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    sport_key         TEXT    NOT NULL,
    event_id          TEXT    NOT NULL,
    commence_time_utc TEXT    NOT NULL,
    home              TEXT    NOT NULL,
    away              TEXT    NOT NULL,
    selection         TEXT    NOT NULL,
    market            TEXT    NOT NULL DEFAULT 'h2h',
    fair_odds         REAL,
    soft_odds         REAL    NOT NULL,
    ev_pct            REAL    NOT NULL,
    best_book         TEXT    NOT NULL DEFAULT '',
    status            TEXT    NOT NULL DEFAULT 'upcoming',
    score_home        INTEGER,
    score_away        INTEGER,
    sharp_sources     TEXT    NOT NULL DEFAULT '',
    created_at        TEXT    NOT NULL,
    resolved_at       TEXT,
    UNIQUE (event_id, selection)
);

CREATE INDEX IF NOT EXISTS idx_picks_event    ON picks(event_id);
CREATE INDEX IF NOT EXISTS idx_picks_status   ON picks(status);
CREATE INDEX IF NOT EXISTS idx_picks_commence ON picks(commence_time_utc);

CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    kind        TEXT    NOT NULL,
    started_at  TEXT    NOT NULL,
    finished_at TEXT    NOT NULL,
    leagues     INTEGER NOT NULL DEFAULT 0,
    events      INTEGER NOT NULL DEFAULT 0,
    candidates  INTEGER NOT NULL DEFAULT 0,
    inserted    INTEGER NOT NULL DEFAULT 0,
    resolved    INTEGER NOT NULL DEFAULT 0,
    unresolved  INTEGER NOT NULL DEFAULT 0,
    failed      TEXT    NOT NULL DEFAULT '[]',
    error       TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`

const (
	timeLayout    = "2006-01-02T15:04:05Z"
	retentionRuns = 30 * 24 * time.Hour

	pickColumns = `id, sport_key, event_id, commence_time_utc, home, away, selection, market,
		fair_odds, soft_odds, ev_pct, best_book, status, score_home, score_away,
		sharp_sources, created_at, resolved_at`
)

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if path != ":memory:" {
		if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage.NewSQLiteStorage: pragmas: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneRuns(context.Background())
	return s, nil
}

// FindPick busca un pick por (eventID, selection).
func (s *SQLiteStorage) FindPick(ctx context.Context, eventID, selection string) (domain.Pick, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE event_id = ? AND selection = ?`,
		eventID, selection,
	)
	p, err := scanPick(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Pick{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Pick{}, fmt.Errorf("storage.FindPick: %w", err)
	}
	return p, nil
}

// InsertPick inserta el pick salvo que ya exista uno para (event_id, selection).
// En ese caso devuelve el id existente e inserted=false.
func (s *SQLiteStorage) InsertPick(ctx context.Context, p domain.Pick) (int64, bool, error) {
	if p.Market == "" {
		p.Market = domain.MarketH2H
	}
	if p.Status == "" {
		p.Status = domain.StatusUpcoming
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO picks
			(sport_key, event_id, commence_time_utc, home, away, selection, market,
			 fair_odds, soft_odds, ev_pct, best_book, status, sharp_sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id, selection) DO NOTHING`,
		p.SportKey, p.EventID, formatTime(p.CommenceTime), p.HomeTeam, p.AwayTeam,
		p.Selection, p.Market, p.FairOdds, p.SoftOdds, p.EVPct, p.BestBook,
		string(p.Status), p.SharpSources, formatTime(p.CreatedAt),
	)
	if err != nil {
		return 0, false, fmt.Errorf("storage.InsertPick: insert %s/%s: %w", p.EventID, p.Selection, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("storage.InsertPick: rows affected: %w", err)
	}
	if n == 0 {
		existing, err := s.FindPick(ctx, p.EventID, p.Selection)
		if err != nil {
			return 0, false, fmt.Errorf("storage.InsertPick: lookup existing: %w", err)
		}
		return existing.ID, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, true, fmt.Errorf("storage.InsertPick: last insert id: %w", err)
	}
	return id, true, nil
}

// PendingPicks devuelve los picks upcoming de un evento.
func (s *SQLiteStorage) PendingPicks(ctx context.Context, eventID string) ([]domain.Pick, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE event_id = ? AND status = 'upcoming' ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.PendingPicks: query: %w", err)
	}
	return collectPicks(rows, "storage.PendingPicks")
}

// UpdateStatus califica un pick si sigue upcoming.
func (s *SQLiteStorage) UpdateStatus(ctx context.Context, eventID, selection string, r domain.Resolution) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE picks
		SET status = ?, score_home = ?, score_away = ?, resolved_at = ?
		WHERE event_id = ? AND selection = ? AND status = 'upcoming'`,
		string(r.Status), r.ScoreHome, r.ScoreAway, formatTime(r.ResolvedAt),
		eventID, selection,
	)
	if err != nil {
		return false, fmt.Errorf("storage.UpdateStatus: %s/%s: %w", eventID, selection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage.UpdateStatus: rows affected: %w", err)
	}
	return n > 0, nil
}

// QueryUpcomingDue devuelve pares (liga, evento) con picks upcoming que empiezan antes de cutoff.
func (s *SQLiteStorage) QueryUpcomingDue(ctx context.Context, cutoff time.Time, limit int) ([]domain.PendingEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sport_key, event_id
		FROM picks
		WHERE status = 'upcoming' AND commence_time_utc <= ?
		GROUP BY sport_key, event_id
		ORDER BY MIN(commence_time_utc)
		LIMIT ?`,
		formatTime(cutoff), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.QueryUpcomingDue: query: %w", err)
	}
	defer rows.Close()

	var out []domain.PendingEvent
	for rows.Next() {
		var pe domain.PendingEvent
		if err := rows.Scan(&pe.SportKey, &pe.EventID); err != nil {
			return nil, fmt.Errorf("storage.QueryUpcomingDue: scan row: %w", err)
		}
		out = append(out, pe)
	}
	return out, rows.Err()
}

// ListUpcoming devuelve los picks pendientes, los más próximos primero.
func (s *SQLiteStorage) ListUpcoming(ctx context.Context, limit int) ([]domain.Pick, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE status = 'upcoming'
		 ORDER BY commence_time_utc ASC, id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.ListUpcoming: query: %w", err)
	}
	return collectPicks(rows, "storage.ListUpcoming")
}

// ListResolved devuelve los picks calificados, los más recientes primero.
func (s *SQLiteStorage) ListResolved(ctx context.Context, limit int) ([]domain.Pick, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE status != 'upcoming'
		 ORDER BY resolved_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.ListResolved: query: %w", err)
	}
	return collectPicks(rows, "storage.ListResolved")
}

// Stats agrega totales, aciertos y cuota media.
func (s *SQLiteStorage) Stats(ctx context.Context) (domain.PickStats, error) {
	var (
		total, played, won int
		avg                sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status IN ('won','lost','push') THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'won' THEN 1 ELSE 0 END), 0),
			AVG(soft_odds)
		FROM picks`,
	).Scan(&total, &played, &won, &avg)
	if err != nil {
		return domain.PickStats{}, fmt.Errorf("storage.Stats: %w", err)
	}

	var avgPtr *float64
	if avg.Valid {
		avgPtr = &avg.Float64
	}
	return domain.NewPickStats(total, played, won, avgPtr), nil
}

// Ping comprueba que la base de datos responde.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `SELECT 1`); err != nil {
		return fmt.Errorf("storage.Ping: %w", err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPick lee una fila con las columnas de pickColumns.
func scanPick(row rowScanner) (domain.Pick, error) {
	var (
		p                    domain.Pick
		commence, created    string
		status               string
		fair                 sql.NullFloat64
		scoreHome, scoreAway sql.NullInt64
		resolved             sql.NullString
	)
	if err := row.Scan(
		&p.ID, &p.SportKey, &p.EventID, &commence, &p.HomeTeam, &p.AwayTeam,
		&p.Selection, &p.Market, &fair, &p.SoftOdds, &p.EVPct, &p.BestBook,
		&status, &scoreHome, &scoreAway, &p.SharpSources, &created, &resolved,
	); err != nil {
		return domain.Pick{}, err
	}

	p.Status = domain.PickStatus(status)
	p.CommenceTime = parseTime(commence)
	p.CreatedAt = parseTime(created)
	if fair.Valid {
		p.FairOdds = &fair.Float64
	}
	if scoreHome.Valid {
		v := int(scoreHome.Int64)
		p.ScoreHome = &v
	}
	if scoreAway.Valid {
		v := int(scoreAway.Int64)
		p.ScoreAway = &v
	}
	if resolved.Valid && resolved.String != "" {
		t := parseTime(resolved.String)
		p.ResolvedAt = &t
	}
	return p, nil
}

func collectPicks(rows *sql.Rows, op string) ([]domain.Pick, error) {
	defer rows.Close()
	picks := []domain.Pick{}
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		picks = append(picks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return picks, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime acepta el formato propio y RFC3339 con fracciones (filas antiguas).
func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t.UTC()
}
