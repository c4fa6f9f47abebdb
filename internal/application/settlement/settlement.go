// Package settlement liquida los picks upcoming cuyos eventos ya terminaron.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/capcea/bet-backend/internal/domain"
	"github.com/capcea/bet-backend/internal/ports"
)

// LockKey es la key con la que se serializan las liquidaciones.
const LockKey = "settle"

// Config contiene la configuración del settler.
type Config struct {
	Interval  time.Duration
	Lookahead time.Duration // se consultan eventos con commence <= ahora+Lookahead
	MaxEvents int
	BatchSize int // event ids por llamada de scores
	DaysFrom  int
	LockTTL   time.Duration
}

// DefaultConfig devuelve los valores por defecto: cada 5 minutos, 200 eventos, lotes de 25.
func DefaultConfig() Config {
	return Config{
		Interval:  5 * time.Minute,
		Lookahead: 6 * time.Hour,
		MaxEvents: 200,
		BatchSize: 25,
		DaysFrom:  3,
		LockTTL:   10 * time.Minute,
	}
}

// Result resume una liquidación.
type Result struct {
	RunID      string        `json:"run_id"`
	Events     int           `json:"events"`
	Completed  int           `json:"completed"`
	Resolved   int           `json:"resolved"`
	Unresolved int           `json:"unresolved"`
	Graded     []domain.Pick `json:"graded"`
	Failed     []string      `json:"failed"`
}

// Settler es el orquestador del pipeline de liquidación.
type Settler struct {
	cfg      Config
	results  ports.ResultProvider
	store    ports.PickStore
	runs     ports.RunStore
	notifier ports.Notifier
	archiver ports.Archiver
	locker   ports.Locker
	now      func() time.Time
}

// New crea un Settler. runs, notifier, archiver y locker pueden ser nil.
func New(
	cfg Config,
	results ports.ResultProvider,
	store ports.PickStore,
	runs ports.RunStore,
	notifier ports.Notifier,
	archiver ports.Archiver,
	locker ports.Locker,
) *Settler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 200
	}
	return &Settler{
		cfg:      cfg,
		results:  results,
		store:    store,
		runs:     runs,
		notifier: notifier,
		archiver: archiver,
		locker:   locker,
		now:      time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (s *Settler) SetClock(now func() time.Time) {
	s.now = now
}

// Run liquida al arrancar y luego una vez por intervalo hasta que el contexto se cancele.
func (s *Settler) Run(ctx context.Context) error {
	slog.Info("settle loop starting", "interval", s.cfg.Interval, "lookahead", s.cfg.Lookahead)

	s.runLogged(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("settle loop stopped")
			return nil
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Settler) runLogged(ctx context.Context) {
	_, err := s.RunOnce(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrLockHeld):
		slog.Info("settlement skipped, another run in progress")
	case ctx.Err() != nil:
	default:
		slog.Error("settlement run failed", "err", err)
	}
}

// RunOnce ejecuta una liquidación completa.
// Un lote de scores fallido se registra en Result.Failed y no corta el resto.
func (s *Settler) RunOnce(ctx context.Context) (Result, error) {
	if s.locker != nil {
		unlock, err := s.locker.Acquire(ctx, LockKey, s.cfg.LockTTL)
		if err != nil {
			return Result{}, fmt.Errorf("settlement.RunOnce: %w", err)
		}
		defer unlock()
	}

	start := s.now()
	run := domain.Run{ID: uuid.New().String(), Kind: domain.RunSettle, StartedAt: start}
	res, err := s.settle(ctx, start)
	res.RunID = run.ID

	run.Events, run.Resolved, run.Unresolved = res.Events, res.Resolved, res.Unresolved
	run.Failed = res.Failed
	run.FinishedAt = s.now()
	if err != nil {
		run.Error = err.Error()
	}
	s.saveRun(ctx, run)

	if err != nil {
		return res, err
	}

	if s.notifier != nil && len(res.Graded) > 0 {
		if nerr := s.notifier.NotifyResults(ctx, res.Graded); nerr != nil {
			slog.Warn("notifier error", "err", nerr)
		}
	}
	if s.archiver != nil && len(res.Graded) > 0 {
		if aerr := s.archiver.ArchiveResolved(ctx, run.ID, res.Graded); aerr != nil {
			slog.Warn("archive error", "err", aerr)
		}
	}

	slog.Info("settlement run complete",
		"run_id", run.ID,
		"events", res.Events,
		"completed", res.Completed,
		"resolved", res.Resolved,
		"unresolved", res.Unresolved,
		"failed", len(res.Failed),
		"duration", run.Duration().Round(time.Millisecond),
	)
	return res, nil
}

func (s *Settler) settle(ctx context.Context, now time.Time) (Result, error) {
	res := Result{Graded: []domain.Pick{}, Failed: []string{}}

	due, err := s.store.QueryUpcomingDue(ctx, now.Add(s.cfg.Lookahead), s.cfg.MaxEvents)
	if err != nil {
		return res, fmt.Errorf("settlement.settle: %w", err)
	}
	res.Events = len(due)
	if len(due) == 0 {
		return res, nil
	}

	batches := 0
	for _, g := range groupBySport(due) {
		for start := 0; start < len(g.eventIDs); start += s.cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("settlement.settle: %w", err)
			}
			end := min(start+s.cfg.BatchSize, len(g.eventIDs))
			batch := g.eventIDs[start:end]
			batches++

			results, err := s.results.FetchScores(ctx, g.sportKey, batch, s.cfg.DaysFrom)
			if err != nil {
				slog.Warn("scores fetch failed", "league", g.sportKey, "events", len(batch), "err", err)
				res.Failed = append(res.Failed, fmt.Sprintf("%s[%d:%d]", g.sportKey, start, end))
				continue
			}

			for _, r := range results {
				if err := s.settleEvent(ctx, r, now, &res); err != nil {
					return res, err
				}
			}
		}
	}

	if batches > 0 && len(res.Failed) == batches {
		return res, fmt.Errorf("settlement.settle: all %d score batches failed", batches)
	}
	return res, nil
}

// settleEvent liquida los picks upcoming de un evento terminado. Solo devuelve errores del store.
func (s *Settler) settleEvent(ctx context.Context, r domain.EventResult, now time.Time, res *Result) error {
	if !r.Completed {
		return nil
	}
	res.Completed++

	hs, as, err := r.FinalScore()
	if err != nil {
		slog.Warn("unresolved score", "event", r.EventID, "err", err)
		res.Unresolved++
		return nil
	}

	pending, err := s.store.PendingPicks(ctx, r.EventID)
	if err != nil {
		return fmt.Errorf("settlement.settleEvent: %w", err)
	}

	for _, p := range pending {
		status, ok := domain.Grade(p.Selection, r.HomeTeam, r.AwayTeam, hs, as)
		if !ok {
			slog.Warn("unresolved selection",
				"event", r.EventID,
				"selection", p.Selection,
				"home", r.HomeTeam,
				"away", r.AwayTeam,
			)
			res.Unresolved++
			continue
		}

		resolution := domain.Resolution{Status: status, ScoreHome: hs, ScoreAway: as, ResolvedAt: now}
		updated, err := s.store.UpdateStatus(ctx, p.EventID, p.Selection, resolution)
		if err != nil {
			return fmt.Errorf("settlement.settleEvent: %w", err)
		}
		if !updated {
			continue
		}
		res.Resolved++
		res.Graded = append(res.Graded, resolution.Apply(p))
	}
	return nil
}

type sportGroup struct {
	sportKey string
	eventIDs []string
}

// groupBySport agrupa los eventos por liga respetando el orden de llegada.
func groupBySport(events []domain.PendingEvent) []sportGroup {
	idx := make(map[string]int)
	var groups []sportGroup
	for _, e := range events {
		i, ok := idx[e.SportKey]
		if !ok {
			i = len(groups)
			idx[e.SportKey] = i
			groups = append(groups, sportGroup{sportKey: e.SportKey})
		}
		groups[i].eventIDs = append(groups[i].eventIDs, e.EventID)
	}
	return groups
}

func (s *Settler) saveRun(ctx context.Context, run domain.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		slog.Warn("run store error", "err", err)
	}
}
