package scanner

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

// LockKey es la key con la que se serializan los scans.
const LockKey = "scan"

// Params son los parámetros de una ejecución concreta.
type Params struct {
	Window time.Duration // eventos que empiezan entre ahora y ahora+Window
	EVMin  float64       // EV mínimo (fracción, 0.03 = 3%)
}

// Config contiene la configuración del scanner.
type Config struct {
	Interval time.Duration
	Defaults Params
	Region   string
	Sharp    domain.SharpList
	LockTTL  time.Duration
	Workers  int // evaluación en paralelo por liga; 0 = NumCPU
}

// DefaultConfig devuelve los valores por defecto: cada 10 minutos, ventana de 4h, EV >= 3%.
func DefaultConfig() Config {
	return Config{
		Interval: 10 * time.Minute,
		Defaults: Params{Window: 4 * time.Hour, EVMin: domain.DefaultEVMin},
		Region:   "eu",
		Sharp:    domain.NewSharpList(nil),
		LockTTL:  10 * time.Minute,
	}
}

// Result resume un scan.
type Result struct {
	RunID      string        `json:"run_id"`
	Leagues    int           `json:"leagues"`
	Events     int           `json:"events"`
	Candidates int           `json:"candidates"`
	Inserted   int           `json:"inserted"`
	Picks      []domain.Pick `json:"picks"`
	Failed     []string      `json:"failed"`
}

// Scanner es el orquestador del pipeline de scan.
type Scanner struct {
	cfg      Config
	markets  ports.MarketSnapshotProvider
	store    ports.PickStore
	runs     ports.RunStore
	notifier ports.Notifier
	locker   ports.Locker
	now      func() time.Time
}

// New crea un Scanner con todas las dependencias inyectadas.
// runs, notifier y locker pueden ser nil.
func New(
	cfg Config,
	markets ports.MarketSnapshotProvider,
	store ports.PickStore,
	runs ports.RunStore,
	notifier ports.Notifier,
	locker ports.Locker,
) *Scanner {
	if len(cfg.Sharp) == 0 {
		cfg.Sharp = domain.NewSharpList(nil)
	}
	return &Scanner{
		cfg:      cfg,
		markets:  markets,
		store:    store,
		runs:     runs,
		notifier: notifier,
		locker:   locker,
		now:      time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (s *Scanner) SetClock(now func() time.Time) {
	s.now = now
}

// Defaults devuelve los parámetros por defecto de una ejecución.
func (s *Scanner) Defaults() Params {
	return s.cfg.Defaults
}

// Run ejecuta un scan al arrancar y luego uno por intervalo hasta que el contexto se cancele.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scan loop starting", "interval", s.cfg.Interval, "window", s.cfg.Defaults.Window, "ev_min", s.cfg.Defaults.EVMin)

	s.runLogged(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scan loop stopped")
			return nil
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Scanner) runLogged(ctx context.Context) {
	_, err := s.RunOnce(ctx, s.cfg.Defaults)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrLockHeld):
		slog.Info("scan skipped, another run in progress")
	case ctx.Err() != nil:
	default:
		slog.Error("scan run failed", "err", err)
	}
}

// RunOnce ejecuta un scan completo: ligas → cuotas → evaluación → insert de picks.
// Los fallos de una liga se registran en Result.Failed y no cortan el resto;
// solo devuelve error si falla el listado de ligas, si fallan todas o si falla el store.
func (s *Scanner) RunOnce(ctx context.Context, p Params) (Result, error) {
	if p.Window <= 0 {
		p.Window = s.cfg.Defaults.Window
	}

	if s.locker != nil {
		unlock, err := s.locker.Acquire(ctx, LockKey, s.cfg.LockTTL)
		if err != nil {
			return Result{}, fmt.Errorf("scanner.RunOnce: %w", err)
		}
		defer unlock()
	}

	start := s.now()
	run := domain.Run{ID: uuid.New().String(), Kind: domain.RunScan, StartedAt: start}
	res, err := s.scan(ctx, p, start)

	run.Leagues, run.Events, run.Candidates, run.Inserted = res.Leagues, res.Events, res.Candidates, res.Inserted
	run.Failed = res.Failed
	run.FinishedAt = s.now()
	if err != nil {
		run.Error = err.Error()
	}
	res.RunID = run.ID
	s.saveRun(ctx, run)

	if err != nil {
		return res, err
	}

	if s.notifier != nil {
		if nerr := s.notifier.NotifyPicks(ctx, res.Picks); nerr != nil {
			slog.Warn("notifier error", "err", nerr)
		}
	}

	slog.Info("scan run complete",
		"run_id", run.ID,
		"leagues", res.Leagues,
		"events", res.Events,
		"candidates", res.Candidates,
		"inserted", res.Inserted,
		"failed", len(res.Failed),
		"duration", run.Duration().Round(time.Millisecond),
	)
	return res, nil
}

// scan recorre liga por liga y evento por evento, persistiendo cada pick al momento.
func (s *Scanner) scan(ctx context.Context, p Params, now time.Time) (Result, error) {
	res := Result{Picks: []domain.Pick{}, Failed: []string{}}

	leagues, err := s.markets.ListTrackedLeagues(ctx)
	if err != nil {
		return res, fmt.Errorf("scanner.scan: list leagues: %w", err)
	}
	res.Leagues = len(leagues)

	from, to := now, now.Add(p.Window)
	for _, league := range leagues {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("scanner.scan: %w", err)
		}

		snaps, err := s.markets.FetchOdds(ctx, league, s.cfg.Region, from, to)
		if err != nil {
			slog.Warn("league fetch failed", "league", league, "err", err)
			res.Failed = append(res.Failed, league)
			continue
		}
		res.Events += len(snaps)

		evals := evaluateConcurrent(snaps, s.cfg.Sharp, p.EVMin, s.cfg.Workers)
		for i, snap := range snaps {
			if err := s.processEvent(ctx, snap, evals[i], now, &res); err != nil {
				return res, err
			}
		}
	}

	if len(leagues) > 0 && len(res.Failed) == len(leagues) {
		return res, fmt.Errorf("scanner.scan: all %d leagues failed", len(leagues))
	}
	return res, nil
}

// processEvent evalúa un evento e inserta sus picks. Solo devuelve errores del store.
func (s *Scanner) processEvent(ctx context.Context, snap domain.MarketSnapshot, ev evaluated, now time.Time, res *Result) error {
	eval := ev.eval
	for _, d := range eval.Dropped {
		slog.Debug("sharp quote dropped", "event", snap.EventID, "source", d.Source, "reason", d.Err)
	}
	if ev.err != nil {
		slog.Debug("event skipped", "event", snap.EventID, "league", snap.SportKey, "reason", ev.err)
		return nil
	}

	res.Candidates += len(eval.Candidates)
	for _, pick := range eval.Picks(snap, now) {
		id, inserted, err := s.store.InsertPick(ctx, pick)
		if err != nil {
			return fmt.Errorf("scanner.processEvent: %w", err)
		}
		if !inserted {
			continue
		}
		pick.ID = id
		res.Inserted++
		res.Picks = append(res.Picks, pick)
		slog.Debug("pick inserted",
			"event", pick.EventID,
			"selection", pick.Selection,
			"odds", pick.SoftOdds,
			"ev_pct", pick.EVPct,
			"book", pick.BestBook,
		)
	}
	return nil
}

func (s *Scanner) saveRun(ctx context.Context, run domain.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		slog.Warn("run store error", "err", err)
	}
}
