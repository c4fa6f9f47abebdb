package ports

import (
	"context"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
)

// PickStore es la persistencia que usan los pipelines de scan y liquidación.
type PickStore interface {
	// FindPick busca por (eventID, selection). Devuelve domain.ErrNotFound si no existe.
	FindPick(ctx context.Context, eventID, selection string) (domain.Pick, error)

	// InsertPick inserta el pick si no existe ya uno para (EventID, Selection).
	// Si existe no modifica nada y devuelve inserted=false.
	InsertPick(ctx context.Context, p domain.Pick) (id int64, inserted bool, err error)

	// PendingPicks devuelve los picks upcoming de un evento.
	PendingPicks(ctx context.Context, eventID string) ([]domain.Pick, error)

	// UpdateStatus aplica la resolución solo si el pick sigue upcoming.
	// Devuelve false si no había fila upcoming que actualizar.
	UpdateStatus(ctx context.Context, eventID, selection string, res domain.Resolution) (bool, error)

	// QueryUpcomingDue devuelve pares distintos (liga, evento) con picks upcoming
	// cuyo inicio es <= cutoff.
	QueryUpcomingDue(ctx context.Context, cutoff time.Time, limit int) ([]domain.PendingEvent, error)
}

// PickReader expone las consultas de lectura para la API.
type PickReader interface {
	ListUpcoming(ctx context.Context, limit int) ([]domain.Pick, error)
	ListResolved(ctx context.Context, limit int) ([]domain.Pick, error)
	Stats(ctx context.Context) (domain.PickStats, error)
}

// RunStore guarda el resumen de cada ejecución.
type RunStore interface {
	SaveRun(ctx context.Context, run domain.Run) error
	RecentRuns(ctx context.Context, limit int) ([]domain.Run, error)
}

// Storage agrupa todo lo que implementa un motor de persistencia.
type Storage interface {
	PickStore
	PickReader
	RunStore

	// Ping comprueba que la base de datos responde.
	Ping(ctx context.Context) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
