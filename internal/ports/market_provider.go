package ports

import (
	"context"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
)

// MarketSnapshotProvider obtiene ligas y cuotas pre-partido del proveedor externo.
type MarketSnapshotProvider interface {
	// ListTrackedLeagues devuelve las keys de las ligas que se escanean.
	ListTrackedLeagues(ctx context.Context) ([]string, error)

	// FetchOdds devuelve los eventos de la liga que empiezan entre from y to,
	// con las cuotas de cada fuente para la región dada.
	FetchOdds(ctx context.Context, league, region string, from, to time.Time) ([]domain.MarketSnapshot, error)
}
