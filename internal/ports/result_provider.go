package ports

import (
	"context"

	"github.com/capcea/bet-backend/internal/domain"
)

// ResultProvider obtiene marcadores de eventos recientes.
type ResultProvider interface {
	FetchScores(ctx context.Context, league string, eventIDs []string, daysFrom int) ([]domain.EventResult, error)
}
