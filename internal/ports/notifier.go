package ports

import (
	"context"

	"github.com/capcea/bet-backend/internal/domain"
)

// Notifier presenta al usuario los picks nuevos y los liquidados.
type Notifier interface {
	// NotifyPicks recibe los picks insertados en un scan.
	NotifyPicks(ctx context.Context, picks []domain.Pick) error

	// NotifyResults recibe los picks calificados en una liquidación.
	NotifyResults(ctx context.Context, graded []domain.Pick) error
}
