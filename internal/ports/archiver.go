package ports

import (
	"context"

	"github.com/capcea/bet-backend/internal/domain"
)

// Archiver guarda fuera de la base de datos los picks liquidados en una ejecución.
type Archiver interface {
	ArchiveResolved(ctx context.Context, runID string, picks []domain.Pick) error
}
