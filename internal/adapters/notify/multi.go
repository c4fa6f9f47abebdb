package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/capcea/bet-backend/internal/domain"
	"github.com/capcea/bet-backend/internal/ports"
)

// Multi reparte cada notificación a todos sus notificadores.
// Un fallo no impide que los demás reciban el mensaje.
type Multi struct {
	notifiers []ports.Notifier
}

// NewMulti ignora los notificadores nil.
func NewMulti(notifiers ...ports.Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// NotifyPicks llama a NotifyPicks de cada notificador.
func (m *Multi) NotifyPicks(ctx context.Context, picks []domain.Pick) error {
	return m.each(func(n ports.Notifier) error { return n.NotifyPicks(ctx, picks) })
}

// NotifyResults llama a NotifyResults de cada notificador.
func (m *Multi) NotifyResults(ctx context.Context, graded []domain.Pick) error {
	return m.each(func(n ports.Notifier) error { return n.NotifyResults(ctx, graded) })
}

func (m *Multi) each(fn func(ports.Notifier) error) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := fn(n); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d notifier(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}
