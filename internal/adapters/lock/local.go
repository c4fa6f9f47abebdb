// Package lock serializa ejecuciones de los pipelines: en proceso o con Redis.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
)

// Local es un Locker en memoria para una sola instancia del proceso.
// El ttl se ignora: el lock dura hasta que se llama a unlock.
type Local struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocal crea un Local vacío.
func NewLocal() *Local {
	return &Local{held: make(map[string]bool)}
}

// Acquire toma la key o devuelve domain.ErrLockHeld. unlock es idempotente.
func (l *Local) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, domain.ErrLockHeld
	}
	l.held[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
