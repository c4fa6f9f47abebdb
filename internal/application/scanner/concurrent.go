package scanner

// concurrent.go: worker pool para evaluar los eventos de una liga en paralelo.
// Los resultados se guardan por índice: el insert posterior respeta el orden del proveedor.

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/capcea/bet-backend/internal/domain"
)

type evaluated struct {
	eval domain.Evaluation
	err  error
}

// evaluateConcurrent evalúa todos los snapshots con un pool de workers.
// Si workers <= 0 usa runtime.NumCPU().
func evaluateConcurrent(snaps []domain.MarketSnapshot, sharp domain.SharpList, evMin float64, workers int) []evaluated {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(snaps) {
		workers = len(snaps)
	}

	out := make([]evaluated, len(snaps))
	workCh := make(chan int, len(snaps))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				eval, err := domain.Evaluate(snaps[idx], sharp, evMin)
				out[idx] = evaluated{eval: eval, err: err}
			}
		}()
	}

	for i := range snaps {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	slog.Debug("concurrent evaluation complete", "events", len(snaps), "workers", workers)
	return out
}
