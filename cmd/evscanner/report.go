package main

import (
	"context"
	"fmt"

	"github.com/capcea/bet-backend/internal/adapters/notify"
	"github.com/capcea/bet-backend/internal/ports"
)

const reportRows = 50

// printReport imprime estadísticas, picks pendientes y los últimos liquidados.
func printReport(ctx context.Context, store ports.PickReader, console *notify.Console) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("report: stats: %w", err)
	}
	upcoming, err := store.ListUpcoming(ctx, reportRows)
	if err != nil {
		return fmt.Errorf("report: upcoming: %w", err)
	}
	resolved, err := store.ListResolved(ctx, reportRows)
	if err != nil {
		return fmt.Errorf("report: resolved: %w", err)
	}

	console.PrintStats(stats)
	console.Println(fmt.Sprintf("\nUpcoming picks (%d)", len(upcoming)))
	console.PrintPicks(upcoming)
	console.Println(fmt.Sprintf("\nLast graded picks (%d)", len(resolved)))
	console.PrintResults(resolved)
	return nil
}
