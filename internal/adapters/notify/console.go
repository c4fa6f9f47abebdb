package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo tablas en texto.
type Console struct {
	out io.Writer
	now func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout, now: time.Now}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, now: time.Now}
}

// NotifyPicks imprime los picks nuevos del scan.
func (c *Console) NotifyPicks(_ context.Context, picks []domain.Pick) error {
	stamp := c.now().Format("15:04:05")
	if len(picks) == 0 {
		fmt.Fprintf(c.out, "[%s] no new picks\n", stamp)
		return nil
	}
	fmt.Fprintf(c.out, "\n[%s] %d new picks\n", stamp, len(picks))
	c.PrintPicks(picks)
	return nil
}

// NotifyResults imprime los picks liquidados.
func (c *Console) NotifyResults(_ context.Context, graded []domain.Pick) error {
	if len(graded) == 0 {
		return nil
	}
	fmt.Fprintf(c.out, "\n[%s] %d picks settled\n", c.now().Format("15:04:05"), len(graded))
	c.PrintResults(graded)
	return nil
}

// Println escribe una línea suelta (títulos del report).
func (c *Console) Println(s string) {
	fmt.Fprintln(c.out, s)
}

// PrintResults imprime una tabla de picks liquidados.
func (c *Console) PrintResults(graded []domain.Pick) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Event", "Pick", "Odds", "Score", "Result")
	for _, p := range graded {
		table.Append(
			eventLabel(p),
			p.Selection,
			fmt.Sprintf("%.3f", p.SoftOdds),
			scoreLabel(p),
			string(p.Status),
		)
	}
	table.Render()
}

// PrintPicks imprime una tabla de picks (también usada por -report).
func (c *Console) PrintPicks(picks []domain.Pick) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "League", "Event", "Kickoff (UTC)", "Pick", "Odds", "Fair", "EV%", "Book", "Sharps")
	for i, p := range picks {
		table.Append(
			fmt.Sprintf("%d", i+1),
			p.SportKey,
			eventLabel(p),
			p.CommenceTime.UTC().Format("01-02 15:04"),
			p.Selection,
			fmt.Sprintf("%.3f", p.SoftOdds),
			fairLabel(p.FairOdds),
			fmt.Sprintf("%+.2f", p.EVPct),
			p.BestBook,
			p.SharpSources,
		)
	}
	table.Render()
}

// PrintStats imprime el resumen del histórico.
func (c *Console) PrintStats(st domain.PickStats) {
	avg := "-"
	if st.AvgOdds != nil {
		avg = fmt.Sprintf("%.3f", *st.AvgOdds)
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Total", "Played", "Won", "Success %", "Avg odds")
	table.Append(
		fmt.Sprintf("%d", st.TotalPicks),
		fmt.Sprintf("%d", st.Played),
		fmt.Sprintf("%d", st.Won),
		fmt.Sprintf("%.2f", st.SuccessRate),
		avg,
	)
	table.Render()
}

func eventLabel(p domain.Pick) string {
	return p.HomeTeam + " vs " + p.AwayTeam
}

func fairLabel(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}

func scoreLabel(p domain.Pick) string {
	if p.ScoreHome == nil || p.ScoreAway == nil {
		return "-"
	}
	return fmt.Sprintf("%d-%d", *p.ScoreHome, *p.ScoreAway)
}
