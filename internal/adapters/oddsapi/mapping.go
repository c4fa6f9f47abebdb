package oddsapi

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
)

// mapSnapshots convierte eventos a snapshots del mercado dado.
// Los eventos sin id, participantes o fecha válida se descartan.
func mapSnapshots(league, marketKey string, raw []oddsEvent) []domain.MarketSnapshot {
	out := make([]domain.MarketSnapshot, 0, len(raw))
	for _, ev := range raw {
		commence, err := time.Parse(time.RFC3339, ev.CommenceTime)
		if err != nil {
			continue
		}
		s := domain.MarketSnapshot{
			EventID:      ev.ID,
			SportKey:     ev.SportKey,
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
			CommenceTime: commence.UTC(),
		}
		if s.SportKey == "" {
			s.SportKey = league
		}
		if !s.Valid() {
			continue
		}
		for _, bk := range ev.Bookmakers {
			if q, ok := mapQuote(bk, marketKey); ok {
				s.Quotes = append(s.Quotes, q)
			}
		}
		out = append(out, s)
	}
	return out
}

// mapQuote extrae el mercado pedido de un bookmaker. ok=false si no lo cotiza.
func mapQuote(bk bookmaker, marketKey string) (domain.SourceQuote, bool) {
	for _, m := range bk.Markets {
		if m.Key != marketKey || len(m.Outcomes) == 0 {
			continue
		}
		q := domain.SourceQuote{Key: bk.Key, Title: bk.Title}
		for _, o := range m.Outcomes {
			q.Outcomes = append(q.Outcomes, domain.OutcomePrice{Name: o.Name, Price: parsePrice(o.Price)})
		}
		return q, true
	}
	return domain.SourceQuote{}, false
}

// parsePrice acepta número o string numérico; cualquier otra cosa es NaN.
func parsePrice(raw json.RawMessage) float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// mapResults convierte los eventos de scores a domain.EventResult.
func mapResults(raw []scoreEvent) []domain.EventResult {
	out := make([]domain.EventResult, 0, len(raw))
	for _, ev := range raw {
		r := domain.EventResult{
			EventID:   ev.ID,
			HomeTeam:  ev.HomeTeam,
			AwayTeam:  ev.AwayTeam,
			Completed: ev.Completed,
		}
		for _, s := range ev.Scores {
			r.Scores = append(r.Scores, domain.TeamScore{
				Name:  s.Name,
				Score: strings.Trim(strings.TrimSpace(string(s.Score)), `"`),
			})
		}
		out = append(out, r)
	}
	return out
}

// filterLeagues se queda con las keys que empiezan por algún prefijo, sin repetir.
func filterLeagues(sports []sport, prefixes []string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range sports {
		if s.Key == "" || seen[s.Key] || !hasAnyPrefix(s.Key, prefixes) {
			continue
		}
		seen[s.Key] = true
		keys = append(keys, s.Key)
	}
	return keys
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// isoNoMillis formatea en UTC sin fracciones de segundo, como exige la API.
func isoNoMillis(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}
