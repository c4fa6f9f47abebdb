package domain

import "time"

// PickStatus es el estado de un pick. Solo pasa una vez de upcoming a un estado terminal.
type PickStatus string

const (
	StatusUpcoming PickStatus = "upcoming"
	StatusWon      PickStatus = "won"
	StatusLost     PickStatus = "lost"
	StatusPush     PickStatus = "push"
)

// Terminal indica si el estado ya no admite transiciones.
func (s PickStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusPush
}

// Pick es una recomendación persistida. Único por (EventID, Selection).
// Tras crearse solo cambian Status, ScoreHome, ScoreAway y ResolvedAt.
type Pick struct {
	ID           int64      `json:"id"`
	SportKey     string     `json:"sport_key"`
	EventID      string     `json:"event_id"`
	CommenceTime time.Time  `json:"commence_time_utc"`
	HomeTeam     string     `json:"home"`
	AwayTeam     string     `json:"away"`
	Selection    string     `json:"selection"`
	Market       string     `json:"market"`
	FairOdds     *float64   `json:"fair_odds"`
	SoftOdds     float64    `json:"soft_odds"`
	EVPct        float64    `json:"ev_pct"`
	BestBook     string     `json:"best_book"`
	SharpSources string     `json:"sharp_sources"`
	Status       PickStatus `json:"status"`
	ScoreHome    *int       `json:"score_home"`
	ScoreAway    *int       `json:"score_away"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
}

// Picks convierte los candidatos de una evaluación en picks nuevos (upcoming).
// El orden es el del universo de resultados del evento.
func (e Evaluation) Picks(s MarketSnapshot, now time.Time) []Pick {
	picks := make([]Pick, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		picks = append(picks, Pick{
			SportKey:     s.SportKey,
			EventID:      s.EventID,
			CommenceTime: s.CommenceTime.UTC(),
			HomeTeam:     s.HomeTeam,
			AwayTeam:     s.AwayTeam,
			Selection:    c.Outcome,
			Market:       MarketH2H,
			FairOdds:     c.FairOdds(),
			SoftOdds:     c.SoftOdds(),
			EVPct:        c.EVPct(),
			BestBook:     c.Source,
			SharpSources: e.SharpSourcesLabel(),
			Status:       StatusUpcoming,
			CreatedAt:    now.UTC(),
		})
	}
	return picks
}
