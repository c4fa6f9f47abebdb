package domain

// PickStats resume el histórico de picks.
type PickStats struct {
	TotalPicks  int      `json:"total_picks"`
	Played      int      `json:"played"`
	Won         int      `json:"won"`
	SuccessRate float64  `json:"success_rate"`
	AvgOdds     *float64 `json:"avg_odds"`
}

// NewPickStats calcula la tasa de acierto (%, 2 decimales) y redondea la cuota media a 3.
// played cuenta won + lost + push.
func NewPickStats(total, played, won int, avgOdds *float64) PickStats {
	st := PickStats{TotalPicks: total, Played: played, Won: won}
	if played > 0 {
		st.SuccessRate = Round(float64(won)/float64(played)*100, 2)
	}
	if avgOdds != nil && *avgOdds != 0 {
		v := Round(*avgOdds, 3)
		st.AvgOdds = &v
	}
	return st
}
