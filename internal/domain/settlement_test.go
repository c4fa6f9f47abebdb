package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrade(t *testing.T) {
	tests := []struct {
		name      string
		selection string
		home      int
		away      int
		want      PickStatus
		ok        bool
	}{
		{"draw won", "Draw", 1, 1, StatusWon, true},
		{"draw lost", "Draw", 2, 1, StatusLost, true},
		{"home won", "Arsenal", 2, 1, StatusWon, true},
		{"home lost", "Arsenal", 1, 2, StatusLost, true},
		{"home on draw", "Arsenal", 0, 0, StatusLost, true},
		{"away won", "Chelsea", 0, 3, StatusWon, true},
		{"away on draw", "Chelsea", 2, 2, StatusLost, true},
		{"unknown selection", "Tottenham", 2, 1, StatusUpcoming, false},
		{"case sensitive", "arsenal", 2, 1, StatusUpcoming, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Grade(tt.selection, "Arsenal", "Chelsea", tt.home, tt.away)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventResult_FinalScore(t *testing.T) {
	r := EventResult{
		EventID:   "evt-1",
		HomeTeam:  "Arsenal",
		AwayTeam:  "Chelsea",
		Completed: true,
		Scores:    []TeamScore{{Name: "Chelsea", Score: "3"}, {Name: "Arsenal", Score: " 1 "}},
	}

	home, away, err := r.FinalScore()
	require.NoError(t, err)
	assert.Equal(t, 1, home)
	assert.Equal(t, 3, away)
}

func TestEventResult_FinalScore_Unresolved(t *testing.T) {
	missing := EventResult{HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		Scores: []TeamScore{{Name: "Arsenal FC", Score: "1"}, {Name: "Chelsea", Score: "0"}}}
	_, _, err := missing.FinalScore()
	assert.ErrorIs(t, err, ErrUnresolvedScore)

	nonNumeric := EventResult{HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		Scores: []TeamScore{{Name: "Arsenal", Score: "1"}, {Name: "Chelsea", Score: "ret."}}}
	_, _, err = nonNumeric.FinalScore()
	assert.ErrorIs(t, err, ErrUnresolvedScore)

	_, _, err = EventResult{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}.FinalScore()
	assert.ErrorIs(t, err, ErrUnresolvedScore)
}

func TestResolution_Apply(t *testing.T) {
	at := time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)
	res := Resolution{Status: StatusWon, ScoreHome: 2, ScoreAway: 1, ResolvedAt: at}

	p := res.Apply(Pick{Selection: "Arsenal", Status: StatusUpcoming})
	assert.Equal(t, StatusWon, p.Status)
	require.NotNil(t, p.ScoreHome)
	assert.Equal(t, 2, *p.ScoreHome)
	assert.Equal(t, 1, *p.ScoreAway)
	assert.Equal(t, at, *p.ResolvedAt)

	// un pick terminal no se vuelve a calificar
	again := Resolution{Status: StatusLost, ScoreHome: 0, ScoreAway: 4, ResolvedAt: at.Add(time.Hour)}.Apply(p)
	assert.Equal(t, p, again)
}

func TestPickStatus_Terminal(t *testing.T) {
	assert.False(t, StatusUpcoming.Terminal())
	assert.True(t, StatusWon.Terminal())
	assert.True(t, StatusLost.Terminal())
	assert.True(t, StatusPush.Terminal())
}

func TestNewPickStats(t *testing.T) {
	avg := 2.12345
	st := NewPickStats(10, 6, 4, &avg)
	assert.Equal(t, 10, st.TotalPicks)
	assert.Equal(t, 66.67, st.SuccessRate)
	require.NotNil(t, st.AvgOdds)
	assert.Equal(t, 2.123, *st.AvgOdds)

	empty := NewPickStats(0, 0, 0, nil)
	assert.Equal(t, 0.0, empty.SuccessRate)
	assert.Nil(t, empty.AvgOdds)
}
