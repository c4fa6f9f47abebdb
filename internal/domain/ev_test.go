package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSnapshot(quotes ...SourceQuote) MarketSnapshot {
	return MarketSnapshot{
		EventID:      "evt-1",
		SportKey:     "soccer_epl",
		HomeTeam:     "Team A",
		AwayTeam:     "Team B",
		CommenceTime: time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC),
		Quotes:       quotes,
	}
}

func quote(key, title string, outcomes ...OutcomePrice) SourceQuote {
	return SourceQuote{Key: key, Title: title, Outcomes: outcomes}
}

func TestCandidate_DerivedFields(t *testing.T) {
	c := Candidate{Outcome: "A", FairProb: 0.55, Price: 2.00, EV: ExpectedValue(2.00, 0.55)}

	assert.InDelta(t, 0.10, c.EV, 1e-12)
	require.NotNil(t, c.FairOdds())
	assert.Equal(t, 1.818, *c.FairOdds())
	assert.Equal(t, 2.0, c.SoftOdds())
	assert.Equal(t, 10.0, c.EVPct())

	assert.Nil(t, Candidate{FairProb: 0}.FairOdds())
}

func TestEvaluate_EndToEnd(t *testing.T) {
	snap := makeSnapshot(
		quote("pinnacle", "Pinnacle", OutcomePrice{"Team A", 1.80}, OutcomePrice{"Team B", 2.10}),
		quote("unibet_eu", "Unibet", OutcomePrice{"Team A", 2.05}, OutcomePrice{"Team B", 2.00}),
	)

	eval, err := Evaluate(snap, NewSharpList(nil), 0.03)
	require.NoError(t, err)

	assert.InDelta(t, 0.5385, eval.Consensus.Prob("Team A"), 1e-4)
	assert.InDelta(t, 0.4615, eval.Consensus.Prob("Team B"), 1e-4)

	require.Len(t, eval.Candidates, 1)
	c := eval.Candidates[0]
	assert.Equal(t, "Team A", c.Outcome)
	assert.Equal(t, "Unibet", c.Source)
	assert.InDelta(t, 0.104, c.EV, 1e-3)

	picks := eval.Picks(snap, time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC))
	require.Len(t, picks, 1)
	p := picks[0]
	assert.Equal(t, "Team A", p.Selection)
	assert.Equal(t, MarketH2H, p.Market)
	assert.Equal(t, StatusUpcoming, p.Status)
	assert.Equal(t, 2.05, p.SoftOdds)
	require.NotNil(t, p.FairOdds)
	assert.Equal(t, 1.857, *p.FairOdds)
	assert.Equal(t, 10.38, p.EVPct)
	assert.Equal(t, "Unibet", p.BestBook)
	assert.Equal(t, "Pinnacle", p.SharpSources)
	assert.Equal(t, snap.CommenceTime, p.CommenceTime)
}

func TestEvaluate_TwoSharpConsensus(t *testing.T) {
	snap := makeSnapshot(
		quote("pinnacle", "Pinnacle", OutcomePrice{"Team A", 1 / 0.6}, OutcomePrice{"Team B", 2.5}),
		quote("matchbook", "Matchbook", OutcomePrice{"Team A", 1.5}, OutcomePrice{"Team B", 3.0}),
		quote("betfair_ex_eu", "Betfair", OutcomePrice{"Team A", 2.0}, OutcomePrice{"Team B", 2.0}),
		quote("bwin", "Bwin", OutcomePrice{"Team A", 2.0}, OutcomePrice{"Team B", 1.7}),
	)

	eval, err := Evaluate(snap, NewSharpList(nil), 0.03)
	require.NoError(t, err)

	assert.Equal(t, []string{"Betfair", "Matchbook", "Pinnacle"}, eval.SharpSources)
	assert.Equal(t, "Betfair, Matchbook, Pinnacle", eval.SharpSourcesLabel())
	// (0.6 + 0.6667 + 0.5) / 3
	assert.InDelta(t, (0.6+2.0/3.0+0.5)/3, eval.Consensus.Prob("Team A"), 1e-9)
}

func TestEvaluate_NoSharpSources(t *testing.T) {
	snap := makeSnapshot(
		quote("unibet_eu", "Unibet", OutcomePrice{"Team A", 2.05}, OutcomePrice{"Team B", 2.00}),
	)

	eval, err := Evaluate(snap, NewSharpList(nil), 0.03)
	assert.ErrorIs(t, err, ErrNoSharpSources)
	assert.Empty(t, eval.Candidates)
}

func TestEvaluate_SkipsMalformedAndDegenerateSharps(t *testing.T) {
	snap := makeSnapshot(
		quote("pinnacle", "Pinnacle", OutcomePrice{"Team A", math.NaN()}, OutcomePrice{"Team B", 2.10}),
		quote("matchbook", "Matchbook", OutcomePrice{"Team A", 1.0}, OutcomePrice{"Team B", 0.9}),
		quote("betfair_ex_eu", "Betfair", OutcomePrice{"Team A", 1.80}, OutcomePrice{"Team B", 2.10}),
		quote("unibet_eu", "Unibet", OutcomePrice{"Team A", 2.05}, OutcomePrice{"Team B", 2.00}),
	)

	eval, err := Evaluate(snap, NewSharpList(nil), 0.03)
	require.NoError(t, err)

	require.Len(t, eval.Dropped, 2)
	assert.ErrorIs(t, eval.Dropped[0].Err, ErrMalformedQuote)
	assert.Equal(t, "Pinnacle", eval.Dropped[0].Source)
	assert.ErrorIs(t, eval.Dropped[1].Err, ErrDegenerateProbabilities)
	assert.Equal(t, []string{"Betfair"}, eval.SharpSources)

	require.Len(t, eval.Candidates, 1)
	assert.Equal(t, "Team A", eval.Candidates[0].Outcome)
}

func TestEvaluate_NoPriceNeverPicks(t *testing.T) {
	// El sharp cotiza "Draw" con precio inválido: prob 0 para Draw tras normalizar
	// y ninguna fuente tiene precio > 0 para él.
	snap := makeSnapshot(
		quote("pinnacle", "Pinnacle", OutcomePrice{"Team A", 1.80}, OutcomePrice{"Team B", 2.10}, OutcomePrice{"Draw", 0}),
	)

	eval, err := Evaluate(snap, NewSharpList(nil), -1)
	require.NoError(t, err)

	for _, c := range eval.Candidates {
		assert.NotEqual(t, "Draw", c.Outcome)
	}
	assert.Equal(t, 0.0, eval.Best["Draw"].Price)
}

func TestEvaluate_ThresholdIsInclusive(t *testing.T) {
	snap := makeSnapshot(
		quote("pinnacle", "Pinnacle", OutcomePrice{"Team A", 2.0}, OutcomePrice{"Team B", 2.0}),
		quote("bwin", "Bwin", OutcomePrice{"Team A", 2.5}, OutcomePrice{"Team B", 1.5}),
	)

	eval, err := Evaluate(snap, NewSharpList(nil), 0.25)
	require.NoError(t, err)
	require.Len(t, eval.Candidates, 1)
	assert.Equal(t, "Team A", eval.Candidates[0].Outcome)

	eval, err = Evaluate(snap, NewSharpList(nil), 0.2501)
	require.NoError(t, err)
	assert.Empty(t, eval.Candidates)
}
