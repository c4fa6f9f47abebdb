package domain

import (
	"sort"
	"strings"
)

// DefaultEVMin es el umbral de EV por defecto (3%).
const DefaultEVMin = 0.03

// Candidate es un resultado cuyo EV supera el umbral.
type Candidate struct {
	Outcome  string
	FairProb float64
	Price    float64
	Source   string
	EV       float64
}

// FairOdds es 1/FairProb redondeado a 3 decimales, o nil si la probabilidad es 0.
func (c Candidate) FairOdds() *float64 {
	if c.FairProb <= 0 {
		return nil
	}
	v := Round(1/c.FairProb, 3)
	return &v
}

// SoftOdds es la mejor cuota redondeada a 3 decimales.
func (c Candidate) SoftOdds() float64 { return Round(c.Price, 3) }

// EVPct es el EV en porcentaje con 2 decimales.
func (c Candidate) EVPct() float64 { return Round(c.EV*100, 2) }

// DroppedQuote registra una cotización sharp descartada y el motivo.
type DroppedQuote struct {
	Source string
	Err    error
}

// Evaluation es el resultado de analizar un evento.
type Evaluation struct {
	SharpSources []string // títulos sharp que aportaron al consenso, ordenados y sin duplicados
	Consensus    Consensus
	Best         map[string]BestPrice
	Candidates   []Candidate
	Dropped      []DroppedQuote
}

// SharpSourcesLabel une los sharps del evento con ", ".
func (e Evaluation) SharpSourcesLabel() string {
	return strings.Join(e.SharpSources, ", ")
}

// Evaluate ejecuta el pipeline completo sobre un evento:
// vig removal por sharp → consenso → mejor precio → filtro de EV.
// Devuelve ErrNoSharpSources si ningún sharp tiene cotización utilizable.
func Evaluate(s MarketSnapshot, sharp SharpList, evMin float64) (Evaluation, error) {
	var (
		eval    Evaluation
		vectors []ProbabilityVector
		titles  = make(map[string]bool)
	)

	for _, q := range s.Quotes {
		if !sharp.IsSharp(q.Key, q.Title) {
			continue
		}
		names, prices, err := q.Prices()
		if err != nil {
			eval.Dropped = append(eval.Dropped, DroppedQuote{Source: q.Label(), Err: err})
			continue
		}
		v, err := NewProbabilityVector(q.Label(), names, prices)
		if err != nil {
			eval.Dropped = append(eval.Dropped, DroppedQuote{Source: q.Label(), Err: err})
			continue
		}
		vectors = append(vectors, v)
		titles[q.Label()] = true
	}
	if len(vectors) == 0 {
		return eval, ErrNoSharpSources
	}

	for t := range titles {
		eval.SharpSources = append(eval.SharpSources, t)
	}
	sort.Strings(eval.SharpSources)

	eval.Consensus = Aggregate(vectors)
	eval.Best = SelectBestPrices(s.Quotes, eval.Consensus.Names)

	for _, name := range eval.Consensus.Names {
		fair := eval.Consensus.Prob(name)
		bp := eval.Best[name]
		if bp.Price <= 0 || fair <= 0 {
			continue
		}
		ev := ExpectedValue(bp.Price, fair)
		if ev >= evMin {
			eval.Candidates = append(eval.Candidates, Candidate{
				Outcome:  name,
				FairProb: fair,
				Price:    bp.Price,
				Source:   bp.Source,
				EV:       ev,
			})
		}
	}
	return eval, nil
}
