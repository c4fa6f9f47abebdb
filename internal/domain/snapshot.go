package domain

import (
	"math"
	"time"
)

// MarketH2H es el único mercado soportado: ganador del partido (moneyline).
const MarketH2H = "h2h"

// MarketSnapshot es la foto de un evento pre-partido con las cuotas de cada fuente.
// Se obtiene en cada scan y nunca se persiste tal cual.
type MarketSnapshot struct {
	EventID      string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Quotes       []SourceQuote
}

// SourceQuote son las cuotas de una fuente (bookmaker o exchange) para un mercado.
type SourceQuote struct {
	Key      string
	Title    string
	Outcomes []OutcomePrice
}

// OutcomePrice es una cuota decimal para un resultado. Price es NaN si la
// fuente envió un valor no numérico.
type OutcomePrice struct {
	Name  string
	Price float64
}

// Label identifica la fuente: el título, o la key si no hay título.
func (q SourceQuote) Label() string {
	if q.Title != "" {
		return q.Title
	}
	return q.Key
}

// Prices separa la cotización en nombres y precios alineados.
// Devuelve ErrMalformedQuote si no hay resultados, si algún nombre está vacío
// o si algún precio no es finito (el número de nombres y precios no cuadra).
func (q SourceQuote) Prices() ([]string, []float64, error) {
	if len(q.Outcomes) == 0 {
		return nil, nil, ErrMalformedQuote
	}
	names := make([]string, 0, len(q.Outcomes))
	prices := make([]float64, 0, len(q.Outcomes))
	for _, o := range q.Outcomes {
		if o.Name != "" {
			names = append(names, o.Name)
		}
		if !math.IsNaN(o.Price) && !math.IsInf(o.Price, 0) {
			prices = append(prices, o.Price)
		}
	}
	if len(names) != len(q.Outcomes) || len(prices) != len(q.Outcomes) {
		return nil, nil, ErrMalformedQuote
	}
	return names, prices, nil
}

// Valid indica si el snapshot tiene los datos mínimos para generar picks.
func (s MarketSnapshot) Valid() bool {
	return s.EventID != "" && s.HomeTeam != "" && s.AwayTeam != "" && !s.CommenceTime.IsZero()
}
