package domain

import "math"

// BestPrice es la mejor cuota encontrada para un resultado y quién la ofrece.
type BestPrice struct {
	Outcome string
	Price   float64
	Source  string
}

// SelectBestPrices busca la cuota máxima de cada resultado del universo entre
// todas las fuentes, sharp y soft. En empate gana la primera fuente vista.
// Resultados sin ninguna cuota quedan con Price 0.
func SelectBestPrices(quotes []SourceQuote, universe []string) map[string]BestPrice {
	best := make(map[string]BestPrice, len(universe))
	for _, name := range universe {
		best[name] = BestPrice{Outcome: name}
	}
	for _, q := range quotes {
		for _, o := range q.Outcomes {
			cur, ok := best[o.Name]
			if !ok || math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
				continue
			}
			if o.Price > cur.Price {
				best[o.Name] = BestPrice{Outcome: o.Name, Price: o.Price, Source: q.Label()}
			}
		}
	}
	return best
}
