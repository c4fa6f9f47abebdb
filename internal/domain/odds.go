package domain

import "math"

// ImpliedProbability convierte una cuota decimal en probabilidad implícita.
// Cuotas <= 1 no tienen sentido y valen 0.
func ImpliedProbability(price float64) float64 {
	if price <= 1 {
		return 0
	}
	return 1 / price
}

// RemoveVig quita el overround de forma proporcional:
//
//	p_i = (1/o_i) / Σ(1/o_j)
//
// Si la suma de probabilidades implícitas es <= 0 devuelve ErrDegenerateProbabilities.
// No modela el sesgo favorito/longshot.
func RemoveVig(prices []float64) ([]float64, error) {
	probs := make([]float64, len(prices))
	sum := 0.0
	for i, p := range prices {
		probs[i] = ImpliedProbability(p)
		sum += probs[i]
	}
	if sum <= 0 {
		return nil, ErrDegenerateProbabilities
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}

// ExpectedValue es el valor esperado relativo de apostar a price con probabilidad real prob.
func ExpectedValue(price, prob float64) float64 {
	return price*prob - 1
}

// Round redondea a n decimales.
func Round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
