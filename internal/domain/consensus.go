package domain

// ProbabilityVector son las probabilidades sin vig de una fuente sharp,
// alineadas con los nombres de resultado que cotizó.
type ProbabilityVector struct {
	Source string
	Names  []string
	Probs  []float64
}

// NewProbabilityVector valida la cotización y le quita el vig.
// Devuelve ErrMalformedQuote si nombres y precios no cuadran, o
// ErrDegenerateProbabilities si ningún precio es > 1.
func NewProbabilityVector(source string, names []string, prices []float64) (ProbabilityVector, error) {
	if len(names) == 0 || len(names) != len(prices) {
		return ProbabilityVector{}, ErrMalformedQuote
	}
	probs, err := RemoveVig(prices)
	if err != nil {
		return ProbabilityVector{}, err
	}
	return ProbabilityVector{Source: source, Names: names, Probs: probs}, nil
}

// Prob devuelve la probabilidad de un resultado por nombre exacto.
func (v ProbabilityVector) Prob(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Probs[i], true
		}
	}
	return 0, false
}

// Consensus es la probabilidad justa media por resultado.
// Names conserva el orden en que cada nombre apareció por primera vez.
type Consensus struct {
	Names []string
	Probs map[string]float64
}

// Prob devuelve la probabilidad de consenso; 0 si ningún sharp cotizó el resultado.
func (c Consensus) Prob(name string) float64 {
	return c.Probs[name]
}

// Empty indica que no hubo ningún vector sharp.
func (c Consensus) Empty() bool {
	return len(c.Names) == 0
}

// Aggregate promedia los vectores sharp resultado a resultado.
// El universo es la unión de nombres; cada resultado promedia solo las fuentes
// que lo cotizaron.
func Aggregate(vectors []ProbabilityVector) Consensus {
	c := Consensus{Probs: make(map[string]float64)}
	seen := make(map[string]bool)
	for _, v := range vectors {
		for _, n := range v.Names {
			if !seen[n] {
				seen[n] = true
				c.Names = append(c.Names, n)
			}
		}
	}

	for _, name := range c.Names {
		sum, count := 0.0, 0
		for _, v := range vectors {
			if p, ok := v.Prob(name); ok {
				sum += p
				count++
			}
		}
		if count > 0 {
			c.Probs[name] = sum / float64(count)
		}
	}
	return c
}
