package domain

import "errors"

var (
	// ErrNotFound indica que la entidad buscada no existe.
	ErrNotFound = errors.New("not found")

	// ErrLockHeld indica que otra ejecución tiene el lock.
	ErrLockHeld = errors.New("lock held by another run")

	// ErrMalformedQuote: cotización con resultados vacíos, nombres faltantes o precios no numéricos.
	ErrMalformedQuote = errors.New("malformed quote")

	// ErrDegenerateProbabilities: la suma de probabilidades implícitas es <= 0.
	ErrDegenerateProbabilities = errors.New("degenerate implied probabilities")

	// ErrNoSharpSources: ningún sharp dio una cotización utilizable para el evento.
	ErrNoSharpSources = errors.New("no usable sharp sources")

	// ErrUnresolvedScore: el marcador final no se puede asociar a los participantes.
	ErrUnresolvedScore = errors.New("unresolved final score")
)
