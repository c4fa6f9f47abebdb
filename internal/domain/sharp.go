package domain

import "strings"

// DefaultSharpSources es la allow-list de fuentes consideradas sharp.
var DefaultSharpSources = []string{
	"pinnacle",
	"betfair",
	"betfairex",
	"betfair_ex",
	"sbo",
	"sbobet",
	"matchbook",
	"circa",
}

// SharpList clasifica fuentes por coincidencia de substring, sin distinguir mayúsculas.
type SharpList []string

// NewSharpList normaliza las pistas (minúsculas, sin espacios, sin vacías).
// Una lista vacía equivale a DefaultSharpSources.
func NewSharpList(hints []string) SharpList {
	out := make(SharpList, 0, len(hints))
	for _, h := range hints {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			out = append(out, h)
		}
	}
	if len(out) == 0 {
		return NewSharpList(DefaultSharpSources)
	}
	return out
}

// IsSharp devuelve true si key o título contienen alguna pista de la lista.
func (l SharpList) IsSharp(key, title string) bool {
	s := strings.ToLower(key + " " + title)
	for _, h := range l {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}
