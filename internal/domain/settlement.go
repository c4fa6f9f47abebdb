package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DrawSelection es el nombre del resultado empate en mercados de tres vías.
const DrawSelection = "Draw"

// PendingEvent es un evento con picks aún upcoming.
type PendingEvent struct {
	SportKey string
	EventID  string
}

// TeamScore es el marcador de un participante tal como lo envía el proveedor.
type TeamScore struct {
	Name  string
	Score string
}

// EventResult es el estado final (o parcial) de un evento.
type EventResult struct {
	EventID   string
	HomeTeam  string
	AwayTeam  string
	Completed bool
	Scores    []TeamScore
}

// FinalScore resuelve los marcadores de local y visitante por nombre.
// Devuelve ErrUnresolvedScore si falta alguno o no es un entero.
func (r EventResult) FinalScore() (home, away int, err error) {
	byName := make(map[string]string, len(r.Scores))
	for _, s := range r.Scores {
		byName[s.Name] = s.Score
	}

	home, err = parseScore(byName, r.HomeTeam)
	if err != nil {
		return 0, 0, err
	}
	away, err = parseScore(byName, r.AwayTeam)
	if err != nil {
		return 0, 0, err
	}
	return home, away, nil
}

func parseScore(byName map[string]string, team string) (int, error) {
	raw, ok := byName[team]
	if !ok {
		return 0, fmt.Errorf("%w: no score for %q", ErrUnresolvedScore, team)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: score %q for %q", ErrUnresolvedScore, raw, team)
	}
	return n, nil
}

// Grade califica una selección con el marcador final.
// ok=false si la selección no es Draw ni ninguno de los participantes.
// Nunca devuelve push: un empate con selección de equipo es lost.
func Grade(selection, homeTeam, awayTeam string, homeScore, awayScore int) (PickStatus, bool) {
	switch selection {
	case DrawSelection:
		return winIf(homeScore == awayScore), true
	case homeTeam:
		return winIf(homeScore > awayScore), true
	case awayTeam:
		return winIf(awayScore > homeScore), true
	default:
		return StatusUpcoming, false
	}
}

func winIf(cond bool) PickStatus {
	if cond {
		return StatusWon
	}
	return StatusLost
}

// Resolution son los campos que escribe la liquidación sobre un pick.
type Resolution struct {
	Status     PickStatus
	ScoreHome  int
	ScoreAway  int
	ResolvedAt time.Time
}

// Apply devuelve una copia del pick liquidado. Si el pick ya es terminal
// se devuelve sin cambios.
func (r Resolution) Apply(p Pick) Pick {
	if p.Status.Terminal() {
		return p
	}
	home, away := r.ScoreHome, r.ScoreAway
	at := r.ResolvedAt.UTC()
	p.Status = r.Status
	p.ScoreHome = &home
	p.ScoreAway = &away
	p.ResolvedAt = &at
	return p
}
