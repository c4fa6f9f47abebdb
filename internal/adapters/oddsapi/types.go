package oddsapi

import "encoding/json"

// DTOs raw de The Odds API v4. Solo se usan dentro de este paquete.
// La conversión a domain se hace en mapping.go.

// sport es un elemento de GET /v4/sports.
type sport struct {
	Key    string `json:"key"`
	Group  string `json:"group"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// oddsEvent es un evento de GET /v4/sports/{sport}/odds.
type oddsEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []market `json:"markets"`
}

type market struct {
	Key      string    `json:"key"`
	Outcomes []outcome `json:"outcomes"`
}

// outcome.Price se deja raw: algunos bookmakers envían strings o null.
type outcome struct {
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`
}

// scoreEvent es un evento de GET /v4/sports/{sport}/scores.
type scoreEvent struct {
	ID        string       `json:"id"`
	SportKey  string       `json:"sport_key"`
	HomeTeam  string       `json:"home_team"`
	AwayTeam  string       `json:"away_team"`
	Completed bool         `json:"completed"`
	Scores    []scoreEntry `json:"scores"`
}

// scoreEntry.Score llega como string ("2"), pero se tolera número.
type scoreEntry struct {
	Name  string          `json:"name"`
	Score json.RawMessage `json:"score"`
}
