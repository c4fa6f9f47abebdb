package oddsapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

const sportsPath = "/v4/sports/"

// ListTrackedLeagues devuelve las ligas (incluidas las inactivas) cuyos keys
// empiezan por alguno de los prefijos configurados.
func (c *Client) ListTrackedLeagues(ctx context.Context) ([]string, error) {
	var sports []sport
	if err := c.get(ctx, sportsPath, url.Values{"all": {"true"}}, &sports); err != nil {
		return nil, fmt.Errorf("oddsapi.ListTrackedLeagues: %w", err)
	}
	leagues := filterLeagues(sports, c.prefixes)
	slog.Debug("tracked leagues", "total", len(sports), "tracked", len(leagues))
	return leagues, nil
}

// Probe es el diagnóstico de conectividad con la API.
type Probe struct {
	OK     bool   `json:"ok"`
	Status int    `json:"status"`
	Body   string `json:"body,omitempty"`
}

// Ping consulta el listado de deportes y devuelve el estado HTTP.
// Un 4xx no es error: se informa en Probe (clave inválida, cuota agotada).
func (c *Client) Ping(ctx context.Context) (Probe, error) {
	var sports []sport
	err := c.get(ctx, sportsPath, url.Values{"all": {"true"}}, &sports)
	if err == nil {
		return Probe{OK: true, Status: 200}, nil
	}
	var se *StatusError
	if errors.As(err, &se) {
		return Probe{OK: false, Status: se.Code, Body: se.Body}, nil
	}
	return Probe{}, fmt.Errorf("oddsapi.Ping: %w", err)
}
