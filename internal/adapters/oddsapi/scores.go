package oddsapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/capcea/bet-backend/internal/domain"
)

// FetchScores devuelve el estado de los eventos dados de una liga.
// daysFrom es cuántos días hacia atrás incluir eventos completados (1-3).
func (c *Client) FetchScores(ctx context.Context, league string, eventIDs []string, daysFrom int) ([]domain.EventResult, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	params := url.Values{
		"dateFormat": {"iso"},
		"eventIds":   {strings.Join(eventIDs, ",")},
	}
	if daysFrom > 0 {
		params.Set("daysFrom", strconv.Itoa(daysFrom))
	}

	var events []scoreEvent
	path := fmt.Sprintf("/v4/sports/%s/scores", url.PathEscape(league))
	if err := c.get(ctx, path, params, &events); err != nil {
		return nil, fmt.Errorf("oddsapi.FetchScores %s: %w", league, err)
	}
	return mapResults(events), nil
}
