package oddsapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
)

// FetchOdds devuelve los eventos h2h de la liga con inicio en [from, to].
func (c *Client) FetchOdds(ctx context.Context, league, region string, from, to time.Time) ([]domain.MarketSnapshot, error) {
	params := url.Values{
		"regions":          {region},
		"markets":          {domain.MarketH2H},
		"oddsFormat":       {"decimal"},
		"dateFormat":       {"iso"},
		"commenceTimeFrom": {isoNoMillis(from)},
		"commenceTimeTo":   {isoNoMillis(to)},
	}

	var events []oddsEvent
	path := fmt.Sprintf("/v4/sports/%s/odds", url.PathEscape(league))
	if err := c.get(ctx, path, params, &events); err != nil {
		return nil, fmt.Errorf("oddsapi.FetchOdds %s: %w", league, err)
	}

	snaps := mapSnapshots(league, domain.MarketH2H, events)
	slog.Debug("odds fetched", "league", league, "events", len(events), "usable", len(snaps))
	return snaps, nil
}
