package instagram

import (
	"context"
	"fmt"

	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/law-makers/igfetch/internal/pacing"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/rs/zerolog/log"
)

// GetConnections walks a followers or following listing of userID in server
// order. It stops when the server reports no more pages, a page comes back
// empty, the cursor fails to advance, or cfg.MaxPages pages were read.
func (c *Client) GetConnections(ctx context.Context, kind models.ConnectionKind, userID string, cfg models.PaginationConfig) ([]models.UserSummary, error) {
	if kind != models.Followers && kind != models.Following {
		return nil, igerr.New(igerr.KindAPI, "unknown connection kind").WithInput(string(kind))
	}
	cfg = withDefaults(cfg)

	if err := c.ensureOrigin(ctx); err != nil {
		return nil, err
	}
	headers, err := c.xhrHeaders(ctx)
	if err != nil {
		return nil, err
	}

	policy := pacing.New(cfg.SpikeProbability, c.src)
	summaries := []models.UserSummary{}
	var cursor string

	for pageNum := 0; pageNum < cfg.MaxPages; pageNum++ {
		if pageNum > 0 {
			if err := c.pause(ctx, policy, cfg.BaseDelay); err != nil {
				return nil, err
			}
		}

		endpoint := ConnectionsURL(c.baseURL, userID, kind, cfg.PageSize, cursor)
		var resp connectionsResponse
		if err := c.fetchJSON(ctx, endpoint, headers, &resp); err != nil {
			return nil, fmt.Errorf("%s page %d: %w", kind, pageNum+1, err)
		}
		if resp.Users == nil {
			return nil, igerr.Malformed(endpoint, "missing users", nil)
		}

		users := *resp.Users
		for _, u := range users {
			summaries = append(summaries, u.summary())
		}
		c.report(PageEvent{Operation: string(kind), Page: pageNum + 1, Items: len(summaries)})

		next := string(resp.NextMaxID)
		if !resp.HasMore || len(users) == 0 || next == "" || next == cursor {
			break
		}
		cursor = next
	}

	log.Info().
		Str("kind", string(kind)).
		Str("user_id", userID).
		Int("count", len(summaries)).
		Msg("Connections fetched")
	return summaries, nil
}
