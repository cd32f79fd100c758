package instagram

import (
	"context"
	"fmt"

	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/law-makers/igfetch/internal/pacing"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/rs/zerolog/log"
)

// GetPostLikers walks the likers listing of mediaID, deduplicating by user id.
// At most LikersPageCap pages are read, fewer if cfg.MaxPages is smaller.
func (c *Client) GetPostLikers(ctx context.Context, mediaID string, cfg models.PaginationConfig) (*Likers, error) {
	maxPages := LikersPageCap
	if cfg.MaxPages > 0 && cfg.MaxPages < maxPages {
		maxPages = cfg.MaxPages
	}

	if err := c.ensureOrigin(ctx); err != nil {
		return nil, err
	}
	headers, err := c.xhrHeaders(ctx)
	if err != nil {
		return nil, err
	}

	policy := pacing.New(cfg.SpikeProbability, c.src)
	result := &Likers{Items: []models.UserSummary{}}
	seen := make(map[string]struct{})
	var token string

	for pageNum := 0; pageNum < maxPages; pageNum++ {
		if pageNum > 0 {
			if err := c.pause(ctx, policy, cfg.BaseDelay); err != nil {
				return nil, err
			}
		}

		endpoint := LikersURL(c.baseURL, mediaID, token)
		var resp likersResponse
		if err := c.fetchJSON(ctx, endpoint, headers, &resp); err != nil {
			return nil, fmt.Errorf("likers page %d: %w", pageNum+1, err)
		}
		if resp.Users == nil {
			return nil, igerr.Malformed(endpoint, "missing users", nil)
		}

		users := *resp.Users
		for _, u := range users {
			s := u.summary()
			if s.ID == "" {
				continue
			}
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			result.Items = append(result.Items, s)
		}
		if resp.UserCount != nil && *resp.UserCount > result.TotalLikes {
			result.TotalLikes = *resp.UserCount
		}
		c.report(PageEvent{Operation: "likers", Page: pageNum + 1, Items: len(result.Items), Declared: result.TotalLikes})

		// A declared total of 0 is treated as unknown rather than complete
		next := string(resp.NextMaxID)
		complete := result.TotalLikes > 0 && len(result.Items) >= result.TotalLikes
		if len(users) == 0 || next == "" || next == token || complete {
			break
		}
		token = next
	}

	log.Info().
		Str("media_id", mediaID).
		Int("count", len(result.Items)).
		Int("total_likes", result.TotalLikes).
		Msg("Likers fetched")
	return result, nil
}
