package app

import (
	"context"
	"strings"
	"time"

	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/law-makers/igfetch/internal/instagram"
	"github.com/law-makers/igfetch/pkg/models"
)

// Connections fetches the followers or followings of handle
func (a *Application) Connections(ctx context.Context, kind models.ConnectionKind, handle string, hook instagram.PageHook) (models.ScrapeResult[models.UserSummary], error) {
	handle, err := normalizeHandle(handle)
	if err != nil {
		return models.ScrapeResult[models.UserSummary]{}, err
	}

	return Run(ctx, a, string(kind), hook, func(ctx context.Context, c *instagram.Client) (models.ScrapeResult[models.UserSummary], error) {
		id, err := c.ResolveUserID(ctx, handle)
		if err != nil {
			return models.ScrapeResult[models.UserSummary]{}, err
		}
		items, err := c.GetConnections(ctx, kind, id, a.Config.Pagination)
		if err != nil {
			return models.ScrapeResult[models.UserSummary]{}, err
		}
		return models.NewScrapeResult(items), nil
	})
}

// Profile fetches the profile summary of handle
func (a *Application) Profile(ctx context.Context, handle string) (*models.Profile, error) {
	handle, err := normalizeHandle(handle)
	if err != nil {
		return nil, err
	}

	return Run(ctx, a, "profile", nil, func(ctx context.Context, c *instagram.Client) (*models.Profile, error) {
		return c.GetProfile(ctx, handle)
	})
}

// PostLikers resolves a media id, shortcode or post URL and lists its likers
func (a *Application) PostLikers(ctx context.Context, input string, hook instagram.PageHook) (*models.LikersResult, error) {
	if _, _, err := instagram.ParseMediaInput(input); err != nil {
		return nil, err
	}

	return Run(ctx, a, "post-likers", hook, func(ctx context.Context, c *instagram.Client) (*models.LikersResult, error) {
		mediaID, err := c.ResolveMediaID(ctx, input)
		if err != nil {
			return nil, err
		}
		likers, err := c.GetPostLikers(ctx, mediaID, a.Config.Pagination)
		if err != nil {
			return nil, err
		}
		return likersResult(likers), nil
	})
}

func likersResult(l *instagram.Likers) *models.LikersResult {
	items := l.Items
	if items == nil {
		items = []models.UserSummary{}
	}
	return &models.LikersResult{
		Items:      items,
		Total:      len(items),
		Available:  len(items),
		TotalLikes: l.TotalLikes,
		FetchedAt:  time.Now().UTC(),
	}
}

// normalizeHandle strips whitespace and a leading @
func normalizeHandle(handle string) (string, error) {
	h := strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if h == "" || strings.ContainsAny(h, "/?# ") {
		return "", igerr.New(igerr.KindUnresolvable, "not a valid username").WithInput(handle)
	}
	return h, nil
}
