package instagram

import (
	"context"
	"time"

	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/rs/zerolog/log"
)

// GetProfile fetches the profile summary for username. Optional fields the
// server omits stay unset.
func (c *Client) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	if err := c.ensureOrigin(ctx); err != nil {
		return nil, err
	}

	endpoint := ProfileURL(c.baseURL, username)
	var resp profileResponse
	if err := c.fetchJSON(ctx, endpoint, baseHeaders(), &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.User == nil {
		return nil, igerr.Malformed(endpoint, "missing data.user", nil)
	}
	u := resp.Data.User

	id := string(u.ID)
	if id == "" {
		id = string(u.PK)
	}
	p := &models.Profile{
		ID:        id,
		Username:  u.Username,
		FullName:  u.FullName,
		Bio:       u.Biography,
		AvatarURL: u.ProfilePicURLHD,
		FetchedAt: time.Now().UTC(),
	}
	if p.Username == "" {
		p.Username = username
	}
	if u.IsVerified {
		verified := true
		p.IsVerified = &verified
	}
	if u.EdgeOwnerToTimelineMedia != nil {
		p.PostsCount = u.EdgeOwnerToTimelineMedia.Count
	}
	if u.EdgeFollowedBy != nil {
		p.FollowersCount = u.EdgeFollowedBy.Count
	}
	if u.EdgeFollow != nil {
		p.FollowingCount = u.EdgeFollow.Count
	}
	return p, nil
}

// ResolveUserID maps a handle to its user id. When the profile carries no id
// the session's own account id is used.
func (c *Client) ResolveUserID(ctx context.Context, username string) (string, error) {
	p, err := c.GetProfile(ctx, username)
	if err != nil {
		return "", err
	}
	if p.ID != "" {
		return p.ID, nil
	}

	if err := c.ensureOrigin(ctx); err != nil {
		return "", err
	}
	self, err := c.browser.Cookie(ctx, SelfIDCookie)
	if err != nil {
		return "", igerr.New(igerr.KindAPI, "failed to read session cookie").WithInput(username).Wrap(err)
	}
	if self != "" {
		log.Debug().Str("username", username).Msg("Profile had no id, using own account id")
		return self, nil
	}
	return "", igerr.New(igerr.KindAPI, "could not resolve user id for target username").
		WithInput(username).
		Wrap(igerr.ErrUnresolvable)
}
