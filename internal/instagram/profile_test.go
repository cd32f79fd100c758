package instagram

import (
	"context"
	"net/http"
	"testing"

	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullProfile = `{"data":{"user":{
	"id":"25025320",
	"username":"instagram",
	"full_name":"Instagram",
	"biography":"Discover what's new",
	"is_verified":true,
	"profile_pic_url_hd":"https://cdn.example/pic.jpg",
	"edge_owner_to_timeline_media":{"count":7000},
	"edge_followed_by":{"count":0},
	"edge_follow":{"count":150}
}}}`

func TestGetProfile_AllFields(t *testing.T) {
	b := newFakeBrowser(jsonHandler(http.StatusOK, fullProfile))
	c, _ := newTestClient(b)

	p, err := c.GetProfile(context.Background(), "instagram")
	require.NoError(t, err)

	assert.Equal(t, "25025320", p.ID)
	assert.Equal(t, "instagram", p.Username)
	assert.Equal(t, "Instagram", p.FullName)
	assert.Equal(t, "Discover what's new", p.Bio)
	assert.Equal(t, "https://cdn.example/pic.jpg", p.AvatarURL)
	require.NotNil(t, p.IsVerified)
	assert.True(t, *p.IsVerified)
	require.NotNil(t, p.PostsCount)
	assert.Equal(t, 7000, *p.PostsCount)
	// A zero count is present, not absent
	require.NotNil(t, p.FollowersCount)
	assert.Equal(t, 0, *p.FollowersCount)
	require.NotNil(t, p.FollowingCount)
	assert.False(t, p.FetchedAt.IsZero())

	req := b.requests[0]
	assert.Equal(t, "instagram", req.URL.Query().Get("username"))
	assert.Equal(t, AppID, req.Header.Get("x-ig-app-id"))
}

func TestGetProfile_OptionalFieldsOmitted(t *testing.T) {
	c, _ := newTestClient(newFakeBrowser(jsonHandler(http.StatusOK,
		`{"data":{"user":{"pk":12345678901,"is_verified":false}}}`)))

	p, err := c.GetProfile(context.Background(), "someone")
	require.NoError(t, err)

	assert.Equal(t, "12345678901", p.ID)
	assert.Equal(t, "someone", p.Username)
	assert.Empty(t, p.FullName)
	assert.Empty(t, p.Bio)
	assert.Nil(t, p.IsVerified)
	assert.Nil(t, p.PostsCount)
	assert.Nil(t, p.FollowersCount)
	assert.Nil(t, p.FollowingCount)
}

func TestGetProfile_MissingUserIsMalformed(t *testing.T) {
	for _, body := range []string{`{}`, `{"data":{}}`, `{"data":{"user":null}}`} {
		c, _ := newTestClient(newFakeBrowser(jsonHandler(http.StatusOK, body)))
		_, err := c.GetProfile(context.Background(), "x")
		require.ErrorIs(t, err, igerr.ErrAPI, body)
	}
}

func TestGetProfile_Idempotent(t *testing.T) {
	c, _ := newTestClient(newFakeBrowser(jsonHandler(http.StatusOK, fullProfile)))

	a, err := c.GetProfile(context.Background(), "instagram")
	require.NoError(t, err)
	b, err := c.GetProfile(context.Background(), "instagram")
	require.NoError(t, err)

	b.FetchedAt = a.FetchedAt
	assert.Equal(t, a, b)
}

func TestResolveUserID(t *testing.T) {
	t.Run("from profile", func(t *testing.T) {
		c, _ := newTestClient(newFakeBrowser(jsonHandler(http.StatusOK, fullProfile)))
		id, err := c.ResolveUserID(context.Background(), "instagram")
		require.NoError(t, err)
		assert.Equal(t, "25025320", id)
	})

	t.Run("falls back to own account cookie", func(t *testing.T) {
		b := newFakeBrowser(jsonHandler(http.StatusOK, `{"data":{"user":{"username":"me"}}}`))
		b.cookies[SelfIDCookie] = "999"
		c, _ := newTestClient(b)

		id, err := c.ResolveUserID(context.Background(), "me")
		require.NoError(t, err)
		assert.Equal(t, "999", id)
	})

	t.Run("no source yields api error", func(t *testing.T) {
		c, _ := newTestClient(newFakeBrowser(jsonHandler(http.StatusOK, `{"data":{"user":{}}}`)))

		_, err := c.ResolveUserID(context.Background(), "ghost")
		require.Error(t, err)
		assert.Equal(t, igerr.KindAPI, igerr.KindOf(err))
		assert.ErrorIs(t, err, igerr.ErrUnresolvable)
		assert.Contains(t, err.Error(), `input="ghost"`)
	})

	t.Run("profile errors propagate", func(t *testing.T) {
		c, _ := newTestClient(newFakeBrowser(jsonHandler(http.StatusUnauthorized, `{}`)))
		_, err := c.ResolveUserID(context.Background(), "x")
		assert.ErrorIs(t, err, igerr.ErrUnauthorized)
	})
}
