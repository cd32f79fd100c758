package instagram

import (
	"context"
	"net/http"
	"testing"

	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaInput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		mediaID   string
		shortcode string
		wantErr   bool
	}{
		{"numeric id", "3141592653589793", "3141592653589793", "", false},
		{"numeric id padded", "  12345678 ", "12345678", "", false},
		{"short number is a shortcode", "1234567", "", "1234567", false},
		{"bare shortcode", "ABC123", "", "ABC123", false},
		{"post url", "https://instagram.com/p/ABC123/", "", "ABC123", false},
		{"reel url with query", "https://www.instagram.com/reel/Cx_9-z/?igsh=abc", "", "Cx_9-z", false},
		{"reels url", "https://www.instagram.com/reels/Cx9z/", "", "Cx9z", false},
		{"tv url", "https://www.instagram.com/tv/B1b2/", "", "B1b2", false},
		{"invalid characters", "abc$def", "", "", true},
		{"profile url", "https://www.instagram.com/someone/", "", "", true},
		{"empty", "   ", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, code, err := ParseMediaInput(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, igerr.ErrUnresolvable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mediaID, id)
			assert.Equal(t, tt.shortcode, code)
		})
	}
}

func TestShortcode(t *testing.T) {
	assert.Equal(t, "ABC123", Shortcode("https://instagram.com/p/ABC123/"))
	assert.Equal(t, "3141592653589793", Shortcode(" 3141592653589793 "))
	assert.Equal(t, "abc$def", Shortcode("abc$def"))
}

func TestResolveMediaID_NumericNeedsNoNetwork(t *testing.T) {
	b := newFakeBrowser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL)
	}))
	b.loc = "about:blank"
	c, _ := newTestClient(b)

	id, err := c.ResolveMediaID(context.Background(), "3141592653589793")
	require.NoError(t, err)
	assert.Equal(t, "3141592653589793", id)
	assert.Empty(t, b.requests)
	assert.Empty(t, b.navigations)
}

func TestResolveMediaID_InvalidShortcodeNeedsNoNetwork(t *testing.T) {
	b := newFakeBrowser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL)
	}))
	c, _ := newTestClient(b)

	_, err := c.ResolveMediaID(context.Background(), "https://instagram.com/p/AB%C/")
	require.ErrorIs(t, err, igerr.ErrUnresolvable)
	assert.Equal(t, igerr.KindUnresolvable, igerr.KindOf(err))
	assert.Empty(t, b.requests)
}

func TestResolveMediaID_OEmbed(t *testing.T) {
	b := newFakeBrowser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == OEmbedEndpoint {
			assert.Equal(t, "https://www.instagram.com/p/ABC123/", r.URL.Query().Get("url"))
			w.Write([]byte(`{"media_id":"3141592653589793_25025320"}`))
			return
		}
		http.NotFound(w, r)
	}))
	c, _ := newTestClient(b)

	id, err := c.ResolveMediaID(context.Background(), "https://instagram.com/p/ABC123/")
	require.NoError(t, err)
	assert.Equal(t, "3141592653589793", id)
	assert.Equal(t, []string{OEmbedEndpoint}, b.paths())
}

func TestResolveMediaID_FallsThroughEmbedsInOrder(t *testing.T) {
	b := newFakeBrowser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/reel/ABC123/embed/":
			w.Write([]byte(`<html><head><meta property="al:ios:url" content="instagram://media?id=2718281828459045"></head></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	c, _ := newTestClient(b)

	id, err := c.ResolveMediaID(context.Background(), "https://instagram.com/p/ABC123/")
	require.NoError(t, err)
	assert.Equal(t, "2718281828459045", id)
	assert.Equal(t, []string{
		OEmbedEndpoint,
		"/p/ABC123/embed/captioned/",
		"/p/ABC123/embed/",
		"/reel/ABC123/embed/",
	}, b.paths())
}

func TestResolveMediaID_EmptyOEmbedFallsThrough(t *testing.T) {
	b := newFakeBrowser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case OEmbedEndpoint:
			w.Write([]byte(`{"title":"no id here"}`))
		case "/p/ABC123/embed/captioned/":
			w.Write([]byte(`<div class="Embed" data-media-id="1618033988749894"></div>`))
		default:
			http.NotFound(w, r)
		}
	}))
	c, _ := newTestClient(b)

	id, err := c.ResolveMediaID(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "1618033988749894", id)
}

func TestResolveMediaID_AuthErrorDoesNotFallThrough(t *testing.T) {
	b := newFakeBrowser(jsonHandler(http.StatusUnauthorized, `{}`))
	c, _ := newTestClient(b)

	_, err := c.ResolveMediaID(context.Background(), "ABC123")
	require.ErrorIs(t, err, igerr.ErrUnauthorized)
	assert.Len(t, b.requests, 1)
}

func TestResolveMediaID_RateLimitOnEmbedAborts(t *testing.T) {
	b := newFakeBrowser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/p/ABC123/embed/captioned/" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		http.NotFound(w, r)
	}))
	c, _ := newTestClient(b)

	_, err := c.ResolveMediaID(context.Background(), "ABC123")
	require.ErrorIs(t, err, igerr.ErrRateLimited)
	assert.Len(t, b.requests, 2)
}

func TestResolveMediaID_Exhausted(t *testing.T) {
	b := newFakeBrowser(http.HandlerFunc(http.NotFound))
	c, _ := newTestClient(b)

	_, err := c.ResolveMediaID(context.Background(), "ABC123")
	require.Error(t, err)
	assert.Equal(t, igerr.KindAPI, igerr.KindOf(err))
	assert.ErrorIs(t, err, igerr.ErrUnresolvable)
	assert.Len(t, b.requests, 4)
}

func TestExtractMediaID(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "ios app link",
			html: `<meta property="al:ios:url" content="instagram://media?id=123456789012">`,
			want: "123456789012",
		},
		{
			name: "data attribute with owner suffix",
			html: `<blockquote data-media-id="123456789012_42"></blockquote>`,
			want: "123456789012",
		},
		{
			name: "additional data script",
			html: `<script>window.__additionalDataLoaded('extra', {"shortcode_media":{"id":"987654321098","shortcode":"ABC"}});</script>`,
			want: "987654321098",
		},
		{
			name: "shared data script",
			html: `<script>window._sharedData = {"entry_data":{"PostPage":[{"graphql":{"shortcode_media":{"id":"555555555555"}}}]}};</script>`,
			want: "555555555555",
		},
		{
			name: "broken script with raw media id",
			html: `<script>var cfg = {"media_id":"444444444444_1"}; document.querySelector('x').y();</script>`,
			want: "444444444444",
		},
		{
			name: "external scripts ignored",
			html: `<script src="https://cdn.example/app.js"></script>`,
			want: "",
		},
		{
			name: "runaway script is interrupted",
			html: `<script>while (true) {}</script><script>window.__additionalDataLoaded('x', {"shortcode_media":{"id":"333333333333"}});</script>`,
			want: "333333333333",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMediaID([]byte(tt.html)))
		})
	}
}

func TestNormalizeMediaID(t *testing.T) {
	assert.Equal(t, "123", normalizeMediaID("123_456"))
	assert.Equal(t, "123", normalizeMediaID(" 123 "))
	assert.Equal(t, "", normalizeMediaID("abc"))
	assert.Equal(t, "", normalizeMediaID(""))
}
