package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCookieParams(t *testing.T) {
	params := toCookieParams(sampleSnapshot().Cookies)
	require.Len(t, params, 3)

	p := params[0]
	assert.Equal(t, "sessionid", p.Name)
	assert.True(t, p.HTTPOnly)
	assert.Equal(t, network.CookieSameSiteLax, p.SameSite)
	require.NotNil(t, p.Expires)
	assert.Equal(t, int64(1900000000), p.Expires.Time().Unix())

	// Session cookies carry no expiry
	assert.Nil(t, params[2].Expires)
	assert.Empty(t, params[1].SameSite)
}

func TestFromNetworkCookies(t *testing.T) {
	got := fromNetworkCookies([]*network.Cookie{
		{Name: "ds_user_id", Value: "42", Domain: ".instagram.com", Path: "/", Expires: 1.9e9, Secure: true, SameSite: network.CookieSameSiteNone},
	})
	require.Len(t, got, 1)
	assert.Equal(t, Cookie{
		Name: "ds_user_id", Value: "42", Domain: ".instagram.com", Path: "/",
		Expires: 1.9e9, Secure: true, SameSite: "None",
	}, got[0])
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `"a\"b"`, jsString(`a"b`))
	assert.Equal(t, `"input[name=\"username\"]"`, jsString(`input[name="username"]`))
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(Options{}, nil)
	assert.Equal(t, 1280, m.opts.WindowWidth)
	assert.Equal(t, 900, m.opts.WindowHeight)
	assert.Equal(t, 5*time.Second, m.opts.ShutdownTimeout)
	assert.False(t, m.HasSnapshot())
}

// Runs only where a Chrome binary is installed.
func TestWithSession_Chrome(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if FindChrome("") == "" {
		t.Skip("chrome not available")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok":true,"hdr":"` + r.Header.Get("X-Test") + `"}`))
		default:
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok", Path: "/"})
			w.Write([]byte(`<html><body><input name="username"><a href="/accounts/edit/">edit</a></body></html>`))
		}
	}))
	defer srv.Close()

	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	m := NewManager(Options{Origin: srv.URL}, store)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	status, err := WithSession(ctx, m, true, func(ctx context.Context, s *Session) (int, error) {
		if err := s.Navigate(ctx, srv.URL+"/"); err != nil {
			return 0, err
		}
		n, err := s.Count(ctx, `a[href*="/accounts/edit/"]`)
		if err != nil {
			return 0, err
		}
		assert.Equal(t, 1, n)

		tok, err := s.Cookie(ctx, "csrftoken")
		if err != nil {
			return 0, err
		}
		assert.Equal(t, "tok", tok)

		status, body, err := s.Fetch(ctx, srv.URL+"/api", map[string]string{"X-Test": "yes"})
		if err != nil {
			return 0, err
		}
		assert.JSONEq(t, `{"ok":true,"hdr":"yes"}`, string(body))
		return status, s.CaptureSnapshot(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	snap, err := store.Load()
	require.NoError(t, err)
	_, ok := snap.Cookie("csrftoken")
	assert.True(t, ok)
}
