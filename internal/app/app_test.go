package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/igfetch/internal/config"
	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/law-makers/igfetch/internal/instagram"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	dir := t.TempDir()
	cfg.StatePath = filepath.Join(dir, "state.json")
	cfg.DataDir = filepath.Join(dir, "data")
	return cfg
}

func TestNew(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, app.Sessions)
	assert.NotNil(t, app.Limiter)
	assert.False(t, app.Sessions.HasSnapshot())
	assert.NoError(t, app.Close(context.Background()))
	assert.Greater(t, app.Uptime(), time.Duration(0))
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestNew_BadStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.StateStore = "s3"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, levelFor("debug"))
	assert.Equal(t, zerolog.WarnLevel, levelFor("warn"))
	assert.Equal(t, zerolog.ErrorLevel, levelFor("info"))
	assert.Equal(t, zerolog.ErrorLevel, levelFor(""))
}

func TestEmit_Save(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)

	path, err := app.Emit("@alice", models.KindProfile, &models.Profile{ID: "1", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(app.Config.DataDir, "alice", "profile"), filepath.Dir(path))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestEmit_Stdout(t *testing.T) {
	cfg := testConfig(t)
	cfg.Stdout = true
	app, err := New(context.Background(), cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	app.Stdout = &buf

	path, err := app.Emit("alice", models.KindFollowers, models.NewScrapeResult([]models.UserSummary{{ID: "1", Username: "a"}}))
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Contains(t, buf.String(), `"total": 1`)

	_, err = os.Stat(cfg.DataDir)
	assert.True(t, os.IsNotExist(err))
}

func TestInvalidInputFailsBeforeBrowser(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = app.Profile(ctx, "  @ ")
	assert.ErrorIs(t, err, igerr.ErrUnresolvable)

	_, err = app.Connections(ctx, models.Followers, "a/b", nil)
	assert.ErrorIs(t, err, igerr.ErrUnresolvable)

	_, err = app.PostLikers(ctx, "not a post!", nil)
	assert.ErrorIs(t, err, igerr.ErrUnresolvable)
}

func TestNormalizeHandle(t *testing.T) {
	h, err := normalizeHandle(" @alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", h)
}

func TestLikersResult(t *testing.T) {
	r := likersResult(&instagram.Likers{
		Items:      []models.UserSummary{{ID: "1"}, {ID: "2"}},
		TotalLikes: 40,
	})
	assert.Equal(t, 2, r.Total)
	assert.Equal(t, 2, r.Available)
	assert.Equal(t, 40, r.TotalLikes)

	empty := likersResult(&instagram.Likers{})
	assert.NotNil(t, empty.Items)
	assert.Zero(t, empty.Total)
}

func TestRetryConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retries = 2
	cfg.Pagination.BaseDelay = 3 * time.Second
	app, err := New(context.Background(), cfg)
	require.NoError(t, err)

	rc := app.retryConfig()
	assert.Equal(t, 2, rc.Retries)
	assert.Equal(t, 3*time.Second, rc.InitialBackoff)
	require.NotNil(t, rc.Policy)
	assert.Equal(t, cfg.Pagination.SpikeProbability, rc.Policy.SpikeProbability())
}
