package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Cookies: []Cookie{
			{Name: "sessionid", Value: "abc", Domain: ".instagram.com", Path: "/", Expires: 1900000000, HTTPOnly: true, Secure: true, SameSite: "Lax"},
			{Name: "csrftoken", Value: "tok", Domain: ".instagram.com", Path: "/", Expires: 1800000000, Secure: true},
			{Name: "ig_nrcb", Value: "1", Domain: ".instagram.com", Path: "/", Expires: -1},
		},
		Origins: []OriginState{
			{Origin: "https://www.instagram.com", LocalStorage: []StorageEntry{{Name: "k", Value: "v"}}},
		},
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage-state.json")
	fs := NewFileStore(path)

	assert.False(t, fs.Exists())
	_, err := fs.Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, fs.Save(sampleSnapshot()))
	assert.True(t, fs.Exists())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_SaveReplaces(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, fs.Save(sampleSnapshot()))
	require.NoError(t, fs.Save(&Snapshot{Cookies: []Cookie{{Name: "only"}}}))

	got, err := fs.Load()
	require.NoError(t, err)
	require.Len(t, got.Cookies, 1)
	assert.Equal(t, "only", got.Cookies[0].Name)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}

func TestFileStore_Delete(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, fs.Delete())

	require.NoError(t, fs.Save(sampleSnapshot()))
	require.NoError(t, fs.Delete())
	assert.False(t, fs.Exists())
}

func TestKeyringStore_RoundTrip(t *testing.T) {
	keyring.MockInit()
	ks := NewKeyringStore(KeyringService, KeyringAccount)

	assert.False(t, ks.Exists())
	_, err := ks.Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, ks.Save(sampleSnapshot()))
	assert.True(t, ks.Exists())

	got, err := ks.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)

	require.NoError(t, ks.Delete())
	assert.False(t, ks.Exists())
	require.NoError(t, ks.Delete())
	assert.Equal(t, "keyring:igfetch/storage-state", ks.Location())
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("", "x.json")
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = NewStore(StoreKeyring, "")
	require.NoError(t, err)
	assert.IsType(t, &KeyringStore{}, s)

	_, err = NewStore("s3", "")
	assert.Error(t, err)
}

func TestSnapshot_Accessors(t *testing.T) {
	snap := sampleSnapshot()

	c, ok := snap.Cookie("csrftoken")
	require.True(t, ok)
	assert.Equal(t, "tok", c.Value)
	_, ok = snap.Cookie("missing")
	assert.False(t, ok)

	assert.Len(t, snap.LocalStorage("https://www.instagram.com"), 1)
	assert.Nil(t, snap.LocalStorage("https://example.com"))

	earliest, latest := snap.ExpiryRange()
	assert.Equal(t, time.Unix(1800000000, 0), earliest)
	assert.Equal(t, time.Unix(1900000000, 0), latest)

	earliest, latest = (&Snapshot{}).ExpiryRange()
	assert.True(t, earliest.IsZero())
	assert.True(t, latest.IsZero())
}
