package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "igfetch"
	// KeyringAccount is the single entry holding the snapshot
	KeyringAccount = "storage-state"

	StoreFile    = "file"
	StoreKeyring = "keyring"
)

// ErrNoSnapshot is returned by Load when nothing has been persisted
var ErrNoSnapshot = errors.New("no session snapshot")

// Cookie is a browser cookie in storage-state form
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// StorageEntry is one localStorage item
type StorageEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OriginState holds localStorage for one origin
type OriginState struct {
	Origin       string         `json:"origin"`
	LocalStorage []StorageEntry `json:"localStorage"`
}

// Snapshot is the persisted authenticated state of a browsing context
type Snapshot struct {
	Cookies []Cookie      `json:"cookies"`
	Origins []OriginState `json:"origins"`
}

// Cookie returns the named cookie if present
func (s *Snapshot) Cookie(name string) (Cookie, bool) {
	for _, c := range s.Cookies {
		if c.Name == name {
			return c, true
		}
	}
	return Cookie{}, false
}

// LocalStorage returns the entries stored for origin
func (s *Snapshot) LocalStorage(origin string) []StorageEntry {
	for _, o := range s.Origins {
		if o.Origin == origin {
			return o.LocalStorage
		}
	}
	return nil
}

// ExpiryRange returns the earliest and latest expiry among persistent cookies.
// Both are zero if every cookie is session-scoped.
func (s *Snapshot) ExpiryRange() (earliest, latest time.Time) {
	for _, c := range s.Cookies {
		if c.Expires <= 0 {
			continue
		}
		t := time.Unix(int64(c.Expires), 0)
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
		if t.After(latest) {
			latest = t
		}
	}
	return earliest, latest
}

// Store persists a single snapshot
type Store interface {
	Load() (*Snapshot, error)
	Save(snap *Snapshot) error
	Exists() bool
	Delete() error
	// Location describes where the snapshot lives, for display
	Location() string
}

// NewStore returns the store named by kind
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", StoreFile:
		return NewFileStore(path), nil
	case StoreKeyring:
		return NewKeyringStore(KeyringService, KeyringAccount), nil
	default:
		return nil, fmt.Errorf("unknown snapshot store %q", kind)
	}
}

// FileStore keeps the snapshot as a JSON file at a fixed path
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Location returns the file path
func (fs *FileStore) Location() string {
	return fs.path
}

// Exists reports whether the snapshot file is present
func (fs *FileStore) Exists() bool {
	info, err := os.Stat(fs.path)
	return err == nil && !info.IsDir()
}

// Load reads and decodes the snapshot file
func (fs *FileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decodeSnapshot(data)
}

// Save writes the snapshot through a temp file and rename so readers never
// observe a partial document.
func (fs *FileStore) Save(snap *Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".storage-state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to chmod snapshot: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot file
func (fs *FileStore) Delete() error {
	err := os.Remove(fs.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// KeyringStore keeps the snapshot in the OS keyring
type KeyringStore struct {
	service string
	account string
}

// NewKeyringStore creates a KeyringStore
func NewKeyringStore(service, account string) *KeyringStore {
	return &KeyringStore{service: service, account: account}
}

// Location returns a descriptive keyring address
func (ks *KeyringStore) Location() string {
	return "keyring:" + ks.service + "/" + ks.account
}

// Exists reports whether the keyring entry is present
func (ks *KeyringStore) Exists() bool {
	_, err := keyring.Get(ks.service, ks.account)
	return err == nil
}

// Load reads the snapshot from the keyring
func (ks *KeyringStore) Load() (*Snapshot, error) {
	data, err := keyring.Get(ks.service, ks.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to load from keyring: %w", err)
	}
	return decodeSnapshot([]byte(data))
}

// Save replaces the keyring entry in a single call
func (ks *KeyringStore) Save(snap *Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := keyring.Set(ks.service, ks.account, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// Delete removes the keyring entry
func (ks *KeyringStore) Delete() error {
	err := keyring.Delete(ks.service, ks.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

func encodeSnapshot(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}
	return &snap, nil
}
