package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/law-makers/igfetch/pkg/models"
)

// Path returns <dataDir>/<key>/<kind>/<unixMillis>.json
func Path(dataDir, key string, kind models.DataKind, at time.Time) string {
	name := strconv.FormatInt(at.UnixMilli(), 10) + ".json"
	return filepath.Join(dataDir, SafeKey(key), string(kind), name)
}

// SafeKey turns a handle or post reference into a single path element
func SafeKey(key string) string {
	key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "@"))
	key = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '?', '*', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, key)
	if key == "" || key == "." || key == ".." {
		return "_"
	}
	return key
}

// SaveJSON writes an indented JSON export of v and returns the file path
func SaveJSON(dataDir, key string, kind models.DataKind, v any) (string, error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", kind, err)
	}

	path := Path(dataDir, key, kind, time.Now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, append(content, '\n'), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteJSON prints an indented JSON export of v to w
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
