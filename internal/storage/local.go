package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalPrefix is the URL path local files are served under.
const LocalPrefix = "/uploads/"

// LocalStore writes files below a directory. Used when no bucket is configured.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(ctx context.Context, key, _ string, body []byte) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Object{}, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return Object{}, fmt.Errorf("write upload: %w", err)
	}

	return Object{URL: s.baseURL + LocalPrefix + key, Key: key}, nil
}
