// Package kvstore persists JSON values by key in the data directory.
package kvstore

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"

	"notekeeper/internal/apperr"
	"notekeeper/internal/storage"
)

// Well-known keys.
const (
	KeyNotes = "notes"
	KeyUser  = "user"
	KeyToken = "jwt_token"
)

// TaskStatsKey is the per-user task statistics key.
func TaskStatsKey(email string) string {
	return "task_stats:" + strings.ToLower(email)
}

const dir = "kv"

// Store keeps one file per key under kv/. It is safe for concurrent use.
type Store struct {
	fs *storage.FileSystem
	mu sync.RWMutex
}

func New(fs *storage.FileSystem) *Store {
	return &Store{fs: fs}
}

func fileName(key string) string {
	return dir + "/" + url.QueryEscape(key) + ".json"
}

// Get decodes the value of key into v. A missing key yields apperr.ErrNotFound.
func (s *Store) Get(key string, v any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := s.fs.ReadFile(fileName(key))
	if os.IsNotExist(err) {
		return apperr.NotFound("key", key)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) Set(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.WriteFile(fileName(key), b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is a no-op.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fs.Remove(fileName(key))
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
