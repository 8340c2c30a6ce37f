// Package cache memoizes expensive generator calls on local disk so
// local iteration does not re-pay for the same generation. Keys are
// content-addressed from the call inputs; values are JSON blobs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Store is a directory of content-addressed JSON entries.
type Store struct {
	dir string
}

// Open creates the cache directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Key derives a stable cache key from the call inputs.
func Key(kind string, inputs ...string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, in := range inputs {
		h.Write([]byte{0})
		h.Write([]byte(in))
	}
	return kind + "_" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Get loads a cached value into out. The second return is false on a
// miss or an unreadable entry.
func (s *Store) Get(key string, out interface{}) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warnf("[cache] corrupt entry %s, treating as miss: %v", key, err)
		return false
	}
	return true
}

// Put stores a value. Cache writes are best effort; a failure is
// logged, never propagated.
func (s *Store) Put(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warnf("[cache] marshal %s: %v", key, err)
		return
	}
	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		log.Warnf("[cache] write %s: %v", key, err)
	}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Memoize wraps fn with a cache lookup under the given key.
func Memoize[T any](s *Store, key string, fn func() (T, error)) (T, error) {
	var cached T
	if s != nil && s.Get(key, &cached) {
		log.Debugf("[cache] hit: %s", key)
		return cached, nil
	}

	value, err := fn()
	if err != nil {
		return value, err
	}
	if s != nil {
		s.Put(key, value)
	}
	return value, nil
}
