// Package configsvc is the typed get/set service over the configurations
// table, with a short bounded TTL cache so every other component can read
// tunables cheaply at request time.
package configsvc

import (
	"database/sql"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/clock"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

// Service is the Configuration service (component B).
type Service struct {
	db    *sql.DB
	clk   clock.Clock
	ttl   time.Duration
	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value    string
	fetchedAt time.Time
}

// New returns a Service caching reads for up to ttl. ttl should be no
// longer than one supervisor tick, per the design contract.
func New(db *sql.DB, clk clock.Clock, ttl time.Duration) *Service {
	return &Service{db: db, clk: clk, ttl: ttl, cache: map[string]cacheEntry{}}
}

// Get returns the raw string value for key, or ("", false) if absent.
func (s *Service) Get(key string) (string, bool) {
	if v, ok := s.cachedValue(key); ok {
		return v, true
	}

	c, found, err := store.GetConfiguration(s.db, key)
	if err != nil || !found {
		return "", false
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{value: c.Value, fetchedAt: s.clk.Now()}
	s.mu.Unlock()
	return c.Value, true
}

func (s *Service) cachedValue(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok {
		return "", false
	}
	if s.clk.Now().Sub(entry.fetchedAt) > s.ttl {
		return "", false
	}
	return entry.value, true
}

// Exists reports whether key has a row, bypassing the parse step.
func (s *Service) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set is a full upsert on key: category and description are written as
// given, so empty strings replace whatever an existing row held.
func (s *Service) Set(key, value, category, description string) error {
	if err := store.UpsertConfiguration(s.db, model.Configuration{
		Key: key, Value: value, Category: category, Description: description,
	}); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}

// GetInt parses the value at key as base-10; returns (0, false) if the key
// is missing or unparseable.
func (s *Service) GetInt(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetIntDefault is GetInt with a caller-supplied fallback.
func (s *Service) GetIntDefault(key string, def int) int {
	if n, ok := s.GetInt(key); ok {
		return n
	}
	return def
}

// GetBool parses the value at key case-insensitively as true/false.
func (s *Service) GetBool(key string) (bool, bool) {
	v, ok := s.Get(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
	if err != nil {
		return false, false
	}
	return b, true
}

// GetBoolDefault is GetBool with a caller-supplied fallback.
func (s *Service) GetBoolDefault(key string, def bool) bool {
	if b, ok := s.GetBool(key); ok {
		return b
	}
	return def
}

// GetDurationSeconds parses the value at key as an integer count of
// seconds.
func (s *Service) GetDurationSeconds(key string) (time.Duration, bool) {
	n, ok := s.GetInt(key)
	if !ok {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// GetDurationSecondsDefault is GetDurationSeconds with a fallback.
func (s *Service) GetDurationSecondsDefault(key string, def time.Duration) time.Duration {
	if d, ok := s.GetDurationSeconds(key); ok {
		return d
	}
	return def
}

// GetString is an alias for Get kept for call-site symmetry with the other
// typed accessors.
func (s *Service) GetString(key string) (string, bool) {
	return s.Get(key)
}

// GetStringDefault is GetString with a fallback.
func (s *Service) GetStringDefault(key string, def string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}
