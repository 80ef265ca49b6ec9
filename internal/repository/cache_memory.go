package repository

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
	hasTTL    bool
}

func (e cacheEntry) expired() bool {
	return e.hasTTL && time.Now().After(e.expiresAt)
}

type memoryCacheStore struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewMemoryCacheStore() CacheStore {
	return &memoryCacheStore{
		entries: make(map[string]cacheEntry),
	}
}

func (s *memoryCacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.hasTTL = true
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

func (s *memoryCacheStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || entry.expired() {
		if ok && entry.expired() {
			s.mu.Lock()
			delete(s.entries, key)
			s.mu.Unlock()
		}
		return nil, nil
	}
	return entry.value, nil
}

func (s *memoryCacheStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
