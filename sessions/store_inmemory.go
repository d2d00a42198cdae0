package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// InMemoryStore is a thread-safe in-memory Store. Entries expire ttl after
// their last write and are swept periodically; a zero ttl keeps them until deleted.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]memoryEntry // namespace -> key -> entry
	ttl     time.Duration

	stop      chan struct{}
	closeOnce sync.Once
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory session store. With a ttl it
// starts a sweep that runs every ttl, at most once a minute; Close stops it.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	s := &InMemoryStore{
		entries: make(map[string]map[string]memoryEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	if ttl > 0 {
		go s.cleanupLoop(min(ttl, time.Minute))
	}
	return s
}

func (s *InMemoryStore) Get(_ context.Context, namespace, key string) (string, error) {
	if err := validateNamespace(namespace, key); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[namespace][key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return "", apperrors.ErrNotFound
	}
	return entry.value, nil
}

func (s *InMemoryStore) Set(_ context.Context, namespace, key, value string) error {
	if err := validateNamespace(namespace, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[namespace]; !ok {
		s.entries[namespace] = make(map[string]memoryEntry)
	}

	entry := memoryEntry{value: value}
	if s.ttl > 0 {
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	s.entries[namespace][key] = entry
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, namespace string, keys ...string) error {
	if namespace == "" {
		return fmt.Errorf("namespace is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nsEntries, ok := s.entries[namespace]
	if !ok {
		return nil // Already doesn't exist, no error
	}
	for _, key := range keys {
		delete(nsEntries, key)
	}

	// Clean up empty namespace map
	if len(nsEntries) == 0 {
		delete(s.entries, namespace)
	}
	return nil
}

func (s *InMemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]map[string]memoryEntry)
	return nil
}

// Len reports how many namespaces hold at least one entry.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// cleanup removes expired entries and empty namespaces.
func (s *InMemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for namespace, nsEntries := range s.entries {
		for key, entry := range nsEntries {
			if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
				delete(nsEntries, key)
			}
		}
		if len(nsEntries) == 0 {
			delete(s.entries, namespace)
		}
	}
}

func (s *InMemoryStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func validateNamespace(namespace, key string) error {
	if namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	return nil
}
