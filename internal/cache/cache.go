package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value      any
	computedAt time.Time
}

// Store holds named cached values together with the time they were computed.
// Concurrent misses on one name share a single computation; other names are
// not blocked while it runs.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	gen     uint64
	group   singleflight.Group
	now     func() time.Time
}

// NewStore creates an empty cache store
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Clear drops every cached value. Computations already running when Clear is
// called do not store their result.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
	s.gen++
}

// ComputedAt returns when the named value was last computed
func (s *Store) ComputedAt(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	return e.computedAt, ok
}

// Get returns the named value if it is younger than ttl, otherwise it calls
// compute and stores the result. Errors are returned without being cached.
func Get[T any](s *Store, name string, ttl time.Duration, compute func() (T, error)) (T, error) {
	if v, ok := lookup[T](s, name, ttl); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		if v, ok := lookup[T](s, name, ttl); ok {
			return v, nil
		}

		s.mu.Lock()
		gen, startedAt := s.gen, s.now()
		s.mu.Unlock()

		v, err := compute()
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.gen == gen {
			s.entries[name] = entry{value: v, computedAt: startedAt}
		}
		s.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

func lookup[T any](s *Store, name string, ttl time.Duration) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok && s.now().Sub(e.computedAt) < ttl {
		if v, ok := e.value.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
