// Package session keeps small per-visitor key/value state between requests.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Well-known keys.
const (
	KeyLastMessage = "msg"
	KeyTimeZone    = "TimeZone"
	KeyCSRF        = "csrf"
)

// ErrNotFound is returned by a Store when the id has no live session.
var ErrNotFound = errors.New("session not found")

// Store persists session values keyed by session id.
type Store interface {
	Load(ctx context.Context, id string) (map[string]string, error)
	Save(ctx context.Context, id string, values map[string]string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Session is the state of one visitor for the duration of a request.
type Session struct {
	ID string

	mu      sync.RWMutex
	values  map[string]string
	dirty   bool
	cleared bool
}

// New returns an empty session with the given id.
func New(id string) *Session {
	return &Session{ID: id, values: map[string]string{}}
}

// FromValues wraps previously stored values.
func FromValues(id string, values map[string]string) *Session {
	if values == nil {
		values = map[string]string{}
	}
	return &Session{ID: id, values: values}
}

func (s *Session) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.values[key]; ok && cur == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Clear drops every value; the store entry is removed when the request ends.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
	s.cleared = true
	s.dirty = true
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Cleared reports whether Clear was called.
func (s *Session) Cleared() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cleared
}

// Values returns a copy of the stored values.
func (s *Session) Values() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
