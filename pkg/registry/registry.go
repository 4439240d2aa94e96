// Package registry maps integer session identifiers to playback sessions.
//
// One mutex serializes every call across all sessions, so a session's cursors
// are never observed or mutated concurrently. Long operations block every
// other caller until they finish.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/user/framescope/pkg/metrics"
	"github.com/user/framescope/pkg/playback"
	"github.com/user/framescope/pkg/ports"
)

// Registry owns open sessions.
type Registry struct {
	mu       sync.Mutex
	deps     playback.Dependencies
	logger   ports.Logger
	nextID   int
	sessions map[int]*playback.Session
}

// New creates an empty registry whose sessions use deps.
func New(deps playback.Dependencies) *Registry {
	return &Registry{
		deps:     deps,
		logger:   deps.Logger.WithComponent("registry"),
		sessions: make(map[int]*playback.Session),
	}
}

// Open opens path and registers the session. Identifiers start at 0 and are never reused.
func (r *Registry) Open(path string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := playback.Open(path, r.deps)
	if err != nil {
		return -1, err
	}
	id := r.nextID
	r.nextID++
	r.sessions[id] = s
	metrics.SessionsOpen.Inc()
	metrics.SessionsOpenedTotal.Inc()
	r.logger.Debug("Registered session %d for %s", id, path)
	return id, nil
}

// Close closes and removes the session.
func (r *Registry) Close(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %d", playback.ErrUnknownSession, id)
	}
	delete(r.sessions, id)
	metrics.SessionsOpen.Dec()
	r.logger.Debug("Removed session %d", id)
	return s.Close()
}

// Do runs fn against the session while holding the registry lock.
func (r *Registry) Do(id int, fn func(*playback.Session) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %d", playback.ErrUnknownSession, id)
	}
	return fn(s)
}

// IDs returns the registered identifiers in ascending order.
func (r *Registry) IDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CloseAll closes every session and returns the joined errors.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for id, s := range r.sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %d: %w", id, err))
		}
		delete(r.sessions, id)
		metrics.SessionsOpen.Dec()
	}
	return errors.Join(errs...)
}
