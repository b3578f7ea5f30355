package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/biaslens/internal/application"
)

// ErrSessionNotFound is returned for unknown, expired or closed sessions.
var ErrSessionNotFound = errors.New("session not found")

// Factory builds a controller for a new session id.
type Factory func(id string) *Controller

// Registry keeps the sessions of the HTTP front end in memory.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
	factory  Factory
	ttl      time.Duration
	clock    application.Clock
}

// NewRegistry creates a registry; ttl <= 0 disables expiry.
func NewRegistry(factory Factory, ttl time.Duration, clock application.Clock) *Registry {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Registry{
		sessions: make(map[string]*Controller),
		factory:  factory,
		ttl:      ttl,
		clock:    clock,
	}
}

// Create builds a controller under a fresh UUID and registers it.
func (r *Registry) Create() *Controller {
	id := uuid.NewString()
	c := r.factory(id)
	r.mu.Lock()
	r.sessions[id] = c
	r.mu.Unlock()
	log.Printf("session created id=%s", id)
	return c
}

// Get returns the controller for id, or ErrSessionNotFound.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	c, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many went.
// A session with a request in flight is never dropped.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.clock.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []string
	for id, c := range r.sessions {
		if c.expire(cutoff) {
			expired = append(expired, id)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, id := range expired {
		log.Printf("session expired id=%s", id)
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close releases every session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.sessions {
		c.Close()
		delete(r.sessions, id)
	}
}
