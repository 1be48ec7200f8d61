package controllers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arkapradana/arenahub/reward"
)

// watchSession tracks one in-flight rewarded ad watch. The engine goroutine
// polls IsClosed; the HTTP handlers flip the flags when the client reports
// window events. done is closed once the engine has produced an outcome.
type watchSession struct {
	ID        string
	UserID    uint
	CreatedAt time.Time

	closed  atomic.Bool
	blocked atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	outcome reward.Outcome
	final   bool
}

// IsClosed reports whether the client closed the ad window.
func (s *watchSession) IsClosed() bool {
	return s.closed.Load()
}

func (s *watchSession) finish(o reward.Outcome) {
	s.mu.Lock()
	if !s.final {
		s.outcome = o
		s.final = true
		close(s.done)
	}
	s.mu.Unlock()
}

func (s *watchSession) result() (reward.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.final
}

// sessionSurface binds one session to the engine's ad surface contract.
// A session started after the client failed to open the ad window yields a
// nil handle, which the engine reports as popup_blocked.
type sessionSurface struct {
	session *watchSession
	opened  bool
}

func (s *sessionSurface) Open(url string) reward.Handle {
	if !s.opened {
		return nil
	}
	return s.session
}

// sessionRegistry holds active watch sessions, at most one per user.
// Finished sessions linger briefly so a reconnecting client can still fetch
// the outcome, then the janitor sweeps them.
type sessionRegistry struct {
	mu     sync.Mutex
	byID   map[string]*watchSession
	byUser map[uint]string

	retention time.Duration
}

func newSessionRegistry(retention time.Duration) *sessionRegistry {
	return &sessionRegistry{
		byID:      make(map[string]*watchSession),
		byUser:    make(map[uint]string),
		retention: retention,
	}
}

// create registers a new session for the user. It fails when the user still
// has an unfinished session.
func (r *sessionRegistry) create(userID uint, cancel context.CancelFunc) (*watchSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byUser[userID]; ok {
		if prev := r.byID[id]; prev != nil {
			if _, finished := prev.result(); !finished {
				return nil, false
			}
		}
	}

	s := &watchSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.byID[s.ID] = s
	r.byUser[userID] = s.ID
	return s, true
}

// get returns the session only when it belongs to the given user.
func (r *sessionRegistry) get(id string, userID uint) (*watchSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.UserID != userID {
		return nil, false
	}
	return s, true
}

// sweep drops finished sessions past the retention window.
func (r *sessionRegistry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.byID {
		_, finished := s.result()
		if finished && now.Sub(s.CreatedAt) > r.retention {
			delete(r.byID, id)
			if r.byUser[s.UserID] == id {
				delete(r.byUser, s.UserID)
			}
		}
	}
}

// StartJanitor sweeps finished sessions in the background until ctx ends.
func (r *sessionRegistry) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.sweep(now)
			}
		}
	}()
}
