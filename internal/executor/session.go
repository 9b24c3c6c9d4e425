package executor

import (
	"sync"
	"time"
)

// Session is the working-directory state of one terminal. Commands that run
// against the same session are serialised.
type Session struct {
	ID string

	run sync.Mutex // held for the whole of one command

	mu       sync.RWMutex
	cwd      string
	lastUsed time.Time
}

// NewSession returns a session rooted at dir.
func NewSession(id, dir string) *Session {
	return &Session{ID: id, cwd: dir, lastUsed: time.Now()}
}

// Cwd returns the current working directory.
func (s *Session) Cwd() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cwd
}

func (s *Session) setCwd(dir string) {
	s.mu.Lock()
	s.cwd = dir
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastUsed)
}

// Registry hands out one Session per session ID. Sessions unused for longer
// than the idle TTL are dropped on the next lookup.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	startDir string
	idleTTL  time.Duration
}

// NewRegistry creates a registry whose new sessions start in startDir. A zero
// idleTTL keeps sessions forever.
func NewRegistry(startDir string, idleTTL time.Duration) *Registry {
	return &Registry{
		sessions: map[string]*Session{},
		startDir: startDir,
		idleTTL:  idleTTL,
	}
}

// Get returns the session for id, creating it on first use.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(time.Now())
	s, ok := r.sessions[id]
	if !ok {
		s = NewSession(id, r.startDir)
		r.sessions[id] = s
	}
	s.touch()
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sweepLocked(now time.Time) {
	if r.idleTTL <= 0 {
		return
	}
	for id, s := range r.sessions {
		if s.idleSince(now) > r.idleTTL {
			delete(r.sessions, id)
		}
	}
}
