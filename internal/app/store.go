package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"staymap/internal/viewport"
)

type SessionStore struct {
	svc  *QueryService
	opts []viewport.Option

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore(svc *QueryService, opts ...viewport.Option) *SessionStore {
	return &SessionStore{svc: svc, opts: opts, sessions: map[string]*Session{}}
}

func (st *SessionStore) Create() *Session {
	s := NewSession(st.svc, st.opts...)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if ok {
		s.touch()
	}
	return s, ok
}

func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops sessions not seen for longer than idle and returns how many
// were removed.
func (st *SessionStore) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	var stale []*Session

	st.mu.Lock()
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		log.Debug().Int("removed", len(stale)).Msg("idle sessions swept")
	}
	return len(stale)
}
