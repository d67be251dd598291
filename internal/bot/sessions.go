package bot

import (
	"sync"
	"time"
)

// SessionStore is the in-memory map of applicants mid-conversation.
// Sessions live until a decision is dispatched, the applicant cancels, or
// the TTL sweeper evicts an abandoned flow.
//
// Lock order: store lock before session lock. Callers holding a session
// lock must release it before calling back into the store.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
	}
}

func (s *SessionStore) Get(applicantID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[applicantID]

	return session, ok
}

func (s *SessionStore) GetOrCreate(applicantID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[applicantID]; ok {
		return session
	}

	session := &Session{
		ApplicantID: applicantID,
		Step:        StepAwaitName,
		UpdatedAt:   time.Now(),
	}
	s.sessions[applicantID] = session

	return session
}

// Reset starts a fresh flow for the applicant, keeping the pending join
// request chat if one was already observed.
func (s *SessionStore) Reset(applicantID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := &Session{
		ApplicantID: applicantID,
		Step:        StepAwaitName,
		UpdatedAt:   time.Now(),
	}
	if old, ok := s.sessions[applicantID]; ok {
		old.mu.Lock()
		session.GroupChatID = old.GroupChatID
		old.mu.Unlock()
	}
	s.sessions[applicantID] = session

	return session
}

func (s *SessionStore) Delete(applicantID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, applicantID)
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed. Abandoned flows hold nothing but this map entry.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, session := range s.sessions {
		session.mu.Lock()
		idle := now.Sub(session.UpdatedAt) > s.ttl
		session.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted++
		}
	}

	return evicted
}
