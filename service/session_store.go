package service

import (
	"time"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const DefaultSessionTTL = 2 * time.Hour

// SessionStore keeps conversation states in memory. Idle sessions expire
// after the configured TTL.
type SessionStore struct {
	sessions *cache.Cache
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: cache.New(ttl, 2*ttl),
	}
}

// Create registers a fresh session and returns its id.
func (s *SessionStore) Create() (string, *dto.ConversationState) {
	id := uuid.New().String()
	st := dto.NewConversationState()
	s.sessions.Set(id, st, cache.DefaultExpiration)
	return id, st
}

func (s *SessionStore) Get(id string) (*dto.ConversationState, error) {
	v, found := s.sessions.Get(id)
	if !found {
		return nil, dto.ErrSessionNotFound
	}
	st, ok := v.(*dto.ConversationState)
	if !ok {
		return nil, dto.ErrSessionNotFound
	}
	return st, nil
}

// Save stores st under id and restarts its expiry.
func (s *SessionStore) Save(id string, st *dto.ConversationState) {
	s.sessions.Set(id, st, cache.DefaultExpiration)
}

func (s *SessionStore) Delete(id string) error {
	if _, found := s.sessions.Get(id); !found {
		return dto.ErrSessionNotFound
	}
	s.sessions.Delete(id)
	return nil
}

func (s *SessionStore) Count() int {
	return s.sessions.ItemCount()
}
