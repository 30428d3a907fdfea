package claims

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultSessionTTL is how long an idle session survives before it is
// destroyed along with its uploaded images.
const DefaultSessionTTL = 2 * time.Hour

// Store defines the interface for live session state
type Store interface {
	// Get retrieves a session by ID
	Get(id string) (*Session, bool)

	// Put stores a session and refreshes its expiry
	Put(session *Session)

	// Delete removes a session
	Delete(id string)
}

// SessionStore keeps live sessions in an in-memory TTL cache. Sessions hold
// raw image bytes, so expiry doubles as cleanup of abandoned uploads.
type SessionStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewSessionStore creates a new SessionStore with the given idle TTL
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		cache: gocache.New(ttl, ttl/2),
		ttl:   ttl,
	}
}

// Get retrieves a session by ID
func (s *SessionStore) Get(id string) (*Session, bool) {
	if val, found := s.cache.Get(id); found {
		return val.(*Session), true
	}
	return nil, false
}

// Put stores a session and refreshes its expiry
func (s *SessionStore) Put(session *Session) {
	s.cache.Set(session.ID, session, s.ttl)
}

// Delete removes a session
func (s *SessionStore) Delete(id string) {
	s.cache.Delete(id)
}
