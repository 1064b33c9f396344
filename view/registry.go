package view

import (
	"time"

	"github.com/projecteru2/logview/common"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

// Registry holds sessions of HTTP viewers, idle ones expire after ttl
type Registry struct {
	ttl      time.Duration
	sessions *cache.Cache
}

// NewRegistry .
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = common.DefaultSessionTTL
	}
	r := &Registry{
		ttl:      ttl,
		sessions: cache.New(ttl, ttl),
	}
	r.sessions.OnEvicted(func(ID string, _ interface{}) {
		log.Debugf("[Registry] session %s detached", ID)
	})
	return r
}

// Attach creates a session
func (r *Registry) Attach() (string, *Session) {
	ID := uuid.NewString()
	session := NewSession()
	r.sessions.Set(ID, session, r.ttl)
	log.Debugf("[Registry] session %s attached", ID)
	return ID, session
}

// Get returns the session and refreshes its ttl
func (r *Registry) Get(ID string) (*Session, error) {
	v, ok := r.sessions.Get(ID)
	if !ok {
		return nil, common.ErrSessionNotFound
	}
	session := v.(*Session)
	r.sessions.Set(ID, session, r.ttl)
	return session, nil
}

// Detach drops the session
func (r *Registry) Detach(ID string) {
	r.sessions.Delete(ID)
}

// Count .
func (r *Registry) Count() int {
	return r.sessions.ItemCount()
}
