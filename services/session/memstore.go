package sessionsvc

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

type entry struct {
	values    map[interface{}]interface{}
	expiresAt time.Time
}

// MemStore is a server-side sessions.Store. The cookie only carries the signed session ID,
// so erasing the entry ends the session no matter who still holds the cookie.
type MemStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

var _ sessions.Store = (*MemStore)(nil)

func NewMemStore(maxAge time.Duration, secure bool, keyPairs ...[]byte) *MemStore {
	s := &MemStore{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(maxAge / time.Second),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		},
		data: make(map[string]entry),
		now:  time.Now,
	}
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(s.Options.MaxAge)
		}
	}
	return s
}

// Get returns the session cached in the request registry, loading it on first use.
func (s *MemStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the stored session named by the request cookie, or a fresh one.
// A missing, tampered or expired cookie yields a new session without error.
func (s *MemStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err = securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return session, nil
	}
	if values, ok := s.Load(id); ok {
		session.ID = id
		session.Values = values
		session.IsNew = false
	}
	return session, nil
}

// Save stores the session and writes its cookie. A negative MaxAge erases it.
func (s *MemStore) Save(_ *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			s.Erase(session.ID)
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	values := make(map[interface{}]interface{}, len(session.Values))
	for k, v := range session.Values {
		values[k] = v
	}
	s.mu.Lock()
	s.data[session.ID] = entry{
		values:    values,
		expiresAt: s.now().Add(time.Duration(session.Options.MaxAge) * time.Second),
	}
	s.mu.Unlock()

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Load returns a copy of the values of a live session.
func (s *MemStore) Load(id string) (map[interface{}]interface{}, bool) {
	s.mu.RLock()
	e, ok := s.data[id]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, false
	}
	values := make(map[interface{}]interface{}, len(e.values))
	for k, v := range e.values {
		values[k] = v
	}
	return values, true
}

// Erase ends the session. It takes effect before Erase returns.
func (s *MemStore) Erase(id string) {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
}

// Purge drops expired sessions and reports how many were dropped.
func (s *MemStore) Purge() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for id, e := range s.data {
		if !now.Before(e.expiresAt) {
			delete(s.data, id)
			n++
		}
	}
	return n
}

// RunJanitor purges expired sessions every interval until ctx is done.
func (s *MemStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Purge()
		}
	}
}
