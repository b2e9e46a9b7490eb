// Package session holds the client's authenticated identity.
package session

import (
	"fmt"
	"sync"
)

const (
	KeyUserID = "enthub_user_id"
	KeyToken  = "enthub_token"
)

// Store is the client's identity. Construct one per process with New and pass
// it to whatever needs it.
type Store struct {
	storage Storage

	mu       sync.RWMutex
	userID   string
	token    string
	watchers map[int]func(userID string)
	nextID   int
}

// New loads the persisted identity from storage. An empty stored id counts as
// signed out.
func New(storage Storage) (*Store, error) {
	s := &Store{storage: storage, watchers: map[int]func(string){}}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset drops in-memory state and reloads it from storage.
func (s *Store) Reset() error {
	id, _, err := s.storage.Get(KeyUserID)
	if err != nil {
		return fmt.Errorf("load user id: %w", err)
	}
	tok, _, err := s.storage.Get(KeyToken)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	s.mu.Lock()
	s.userID = id
	s.token = tok
	s.mu.Unlock()
	return nil
}

// Login records userID and an optional bearer token and persists both.
func (s *Store) Login(userID, token string) error {
	if err := s.storage.Set(KeyUserID, userID); err != nil {
		return fmt.Errorf("persist user id: %w", err)
	}
	if token != "" {
		if err := s.storage.Set(KeyToken, token); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
	} else if err := s.storage.Remove(KeyToken); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	s.mu.Lock()
	s.userID = userID
	s.token = token
	s.mu.Unlock()
	s.notify(userID)
	return nil
}

// Logout clears the identity. Logging out while signed out is fine.
func (s *Store) Logout() error {
	if err := s.storage.Remove(KeyUserID); err != nil {
		return fmt.Errorf("remove user id: %w", err)
	}
	if err := s.storage.Remove(KeyToken); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	s.mu.Lock()
	s.userID = ""
	s.token = ""
	s.mu.Unlock()
	s.notify("")
	return nil
}

// UserID returns the current identity, or "" when signed out.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	return s.UserID() != ""
}

// Sync applies a change another process made to storage. Keys other than the
// identity keys are ignored. A nil value means the key was removed.
func (s *Store) Sync(key string, value *string) {
	v := ""
	if value != nil {
		v = *value
	}
	switch key {
	case KeyUserID:
		s.mu.Lock()
		changed := s.userID != v
		s.userID = v
		s.mu.Unlock()
		if changed {
			s.notify(v)
		}
	case KeyToken:
		s.mu.Lock()
		s.token = v
		s.mu.Unlock()
	}
}

// Watch registers fn to run whenever the identity changes. The returned func
// removes it.
func (s *Store) Watch(fn func(userID string)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(userID string) {
	s.mu.RLock()
	fns := make([]func(string), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(userID)
	}
}
