package wizard

import "sync"

// SessionStore holds at most one draft per user. All methods are safe for
// concurrent use; no I/O ever happens while the lock is held, so every
// operation completes in bounded time.
type SessionStore struct {
	mu     sync.Mutex
	drafts map[int64]*Draft
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{drafts: make(map[int64]*Draft)}
}

// Begin creates a fresh draft for the user. It fails with ErrAlreadyBuilding
// when a draft already exists; the existing draft is left untouched.
func (s *SessionStore) Begin(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[userID]; ok {
		return ErrAlreadyBuilding
	}
	s.drafts[userID] = newDraft()
	return nil
}

// Active reports whether the user has a draft in progress.
func (s *SessionStore) Active(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.drafts[userID]
	return ok
}

// Update applies fn to the user's draft under the lock. It reports whether a
// draft existed. fn must not block or perform I/O.
func (s *SessionStore) Update(userID int64, fn func(*Draft)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[userID]
	if !ok {
		return false
	}
	fn(d)
	return true
}

// Snapshot returns an independent copy of the user's draft, or false when no
// draft exists. Mutating the copy does not affect the stored draft.
func (s *SessionStore) Snapshot(userID int64) (*Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[userID]
	if !ok {
		return nil, false
	}
	return d.clone(), true
}

// Cancel discards the user's draft. Cancelling an absent draft is a no-op.
func (s *SessionStore) Cancel(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
}

// Finish removes and returns the user's draft in one step, so the completed
// state cannot be observed or mutated by a concurrent event.
func (s *SessionStore) Finish(userID int64) (*Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[userID]
	if !ok {
		return nil, false
	}
	delete(s.drafts, userID)
	return d, true
}

// Len returns the number of drafts currently in progress.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}
