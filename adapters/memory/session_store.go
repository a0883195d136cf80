package memory

import (
	"context"
	"sync"

	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/domain/repositories"
)

// SessionStore is an in-memory implementation of SessionStore. Sessions
// live for the process lifetime; a reset reinitializes them in place.
// Each user has their own lock, so concurrent events for the same user are
// serialized while unrelated users never contend.
type SessionStore struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session entities.Session
}

// Ensure SessionStore implements the SessionStore interface
var _ repositories.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new in-memory session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		entries: make(map[string]*sessionEntry),
	}
}

// GetOrCreate implements repositories.SessionStore
func (s *SessionStore) GetOrCreate(ctx context.Context, userID string) (*entities.Session, error) {
	entry := s.entry(userID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.session
	return &session, nil
}

// Update implements repositories.SessionStore
func (s *SessionStore) Update(ctx context.Context, userID string, fn func(*entities.Session) error) (*entities.Session, error) {
	entry := s.entry(userID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.session
	if err := fn(&session); err != nil {
		return nil, err
	}
	entry.session = session

	out := session
	return &out, nil
}

// entry returns the per-user slot, creating it on first contact.
func (s *SessionStore) entry(userID string) *sessionEntry {
	s.mu.RLock()
	entry, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[userID]; ok {
		return entry
	}
	entry = &sessionEntry{session: *entities.NewSession(userID)}
	s.entries[userID] = entry
	return entry
}

// LearnerRepository is an in-memory implementation of LearnerRepository.
type LearnerRepository struct {
	mu       sync.RWMutex
	learners map[string]entities.Learner
}

// Ensure LearnerRepository implements the LearnerRepository interface
var _ repositories.LearnerRepository = (*LearnerRepository)(nil)

// NewLearnerRepository creates a new in-memory learner repository
func NewLearnerRepository() *LearnerRepository {
	return &LearnerRepository{
		learners: make(map[string]entities.Learner),
	}
}

// Upsert implements repositories.LearnerRepository
func (r *LearnerRepository) Upsert(ctx context.Context, learner *entities.Learner) error {
	if err := learner.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.learners[learner.PhoneNumber]; !exists {
		r.learners[learner.PhoneNumber] = *learner
	}
	return nil
}

// GetByPhoneNumber implements repositories.LearnerRepository
func (r *LearnerRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*entities.Learner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	learner, ok := r.learners[phoneNumber]
	if !ok {
		return nil, nil
	}
	out := learner
	return &out, nil
}
