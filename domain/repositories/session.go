package repositories

import (
	"context"

	"github.com/twokeyapp/lahja/domain/entities"
)

// SessionStore provides per-user session state behind a capability
// interface so the backend can be swapped without touching the state
// machine. Update runs fn under per-key mutual exclusion: two concurrent
// events for the same user can never interleave index increments or
// awaiting-flag changes, while unrelated users are never serialized
// against each other.
type SessionStore interface {
	// GetOrCreate returns a copy of the user's session, creating the
	// initial one on first contact.
	GetOrCreate(ctx context.Context, userID string) (*entities.Session, error)
	// Update applies fn to the user's session under its key lock and
	// persists the outcome. Returns the session after mutation.
	Update(ctx context.Context, userID string, fn func(*entities.Session) error) (*entities.Session, error)
}

// LearnerRepository keeps the minimal per-learner record.
type LearnerRepository interface {
	Upsert(ctx context.Context, learner *entities.Learner) error
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*entities.Learner, error)
}
