package entities

import (
	"errors"
	"time"
)

// SessionState is the derived position of a session in the tutoring flow.
type SessionState string

const (
	// SessionStateIdle means the learner has not started practicing yet.
	SessionStateIdle SessionState = "idle"
	// SessionStateActive means a phrase prompt was sent and a voice note is
	// expected.
	SessionStateActive SessionState = "active"
	// SessionStateComplete means the learner passed the last phrase.
	SessionStateComplete SessionState = "complete"
)

// Session tracks one learner's progress through the curriculum. It is keyed
// by the chat user identifier (phone number) and mutated only under the
// session store's per-key lock.
type Session struct {
	UserID             string    `json:"user_id" bson:"user_id"`
	CurrentIndex       int       `json:"current_index" bson:"current_index"`
	AwaitingSubmission bool      `json:"awaiting_submission" bson:"awaiting_submission"`
	LastAttemptID      string    `json:"last_attempt_id,omitempty" bson:"last_attempt_id,omitempty"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}

// NewSession creates the initial session for a user: index 0, not awaiting.
func NewSession(userID string) *Session {
	now := time.Now()
	return &Session{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Restart reinitializes the session in place. Used by the start and reset
// commands; the session record itself is never destroyed.
func (s *Session) Restart() {
	s.CurrentIndex = 0
	s.AwaitingSubmission = false
	s.touch()
}

// Advance moves to the next phrase after a successful analysis. Within
// curriculum bounds the session stays active and expects the next voice
// note; past the end it completes.
func (s *Session) Advance(curriculumLen int) {
	s.CurrentIndex++
	s.AwaitingSubmission = s.CurrentIndex < curriculumLen
	s.touch()
}

// Expect marks the session as awaiting (or not awaiting) a voice note.
func (s *Session) Expect(awaiting bool) {
	s.AwaitingSubmission = awaiting
	s.touch()
}

// State derives the state machine position for the given curriculum length.
func (s *Session) State(curriculumLen int) SessionState {
	switch {
	case s.CurrentIndex >= curriculumLen:
		return SessionStateComplete
	case s.AwaitingSubmission:
		return SessionStateActive
	default:
		return SessionStateIdle
	}
}

// Validate validates the session data.
func (s *Session) Validate() error {
	if s.UserID == "" {
		return errors.New("user_id is required")
	}
	if s.CurrentIndex < 0 {
		return errors.New("current_index must not be negative")
	}
	return nil
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
