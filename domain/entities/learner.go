package entities

import (
	"errors"
	"time"
)

// Learner is the minimal per-user record kept alongside sessions: the chat
// identifier (phone number) and when they first started practicing.
type Learner struct {
	PhoneNumber string    `json:"phone_number" bson:"phone_number"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// NewLearner creates a learner record for a phone number.
func NewLearner(phoneNumber string) *Learner {
	return &Learner{
		PhoneNumber: phoneNumber,
		CreatedAt:   time.Now(),
	}
}

// Validate validates the learner data.
func (l *Learner) Validate() error {
	if l.PhoneNumber == "" {
		return errors.New("phone_number is required")
	}
	return nil
}
