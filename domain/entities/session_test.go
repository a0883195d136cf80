package entities

import (
	"testing"
)

func TestSessionCreation(t *testing.T) {
	userID := "972501234567"
	session := NewSession(userID)

	if session.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, session.UserID)
	}
	if session.CurrentIndex != 0 {
		t.Errorf("Expected index 0, got %d", session.CurrentIndex)
	}
	if session.AwaitingSubmission {
		t.Error("New session should not await a submission")
	}
	if session.State(4) != SessionStateIdle {
		t.Errorf("Expected idle state, got %s", session.State(4))
	}
}

func TestSessionRestart(t *testing.T) {
	session := NewSession("user-1")
	session.CurrentIndex = 3
	session.AwaitingSubmission = true

	session.Restart()
	session.Expect(true)

	if session.CurrentIndex != 0 {
		t.Errorf("Expected index 0 after restart, got %d", session.CurrentIndex)
	}
	if !session.AwaitingSubmission {
		t.Error("Restarted session should await a submission")
	}
	if session.State(4) != SessionStateActive {
		t.Errorf("Expected active state after restart, got %s", session.State(4))
	}
}

func TestSessionAdvance(t *testing.T) {
	const curriculumLen = 2

	session := NewSession("user-1")
	session.Expect(true)

	session.Advance(curriculumLen)
	if session.CurrentIndex != 1 {
		t.Errorf("Expected index 1, got %d", session.CurrentIndex)
	}
	if !session.AwaitingSubmission {
		t.Error("Session should still await the next phrase")
	}
	if session.State(curriculumLen) != SessionStateActive {
		t.Errorf("Expected active state, got %s", session.State(curriculumLen))
	}

	// Passing the last phrase completes the run.
	session.Advance(curriculumLen)
	if session.CurrentIndex != 2 {
		t.Errorf("Expected index 2, got %d", session.CurrentIndex)
	}
	if session.AwaitingSubmission {
		t.Error("Completed session should not await a submission")
	}
	if session.State(curriculumLen) != SessionStateComplete {
		t.Errorf("Expected complete state, got %s", session.State(curriculumLen))
	}
}

func TestSessionRestartAfterComplete(t *testing.T) {
	session := NewSession("user-1")
	session.Expect(true)
	session.Advance(1)

	if session.State(1) != SessionStateComplete {
		t.Fatalf("Expected complete state, got %s", session.State(1))
	}

	session.Restart()
	session.Expect(true)

	if session.CurrentIndex != 0 {
		t.Errorf("Expected index 0 after reset, got %d", session.CurrentIndex)
	}
	if session.State(1) != SessionStateActive {
		t.Errorf("Expected active state after reset, got %s", session.State(1))
	}
}

func TestSessionValidation(t *testing.T) {
	session := NewSession("user-1")
	if err := session.Validate(); err != nil {
		t.Errorf("Valid session should not have validation errors, got: %v", err)
	}

	session.UserID = ""
	if err := session.Validate(); err == nil {
		t.Error("Session with empty user ID should have validation error")
	}

	session.UserID = "user-1"
	session.CurrentIndex = -1
	if err := session.Validate(); err == nil {
		t.Error("Session with negative index should have validation error")
	}
}
