package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/twokeyapp/lahja/domain/entities"
)

func TestSessionStoreGetOrCreate(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session, err := store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if session.UserID != "user-1" {
		t.Errorf("Expected user-1, got %s", session.UserID)
	}
	if session.CurrentIndex != 0 || session.AwaitingSubmission {
		t.Errorf("Expected fresh session, got %+v", session)
	}

	// The returned session is a copy; mutating it does not leak back.
	session.CurrentIndex = 99
	again, err := store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if again.CurrentIndex != 0 {
		t.Errorf("Stored session mutated through the returned copy, got index %d", again.CurrentIndex)
	}
}

func TestSessionStoreUpdate(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	updated, err := store.Update(ctx, "user-1", func(s *entities.Session) error {
		s.Expect(true)
		s.CurrentIndex = 2
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.CurrentIndex != 2 || !updated.AwaitingSubmission {
		t.Errorf("Expected updated session, got %+v", updated)
	}

	loaded, err := store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if loaded.CurrentIndex != 2 {
		t.Errorf("Update was not persisted, got index %d", loaded.CurrentIndex)
	}
}

func TestSessionStoreUpdateError(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	if _, err := store.Update(ctx, "user-1", func(s *entities.Session) error {
		s.CurrentIndex = 5
		return context.Canceled
	}); err == nil {
		t.Fatal("Expected error from failing mutation")
	}

	// A failed mutation must not be persisted.
	session, err := store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if session.CurrentIndex != 0 {
		t.Errorf("Failed update leaked, got index %d", session.CurrentIndex)
	}
}

func TestSessionStoreConcurrentUpdates(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	const increments = 50
	var wg sync.WaitGroup
	for i := 0; i < increments; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(ctx, "user-1", func(s *entities.Session) error {
				s.CurrentIndex++
				return nil
			})
		}()
	}
	wg.Wait()

	session, err := store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if session.CurrentIndex != increments {
		t.Errorf("Expected %d increments, got %d", increments, session.CurrentIndex)
	}
}

func TestLearnerRepositoryUpsert(t *testing.T) {
	repo := NewLearnerRepository()
	ctx := context.Background()

	learner := entities.NewLearner("972501234567")
	if err := repo.Upsert(ctx, learner); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	loaded, err := repo.GetByPhoneNumber(ctx, "972501234567")
	if err != nil {
		t.Fatalf("GetByPhoneNumber() error = %v", err)
	}
	if loaded == nil || loaded.PhoneNumber != "972501234567" {
		t.Fatalf("Expected stored learner, got %+v", loaded)
	}
	firstSeen := loaded.CreatedAt

	// A second upsert keeps the original first-contact time.
	if err := repo.Upsert(ctx, entities.NewLearner("972501234567")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	loaded, _ = repo.GetByPhoneNumber(ctx, "972501234567")
	if !loaded.CreatedAt.Equal(firstSeen) {
		t.Error("Upsert should not overwrite the original record")
	}
}

func TestLearnerRepositoryValidation(t *testing.T) {
	repo := NewLearnerRepository()
	if err := repo.Upsert(context.Background(), &entities.Learner{}); err == nil {
		t.Error("Learner without phone number should be rejected")
	}

	missing, err := repo.GetByPhoneNumber(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetByPhoneNumber() error = %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown learner, got %+v", missing)
	}
}
