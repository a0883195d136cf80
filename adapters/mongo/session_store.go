package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/domain/repositories"
)

// SessionStore is a MongoDB implementation of SessionStore. Documents are
// keyed by user_id. Per-user mutual exclusion for the read-modify-write in
// Update is provided by in-process keyed locks, matching the single-process
// deployment the in-memory store assumes.
type SessionStore struct {
	collection *mongo.Collection
	mu         sync.Mutex
	locks      map[string]*sync.Mutex
}

// Ensure SessionStore implements the SessionStore interface
var _ repositories.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new MongoDB session store
func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{
		collection: db.Collection("sessions"),
		locks:      make(map[string]*sync.Mutex),
	}
}

// GetOrCreate implements repositories.SessionStore
func (s *SessionStore) GetOrCreate(ctx context.Context, userID string) (*entities.Session, error) {
	lock := s.lock(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.load(ctx, userID)
}

// Update implements repositories.SessionStore
func (s *SessionStore) Update(ctx context.Context, userID string, fn func(*entities.Session) error) (*entities.Session, error) {
	lock := s.lock(userID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	update := bson.M{"$set": session}
	opts := options.Update().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update, opts); err != nil {
		return nil, fmt.Errorf("failed to persist session for %s: %w", userID, err)
	}

	return session, nil
}

func (s *SessionStore) load(ctx context.Context, userID string) (*entities.Session, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}

	var session entities.Session
	err := s.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		fresh := entities.NewSession(userID)
		doc := bson.M{
			"user_id":             fresh.UserID,
			"current_index":       fresh.CurrentIndex,
			"awaiting_submission": fresh.AwaitingSubmission,
			"created_at":          fresh.CreatedAt,
			"updated_at":          fresh.UpdatedAt,
		}
		if _, err := s.collection.InsertOne(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to create session for %s: %w", userID, err)
		}
		return fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", userID, err)
	}

	return &session, nil
}

func (s *SessionStore) lock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// LearnerRepository is a MongoDB implementation of LearnerRepository.
type LearnerRepository struct {
	collection *mongo.Collection
}

// Ensure LearnerRepository implements the LearnerRepository interface
var _ repositories.LearnerRepository = (*LearnerRepository)(nil)

// NewLearnerRepository creates a new MongoDB learner repository
func NewLearnerRepository(db *mongo.Database) *LearnerRepository {
	return &LearnerRepository{
		collection: db.Collection("learners"),
	}
}

// Upsert implements repositories.LearnerRepository
func (r *LearnerRepository) Upsert(ctx context.Context, learner *entities.Learner) error {
	if err := learner.Validate(); err != nil {
		return err
	}

	update := bson.M{"$setOnInsert": bson.M{
		"phone_number": learner.PhoneNumber,
		"created_at":   learner.CreatedAt,
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"phone_number": learner.PhoneNumber}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert learner %s: %w", learner.PhoneNumber, err)
	}
	return nil
}

// GetByPhoneNumber implements repositories.LearnerRepository
func (r *LearnerRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*entities.Learner, error) {
	var learner entities.Learner
	err := r.collection.FindOne(ctx, bson.M{"phone_number": phoneNumber}).Decode(&learner)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load learner %s: %w", phoneNumber, err)
	}
	return &learner, nil
}
