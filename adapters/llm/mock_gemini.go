package llm

import (
	"context"

	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/domain/repositories"
)

// MockEvaluator is a placeholder implementation of the Evaluator interface
type MockEvaluator struct{}

// NewMockEvaluator creates a new mock evaluator
func NewMockEvaluator() repositories.Evaluator {
	return &MockEvaluator{}
}

// Evaluate implements repositories.Evaluator
func (m *MockEvaluator) Evaluate(ctx context.Context, transcription string, phrase entities.Phrase) (entities.ScoreRecord, error) {
	translation := 85
	pronunciation := 75

	return entities.ScoreRecord{
		Transcription: transcription,
		Feedback:      "Good attempt! Work on the 'Ayn sound in the middle of the phrase.",
		Translation:   &translation,
		Pronunciation: &pronunciation,
	}, nil
}
