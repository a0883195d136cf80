package repositories

import (
	"context"

	"github.com/twokeyapp/lahja/domain/entities"
)

// Evaluator abstracts the language-model collaborator that judges a
// transcription against the target phrase. The returned record is dynamic
// model output; the caller is responsible for normalizing it.
type Evaluator interface {
	Evaluate(ctx context.Context, transcription string, phrase entities.Phrase) (entities.ScoreRecord, error)
}
