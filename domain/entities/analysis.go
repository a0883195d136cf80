package entities

import (
	"fmt"
	"strings"
)

// AnalysisRequest is the transient input of one scoring run: the learner's
// raw audio plus a snapshot of the phrase it answers. Not persisted.
type AnalysisRequest struct {
	Audio  []byte
	Phrase Phrase
}

// ScoreRecord is the tagged parse product of the evaluator's dynamic JSON.
// Score pointers are nil when the evaluator omitted the field or returned
// something that is not an integer. It never leaves the pipeline without
// going through Normalize.
type ScoreRecord struct {
	Transcription string
	Feedback      string
	Translation   *int
	Pronunciation *int
	Overall       *int
}

// AnalysisResult is the canonical output of the analysis pipeline. All
// scores are integers clamped to [0,100].
type AnalysisResult struct {
	Transcription      string `json:"transcription"`
	TranslationScore   int    `json:"translation_score"`
	PronunciationScore int    `json:"pronunciation_score"`
	OverallScore       int    `json:"overall_score"`
	Feedback           string `json:"feedback"`
}

// Normalize applies the canonical scoring policy to an evaluator record:
//
//   - every supplied score is clamped to [0,100];
//   - a missing sub-score copies the other sub-score, or the overall score
//     when that is the only value available;
//   - the overall score is the supplied one when present, otherwise the
//     mean of the two sub-scores rounded half up.
//
// A record with no parseable score at all, or with empty feedback, cannot
// be normalized and yields ErrMalformedScoring.
func (r ScoreRecord) Normalize(fallbackTranscription string) (AnalysisResult, error) {
	if strings.TrimSpace(r.Feedback) == "" {
		return AnalysisResult{}, fmt.Errorf("missing feedback text: %w", ErrMalformedScoring)
	}
	if r.Translation == nil && r.Pronunciation == nil && r.Overall == nil {
		return AnalysisResult{}, fmt.Errorf("no usable score fields: %w", ErrMalformedScoring)
	}

	translation := r.Translation
	pronunciation := r.Pronunciation
	switch {
	case translation == nil && pronunciation == nil:
		translation = r.Overall
		pronunciation = r.Overall
	case translation == nil:
		translation = pronunciation
	case pronunciation == nil:
		pronunciation = translation
	}

	res := AnalysisResult{
		TranslationScore:   clampScore(*translation),
		PronunciationScore: clampScore(*pronunciation),
		Feedback:           strings.TrimSpace(r.Feedback),
	}

	if r.Overall != nil {
		res.OverallScore = clampScore(*r.Overall)
	} else {
		// Mean of the sub-scores, ties rounded half up.
		res.OverallScore = (res.TranslationScore + res.PronunciationScore + 1) / 2
	}

	res.Transcription = strings.TrimSpace(r.Transcription)
	if res.Transcription == "" {
		res.Transcription = strings.TrimSpace(fallbackTranscription)
	}

	return res, nil
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
