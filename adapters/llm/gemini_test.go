package llm

import (
	"errors"
	"testing"

	"github.com/twokeyapp/lahja/domain/entities"
)

func TestParseEvaluation(t *testing.T) {
	text := `{
		"transcription": "بدي قهوة",
		"translation_score": 90,
		"pronunciation_score": 75,
		"overall_score": 84,
		"feedback": "Well done."
	}`

	record, err := ParseEvaluation(text)
	if err != nil {
		t.Fatalf("ParseEvaluation() error = %v", err)
	}

	if record.Transcription != "بدي قهوة" {
		t.Errorf("Expected transcription, got %q", record.Transcription)
	}
	if record.Translation == nil || *record.Translation != 90 {
		t.Errorf("Expected translation 90, got %v", record.Translation)
	}
	if record.Pronunciation == nil || *record.Pronunciation != 75 {
		t.Errorf("Expected pronunciation 75, got %v", record.Pronunciation)
	}
	if record.Overall == nil || *record.Overall != 84 {
		t.Errorf("Expected overall 84, got %v", record.Overall)
	}
}

func TestParseEvaluationCodeFence(t *testing.T) {
	text := "```json\n{\"translation_score\": 80, \"pronunciation_score\": 70, \"feedback\": \"ok\"}\n```"

	record, err := ParseEvaluation(text)
	if err != nil {
		t.Fatalf("ParseEvaluation() error = %v", err)
	}
	if record.Translation == nil || *record.Translation != 80 {
		t.Errorf("Expected translation 80, got %v", record.Translation)
	}
}

func TestParseEvaluationScoreShapes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *int
	}{
		{"numeric string", `{"translation_score": "85", "feedback": "ok"}`, intPtr(85)},
		{"integral float", `{"translation_score": 85.0, "feedback": "ok"}`, intPtr(85)},
		{"null", `{"translation_score": null, "feedback": "ok"}`, nil},
		{"missing", `{"feedback": "ok"}`, nil},
		{"garbage", `{"translation_score": "excellent", "feedback": "ok"}`, nil},
		{"fractional float", `{"translation_score": 85.5, "feedback": "ok"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseEvaluation(tt.text)
			if err != nil {
				t.Fatalf("ParseEvaluation() error = %v", err)
			}
			switch {
			case tt.want == nil && record.Translation != nil:
				t.Errorf("Expected absent score, got %d", *record.Translation)
			case tt.want != nil && record.Translation == nil:
				t.Errorf("Expected score %d, got nil", *tt.want)
			case tt.want != nil && *record.Translation != *tt.want:
				t.Errorf("Expected score %d, got %d", *tt.want, *record.Translation)
			}
		})
	}
}

func TestParseEvaluationLegacyScoreKey(t *testing.T) {
	record, err := ParseEvaluation(`{"score": 77, "feedback": "ok"}`)
	if err != nil {
		t.Fatalf("ParseEvaluation() error = %v", err)
	}
	if record.Overall == nil || *record.Overall != 77 {
		t.Errorf("Expected legacy score to fill overall, got %v", record.Overall)
	}
}

func TestParseEvaluationInvalidJSON(t *testing.T) {
	_, err := ParseEvaluation("the student did great")
	if !errors.Is(err, entities.ErrMalformedScoring) {
		t.Errorf("Expected ErrMalformedScoring, got %v", err)
	}
}

func intPtr(v int) *int { return &v }
