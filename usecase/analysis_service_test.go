package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/domain/repositories"
)

type stubSpeechToText struct {
	mu            sync.Mutex
	transcription string
	err           error
	calls         int
}

func (s *stubSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.transcription, s.err
}

type stubEvaluator struct {
	record entities.ScoreRecord
	err    error
	calls  int
}

func (s *stubEvaluator) Evaluate(ctx context.Context, transcription string, phrase entities.Phrase) (entities.ScoreRecord, error) {
	s.calls++
	return s.record, s.err
}

func scoreOf(v int) *int { return &v }

func goodRecord() entities.ScoreRecord {
	return entities.ScoreRecord{
		Feedback:      "Good attempt.",
		Translation:   scoreOf(90),
		Pronunciation: scoreOf(70),
	}
}

func newAnalysisService(stt *stubSpeechToText, evaluator *stubEvaluator) *AnalysisService {
	config := repositories.AudioConfig{SampleRate: 16000, Encoding: "OGG_OPUS", Language: "ar-PS"}
	return NewAnalysisService(stt, evaluator, config, zap.NewNop())
}

func TestAnalyzeEmptyAudio(t *testing.T) {
	stt := &stubSpeechToText{}
	evaluator := &stubEvaluator{}
	service := newAnalysisService(stt, evaluator)

	_, err := service.Analyze(context.Background(), entities.AnalysisRequest{})
	if !errors.Is(err, entities.ErrEmptyAudio) {
		t.Fatalf("Expected ErrEmptyAudio, got %v", err)
	}

	// Empty audio must be rejected before any external call.
	if stt.calls != 0 {
		t.Errorf("Expected no transcription calls, got %d", stt.calls)
	}
	if evaluator.calls != 0 {
		t.Errorf("Expected no evaluator calls, got %d", evaluator.calls)
	}
}

func TestAnalyzeEmptyTranscription(t *testing.T) {
	stt := &stubSpeechToText{transcription: "   "}
	evaluator := &stubEvaluator{}
	service := newAnalysisService(stt, evaluator)

	_, err := service.Analyze(context.Background(), entities.AnalysisRequest{Audio: []byte("audio")})
	if !errors.Is(err, entities.ErrTranscriptionEmpty) {
		t.Fatalf("Expected ErrTranscriptionEmpty, got %v", err)
	}
	if evaluator.calls != 0 {
		t.Errorf("Silent audio should never reach the evaluator, got %d calls", evaluator.calls)
	}
}

func TestAnalyzeTranscriptionFailure(t *testing.T) {
	stt := &stubSpeechToText{err: fmt.Errorf("stream broke: %w", entities.ErrUpstreamUnavailable)}
	service := newAnalysisService(stt, &stubEvaluator{})

	_, err := service.Analyze(context.Background(), entities.AnalysisRequest{Audio: []byte("audio")})
	if !errors.Is(err, entities.ErrUpstreamUnavailable) {
		t.Fatalf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestAnalyzeEvaluatorFailure(t *testing.T) {
	stt := &stubSpeechToText{transcription: "بدي قهوة"}
	evaluator := &stubEvaluator{err: fmt.Errorf("call failed: %w", entities.ErrUpstreamUnavailable)}
	service := newAnalysisService(stt, evaluator)

	_, err := service.Analyze(context.Background(), entities.AnalysisRequest{Audio: []byte("audio")})
	if !errors.Is(err, entities.ErrUpstreamUnavailable) {
		t.Fatalf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestAnalyzeMalformedScoring(t *testing.T) {
	stt := &stubSpeechToText{transcription: "بدي قهوة"}
	evaluator := &stubEvaluator{record: entities.ScoreRecord{Feedback: "no scores here"}}
	service := newAnalysisService(stt, evaluator)

	_, err := service.Analyze(context.Background(), entities.AnalysisRequest{Audio: []byte("audio")})
	if !errors.Is(err, entities.ErrMalformedScoring) {
		t.Fatalf("Expected ErrMalformedScoring, got %v", err)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	stt := &stubSpeechToText{transcription: "بدي قهوة"}
	evaluator := &stubEvaluator{record: goodRecord()}
	service := newAnalysisService(stt, evaluator)

	result, err := service.Analyze(context.Background(), entities.AnalysisRequest{
		Audio:  []byte("audio"),
		Phrase: entities.Phrase{SourceText: "אני רוצה קפה", TargetReference: "בדי קהוה"},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.TranslationScore != 90 || result.PronunciationScore != 70 {
		t.Errorf("Expected scores 90/70, got %d/%d", result.TranslationScore, result.PronunciationScore)
	}
	if result.OverallScore != 80 {
		t.Errorf("Expected overall 80, got %d", result.OverallScore)
	}
	// The evaluator omitted a transcription, so the recognizer's text is used.
	if result.Transcription != "بدي قهوة" {
		t.Errorf("Expected transcription fallback, got %q", result.Transcription)
	}
}
