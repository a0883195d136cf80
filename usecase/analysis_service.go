package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/domain/repositories"
)

// AnalysisService runs the scoring pipeline: transcribe the learner's audio,
// have the evaluator judge it against the phrase, and normalize the
// evaluator's record into a canonical result. Both external calls are single
// shot; the service never retries and is safe to invoke from concurrent
// request goroutines.
type AnalysisService struct {
	speechToText repositories.SpeechToText
	evaluator    repositories.Evaluator
	audioConfig  repositories.AudioConfig
	logger       *zap.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	stt repositories.SpeechToText,
	evaluator repositories.Evaluator,
	audioConfig repositories.AudioConfig,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		speechToText: stt,
		evaluator:    evaluator,
		audioConfig:  audioConfig,
		logger:       logger,
	}
}

// Analyze scores one spoken attempt. Failure kinds surfaced to the caller:
// ErrEmptyAudio, ErrTranscriptionEmpty, ErrMalformedScoring and
// ErrUpstreamUnavailable.
func (s *AnalysisService) Analyze(ctx context.Context, req entities.AnalysisRequest) (*entities.AnalysisResult, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("analysis rejected: %w", entities.ErrEmptyAudio)
	}

	attemptID := uuid.NewString()
	s.logger.Info("Starting analysis",
		zap.String("attemptID", attemptID),
		zap.Int("audioSize", len(req.Audio)),
		zap.String("phrase", req.Phrase.SourceText))

	transcription, err := s.speechToText.TranscribeAudio(ctx, req.Audio, s.audioConfig)
	if err != nil {
		s.logger.Error("Transcription failed", zap.String("attemptID", attemptID), zap.Error(err))
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	transcription = strings.TrimSpace(transcription)
	if transcription == "" {
		s.logger.Warn("No speech detected", zap.String("attemptID", attemptID))
		return nil, fmt.Errorf("no speech detected: %w", entities.ErrTranscriptionEmpty)
	}

	s.logger.Info("Transcription completed",
		zap.String("attemptID", attemptID),
		zap.String("transcription", transcription))

	record, err := s.evaluator.Evaluate(ctx, transcription, req.Phrase)
	if err != nil {
		s.logger.Error("Evaluation failed", zap.String("attemptID", attemptID), zap.Error(err))
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	result, err := record.Normalize(transcription)
	if err != nil {
		s.logger.Warn("Evaluation record could not be normalized",
			zap.String("attemptID", attemptID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Analysis completed",
		zap.String("attemptID", attemptID),
		zap.Int("translationScore", result.TranslationScore),
		zap.Int("pronunciationScore", result.PronunciationScore),
		zap.Int("overallScore", result.OverallScore))

	return &result, nil
}
