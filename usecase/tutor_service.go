package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/domain/repositories"
)

// User-facing reply texts. Apologies never expose internal error detail.
const (
	msgTypeStart      = "Type 'start' to begin."
	msgSendVoiceNote  = "Please send a voice note with the translation."
	msgResetAck       = "Let's start from the beginning!"
	msgComplete       = "You've completed the curriculum! Type 'reset' to start over."
	msgUnsupported    = "I can only understand text commands and voice notes."
	msgEmptyAudio     = "That voice note seems to be empty. Please try recording again."
	msgNothingHeard   = "I couldn't hear any speech in that recording. Please try again."
	msgScoringTrouble = "I had trouble scoring that attempt. Please send the voice note again."
	msgMediaTrouble   = "I couldn't download that voice note. Please send it again."
	msgServiceUnavail = "I couldn't analyze the voice note right now. Please try again later."
)

// errStaleAttempt marks an analysis result that no longer matches the
// session: a concurrent submission advanced the phrase while this one was
// being analyzed. The result is discarded without a reply.
var errStaleAttempt = errors.New("session advanced during analysis")

// TutorService drives the per-user tutoring session: it classifies inbound
// chat messages, runs the analysis pipeline on voice notes, advances the
// session through the curriculum and sends the composed replies.
type TutorService struct {
	curriculum *entities.Curriculum
	sessions   repositories.SessionStore
	learners   repositories.LearnerRepository
	media      repositories.MediaResolver
	chat       repositories.ChatSender
	analysis   *AnalysisService
	logger     *zap.Logger
}

// NewTutorService creates a new tutor service
func NewTutorService(
	curriculum *entities.Curriculum,
	sessions repositories.SessionStore,
	learners repositories.LearnerRepository,
	media repositories.MediaResolver,
	chat repositories.ChatSender,
	analysis *AnalysisService,
	logger *zap.Logger,
) *TutorService {
	return &TutorService{
		curriculum: curriculum,
		sessions:   sessions,
		learners:   learners,
		media:      media,
		chat:       chat,
		analysis:   analysis,
		logger:     logger,
	}
}

// HandleInbound processes the messages of one webhook payload in payload
// order. Failures are logged and converted into apology replies; they never
// abort the remaining messages.
func (s *TutorService) HandleInbound(ctx context.Context, messages []entities.InboundMessage) {
	for _, msg := range messages {
		if err := s.handleMessage(ctx, msg); err != nil {
			s.logger.Error("Failed to handle inbound message",
				zap.String("sender", msg.SenderID),
				zap.String("kind", string(msg.Kind)),
				zap.Error(err))
		}
	}
}

func (s *TutorService) handleMessage(ctx context.Context, msg entities.InboundMessage) error {
	switch msg.Kind {
	case entities.MessageKindText:
		return s.handleText(ctx, msg.SenderID, msg.Text)
	case entities.MessageKindAudio:
		return s.handleAudio(ctx, msg.SenderID, msg.MediaRef)
	default:
		return s.reply(ctx, msg.SenderID, msgUnsupported)
	}
}

func (s *TutorService) handleText(ctx context.Context, userID, text string) error {
	command := strings.ToLower(strings.TrimSpace(text))

	switch command {
	case "start":
		return s.restart(ctx, userID, nil)
	case "reset":
		return s.restart(ctx, userID, []string{msgResetAck})
	}

	// Free text never mutates the session.
	session, err := s.sessions.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if session.AwaitingSubmission {
		return s.reply(ctx, userID, msgSendVoiceNote)
	}
	return s.reply(ctx, userID, msgTypeStart)
}

// restart serves both start and reset: back to phrase zero, awaiting a
// voice note, optionally preceded by an acknowledgement line.
func (s *TutorService) restart(ctx context.Context, userID string, preamble []string) error {
	s.registerLearner(ctx, userID)

	session, err := s.sessions.Update(ctx, userID, func(sess *entities.Session) error {
		sess.Restart()
		sess.Expect(true)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to restart session: %w", err)
	}

	replies := append([]string{}, preamble...)
	replies = append(replies, s.promptFor(session.CurrentIndex))
	return s.replyAll(ctx, userID, replies)
}

func (s *TutorService) handleAudio(ctx context.Context, userID, mediaRef string) error {
	session, err := s.sessions.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	// Audio outside an active prompt never reaches the pipeline.
	if !session.AwaitingSubmission {
		return s.reply(ctx, userID, msgTypeStart)
	}

	attemptIndex := session.CurrentIndex
	phrase, ok := s.curriculum.At(attemptIndex)
	if !ok {
		// Defensive: awaiting with an out-of-range index should not occur.
		return s.reply(ctx, userID, msgComplete)
	}

	audio, err := s.media.Fetch(ctx, mediaRef)
	if err != nil {
		s.logger.Error("Media fetch failed",
			zap.String("sender", userID),
			zap.String("mediaRef", mediaRef),
			zap.Error(err))
		return s.reply(ctx, userID, apologyFor(err))
	}

	result, err := s.analysis.Analyze(ctx, entities.AnalysisRequest{Audio: audio, Phrase: phrase})
	if err != nil {
		// Failed analyses leave the session untouched; the learner is
		// still expected to resubmit the same phrase.
		return s.reply(ctx, userID, apologyFor(err))
	}

	attemptID := uuid.NewString()
	session, err = s.sessions.Update(ctx, userID, func(sess *entities.Session) error {
		// Re-checked under the key lock: the awaiting flag and index seen
		// before analysis may have been consumed by a concurrent submission.
		if !sess.AwaitingSubmission || sess.CurrentIndex != attemptIndex {
			return errStaleAttempt
		}
		sess.Advance(s.curriculum.Len())
		sess.LastAttemptID = attemptID
		return nil
	})
	if errors.Is(err, errStaleAttempt) {
		s.logger.Warn("Discarding stale analysis result",
			zap.String("sender", userID),
			zap.Int("phraseIndex", attemptIndex))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to advance session: %w", err)
	}

	replies := []string{formatResult(result)}
	if session.CurrentIndex < s.curriculum.Len() {
		replies = append(replies, s.promptFor(session.CurrentIndex))
	} else {
		replies = append(replies, msgComplete)
	}
	return s.replyAll(ctx, userID, replies)
}

// registerLearner records the learner on first contact. Registry failures
// are logged but never block the lesson flow.
func (s *TutorService) registerLearner(ctx context.Context, userID string) {
	if err := s.learners.Upsert(ctx, entities.NewLearner(userID)); err != nil {
		s.logger.Warn("Failed to register learner", zap.String("sender", userID), zap.Error(err))
	}
}

func (s *TutorService) promptFor(index int) string {
	phrase, ok := s.curriculum.At(index)
	if !ok {
		return msgComplete
	}
	prompt := fmt.Sprintf("Translate this to Levantine Arabic: %s", phrase.SourceText)
	if phrase.Hint != "" {
		prompt += fmt.Sprintf("\nHint: %s", phrase.Hint)
	}
	return prompt
}

func (s *TutorService) reply(ctx context.Context, userID, text string) error {
	return s.replyAll(ctx, userID, []string{text})
}

func (s *TutorService) replyAll(ctx context.Context, userID string, texts []string) error {
	for _, text := range texts {
		if err := s.chat.SendText(ctx, userID, text); err != nil {
			return fmt.Errorf("failed to send reply: %w", err)
		}
	}
	return nil
}

func formatResult(result *entities.AnalysisResult) string {
	return fmt.Sprintf("Transcription: %s\nTranslation: %d/100 | Pronunciation: %d/100\nFeedback: %s",
		result.Transcription,
		result.TranslationScore,
		result.PronunciationScore,
		result.Feedback)
}

// apologyFor maps a pipeline or media failure to its user-facing wording.
func apologyFor(err error) string {
	switch {
	case errors.Is(err, entities.ErrEmptyAudio):
		return msgEmptyAudio
	case errors.Is(err, entities.ErrTranscriptionEmpty):
		return msgNothingHeard
	case errors.Is(err, entities.ErrMalformedScoring):
		return msgScoringTrouble
	case errors.Is(err, entities.ErrMediaNotFound), errors.Is(err, entities.ErrMediaUnauthorized):
		return msgMediaTrouble
	default:
		return msgServiceUnavail
	}
}
