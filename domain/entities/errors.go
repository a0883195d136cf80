package entities

import "errors"

// Failure kinds surfaced by the core. Adapters and usecases wrap these with
// fmt.Errorf("...: %w", err) so boundaries can match them with errors.Is.
var (
	// ErrEmptyAudio is returned when an analysis request carries no audio bytes.
	ErrEmptyAudio = errors.New("audio payload is empty")

	// ErrTranscriptionEmpty is returned when the speech-to-text collaborator
	// produced no usable text.
	ErrTranscriptionEmpty = errors.New("transcription is empty")

	// ErrMalformedScoring is returned when the evaluator response cannot be
	// normalized into an AnalysisResult.
	ErrMalformedScoring = errors.New("evaluator returned malformed scoring")

	// ErrUpstreamUnavailable is returned for network or provider failures of
	// an external collaborator. The core never retries these.
	ErrUpstreamUnavailable = errors.New("upstream collaborator unavailable")

	// ErrMediaNotFound is returned when a media reference does not resolve.
	ErrMediaNotFound = errors.New("media not found")

	// ErrMediaUnauthorized is returned when the provider rejects the media
	// fetch credentials.
	ErrMediaUnauthorized = errors.New("media fetch unauthorized")

	// ErrAuthFailure is returned for bad webhook signatures, verify-token
	// mismatches and invalid API tokens. Rejected before any session access.
	ErrAuthFailure = errors.New("authentication failed")

	// ErrConfigMissing is returned when a required secret or credential is
	// absent. Never silently defaulted.
	ErrConfigMissing = errors.New("required configuration missing")
)
