package repositories

import "context"

// ChatSender delivers outbound text messages through the chat provider.
type ChatSender interface {
	SendText(ctx context.Context, userID string, text string) error
}

// MediaResolver fetches raw audio bytes for a provider media reference.
// Failures are surfaced as entities.ErrMediaNotFound,
// entities.ErrMediaUnauthorized or entities.ErrUpstreamUnavailable; the
// core never retries them.
type MediaResolver interface {
	Fetch(ctx context.Context, mediaRef string) ([]byte, error)
}
