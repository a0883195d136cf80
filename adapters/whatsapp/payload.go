package whatsapp

import (
	"encoding/json"
	"fmt"

	"github.com/twokeyapp/lahja/domain/entities"
)

// Cloud API webhook payload shapes. Only the fields the core consumes are
// modeled; everything else in the notification is ignored.
type webhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	Messages []webhookMessage `json:"messages"`
}

type webhookMessage struct {
	From  string        `json:"from"`
	Type  string        `json:"type"`
	Text  *webhookText  `json:"text,omitempty"`
	Audio *webhookMedia `json:"audio,omitempty"`
	Voice *webhookMedia `json:"voice,omitempty"`
}

type webhookText struct {
	Body string `json:"body"`
}

type webhookMedia struct {
	ID string `json:"id"`
}

// ParsePayload normalizes a raw webhook body into provider-neutral inbound
// messages, preserving payload order. A notification without messages (for
// example a delivery status update) yields an empty slice.
func ParsePayload(body []byte) ([]entities.InboundMessage, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if payload.Object == "" {
		return nil, fmt.Errorf("webhook payload missing object field")
	}

	var messages []entities.InboundMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.From == "" {
					continue
				}
				messages = append(messages, normalizeMessage(msg))
			}
		}
	}
	return messages, nil
}

func normalizeMessage(msg webhookMessage) entities.InboundMessage {
	out := entities.InboundMessage{SenderID: msg.From}

	switch msg.Type {
	case "text":
		out.Kind = entities.MessageKindText
		if msg.Text != nil {
			out.Text = msg.Text.Body
		}
	case "audio", "voice":
		out.Kind = entities.MessageKindAudio
		media := msg.Audio
		if media == nil {
			media = msg.Voice
		}
		if media != nil {
			out.MediaRef = media.ID
		}
	default:
		out.Kind = entities.MessageKindOther
	}

	return out
}
