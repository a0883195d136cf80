package entities

// MessageKind classifies an inbound chat message after the provider adapter
// has normalized it.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindAudio MessageKind = "audio"
	MessageKindOther MessageKind = "other"
)

// InboundMessage is the provider-neutral shape of one inbound chat event.
// Text is set for text messages, MediaRef for audio messages.
type InboundMessage struct {
	SenderID string
	Kind     MessageKind
	Text     string
	MediaRef string
}
