package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypePracticeStart  MessageType = "practice_start"
	MessageTypePhrasePrompt   MessageType = "phrase_prompt"
	MessageTypeAudioChunk     MessageType = "audio_chunk"
	MessageTypeAnalysisResult MessageType = "analysis_result"
	MessageTypeError          MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// PracticeStartMessage selects the curriculum phrase the client wants to
// practice. The server answers with a PhrasePromptMessage.
type PracticeStartMessage struct {
	BaseMessage
	PhraseIndex int `json:"phrase_index"`
}

// PhrasePromptMessage carries the phrase the client should attempt.
type PhrasePromptMessage struct {
	BaseMessage
	PhraseIndex     int    `json:"phrase_index"`
	SourceText      string `json:"source_text"`
	Transliteration string `json:"transliteration,omitempty"`
	Hint            string `json:"hint,omitempty"`
}

// AudioChunkMessage represents an incoming audio chunk from the client.
// Chunks are buffered until one arrives with IsFinal set, which triggers
// the analysis pipeline on the accumulated audio.
type AudioChunkMessage struct {
	BaseMessage
	AudioData string `json:"audio_data"` // base64 encoded
	ChunkSeq  int    `json:"chunk_sequence"`
	IsFinal   bool   `json:"is_final"`
}

// AnalysisResultMessage carries the scored result back to the client.
type AnalysisResultMessage struct {
	BaseMessage
	PhraseIndex        int    `json:"phrase_index"`
	Transcription      string `json:"transcription"`
	TranslationScore   int    `json:"translation_score"`
	PronunciationScore int    `json:"pronunciation_score"`
	OverallScore       int    `json:"overall_score"`
	Feedback           string `json:"feedback"`
}

// ErrorMessage represents an error sent to the client
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseMessageType extracts the message type from raw JSON
func ParseMessageType(data []byte) (MessageType, error) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return "", fmt.Errorf("failed to parse message: %w", err)
	}
	if base.Type == "" {
		return "", fmt.Errorf("message missing type field")
	}
	return base.Type, nil
}

func newBaseMessage(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
