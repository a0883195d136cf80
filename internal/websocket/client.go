package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/twokeyapp/lahja/domain/entities"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks
)

// Client is one practice connection: the socket, its outbound queue, and
// the audio accumulated for the phrase currently being attempted.
type Client struct {
	id       string
	clientID string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	logger   *zap.Logger

	// Guards send against the analysis goroutine outliving the connection:
	// scoring results can arrive after the hub has dropped the client.
	sendMu     sync.Mutex
	sendClosed bool

	phraseIndex int
	phraseSet   bool
	audioBuffer []byte
}

// closeSend closes the outbound queue exactly once. Called by the hub when
// the client is dropped; later sendJSON calls become no-ops.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

// readPump reads messages from the connection and dispatches them.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Unexpected connection close", zap.String("connectionID", c.id), zap.Error(err))
			}
			return
		}
		c.handleMessage(data)
	}
}

// writePump writes queued messages to the connection and keeps it alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	msgType, err := ParseMessageType(data)
	if err != nil {
		c.sendError("invalid_message", "Message could not be parsed.")
		return
	}

	switch msgType {
	case MessageTypePracticeStart:
		c.handlePracticeStart(data)
	case MessageTypeAudioChunk:
		c.handleAudioChunk(data)
	default:
		c.sendError("unsupported_type", "Unsupported message type.")
	}
}

func (c *Client) handlePracticeStart(data []byte) {
	var msg PracticeStartMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid_message", "practice_start could not be parsed.")
		return
	}

	phrase, ok := c.hub.curriculum.At(msg.PhraseIndex)
	if !ok {
		c.sendError("phrase_out_of_range", "No phrase at that index.")
		return
	}

	c.phraseIndex = msg.PhraseIndex
	c.phraseSet = true
	c.audioBuffer = nil

	c.sendJSON(PhrasePromptMessage{
		BaseMessage:     newBaseMessage(MessageTypePhrasePrompt),
		PhraseIndex:     msg.PhraseIndex,
		SourceText:      phrase.SourceText,
		Transliteration: phrase.Transliteration,
		Hint:            phrase.Hint,
	})
}

func (c *Client) handleAudioChunk(data []byte) {
	var msg AudioChunkMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid_message", "audio_chunk could not be parsed.")
		return
	}

	if !c.phraseSet {
		c.sendError("no_phrase_selected", "Send practice_start before streaming audio.")
		return
	}

	chunk, err := base64.StdEncoding.DecodeString(msg.AudioData)
	if err != nil {
		c.sendError("invalid_audio", "Audio data is not valid base64.")
		return
	}
	c.audioBuffer = append(c.audioBuffer, chunk...)

	if !msg.IsFinal {
		return
	}

	audio := c.audioBuffer
	c.audioBuffer = nil
	phraseIndex := c.phraseIndex
	phrase, _ := c.hub.curriculum.At(phraseIndex)

	// Run the pipeline off the read loop so pings keep flowing while the
	// external collaborators are working.
	go func() {
		result, err := c.hub.analysis.Analyze(context.Background(), entities.AnalysisRequest{
			Audio:  audio,
			Phrase: phrase,
		})
		if err != nil {
			c.sendError(failureCode(err), "Analysis failed. Please try again.")
			return
		}

		c.sendJSON(AnalysisResultMessage{
			BaseMessage:        newBaseMessage(MessageTypeAnalysisResult),
			PhraseIndex:        phraseIndex,
			Transcription:      result.Transcription,
			TranslationScore:   result.TranslationScore,
			PronunciationScore: result.PronunciationScore,
			OverallScore:       result.OverallScore,
			Feedback:           result.Feedback,
		})
	}()
}

func (c *Client) sendError(code, message string) {
	c.sendJSON(ErrorMessage{
		BaseMessage: newBaseMessage(MessageTypeError),
		Code:        code,
		Message:     message,
	})
}

func (c *Client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal outbound message", zap.Error(err))
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		c.logger.Debug("Dropping message, connection gone", zap.String("connectionID", c.id))
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Dropping message, send buffer full", zap.String("connectionID", c.id))
	}
}

func failureCode(err error) string {
	switch {
	case errors.Is(err, entities.ErrEmptyAudio):
		return "empty_audio"
	case errors.Is(err, entities.ErrTranscriptionEmpty):
		return "transcription_empty"
	case errors.Is(err, entities.ErrMalformedScoring):
		return "malformed_scoring"
	default:
		return "upstream_unavailable"
	}
}
