package tts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/twokeyapp/lahja/domain/entities"
)

func TestNewElevenLabsTTS(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewElevenLabsTTS(ElevenLabsConfig{}, logger)
	if !errors.Is(err, entities.ErrConfigMissing) {
		t.Errorf("Expected ErrConfigMissing without API key, got %v", err)
	}

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "test-api-key"}, logger)
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	if tts.voiceID != defaultVoiceID {
		t.Errorf("Expected default voice ID %s, got %s", defaultVoiceID, tts.voiceID)
	}
	if tts.outputFormat != defaultOutputFormat {
		t.Errorf("Expected default output format %s, got %s", defaultOutputFormat, tts.outputFormat)
	}
	if tts.stability != defaultStability || tts.clarity != defaultClarity {
		t.Errorf("Expected default voice settings, got %f/%f", tts.stability, tts.clarity)
	}
}

func TestNewElevenLabsTTSValidatesSettings(t *testing.T) {
	logger := zaptest.NewLogger(t)

	if _, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "k", Stability: 1.5}, logger); err == nil {
		t.Error("Expected error for out-of-range stability")
	}
	if _, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "k", Clarity: -0.1}, logger); err == nil {
		t.Error("Expected error for out-of-range clarity")
	}
}

func TestConvertTextToSpeechEmptyText(t *testing.T) {
	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "test-api-key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	ctx := context.Background()
	if _, err := tts.ConvertTextToSpeech(ctx, ""); err == nil {
		t.Error("Expected error for empty text")
	}
	if _, err := tts.ConvertTextToSpeech(ctx, "   "); err == nil {
		t.Error("Expected error for whitespace-only text")
	}
}

func TestConvertTextToSpeechStreamsChunks(t *testing.T) {
	audio := make([]byte, 10_000)
	for i := range audio {
		audio[i] = byte(i % 251)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-api-key" {
			t.Errorf("Expected API key header, got %q", r.Header.Get("xi-api-key"))
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	}))
	defer server.Close()

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{
		APIKey:     "test-api-key",
		APIBaseURL: server.URL,
		ChunkSize:  4096,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	audioChan, err := tts.ConvertTextToSpeech(context.Background(), "Good attempt, keep practicing.")
	if err != nil {
		t.Fatalf("ConvertTextToSpeech() error = %v", err)
	}

	var received []byte
	chunkCount := 0
	for chunk := range audioChan {
		if len(chunk) == 0 {
			t.Error("Received empty audio chunk")
		}
		received = append(received, chunk...)
		chunkCount++
	}

	if len(received) != len(audio) {
		t.Errorf("Expected %d bytes, got %d", len(audio), len(received))
	}
	if chunkCount < 2 {
		t.Errorf("Expected audio to arrive in multiple chunks, got %d", chunkCount)
	}
}

func TestConvertTextToSpeechServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"bad key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{
		APIKey:     "bad-key",
		APIBaseURL: server.URL,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	audioChan, err := tts.ConvertTextToSpeech(context.Background(), "hello")
	if err != nil {
		t.Fatalf("ConvertTextToSpeech() error = %v", err)
	}

	// The channel closes without delivering audio.
	total := 0
	for chunk := range audioChan {
		total += len(chunk)
	}
	if total != 0 {
		t.Errorf("Expected no audio on server error, got %d bytes", total)
	}
}
