package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/twokeyapp/lahja/domain/entities"
)

// Config contains all runtime settings for the tutoring service.
type Config struct {
	Port string

	// WhatsApp Cloud API credentials.
	WhatsAppToken string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string

	// Evaluator credentials.
	GeminiAPIKey string

	// Web client auth.
	JWTSecret       string
	WebClientSecret string

	// Optional curriculum override, JSON file with a phrase array.
	CurriculumPath string

	// Session backend: "memory" (default) or "mongo".
	SessionStore  string
	MongoURI      string
	MongoDatabase string

	// Speech collaborators.
	SpeechLanguage   string
	ElevenLabsAPIKey string
}

// Load reads environment variables. Required credentials fail fast with
// entities.ErrConfigMissing rather than being silently defaulted.
func Load() (Config, error) {
	cfg := Config{
		Port:             envOrDefault("PORT", "8080"),
		WhatsAppToken:    strings.TrimSpace(os.Getenv("WHATSAPP_TOKEN")),
		PhoneNumberID:    strings.TrimSpace(os.Getenv("PHONE_NUMBER_ID")),
		VerifyToken:      strings.TrimSpace(os.Getenv("VERIFY_TOKEN")),
		AppSecret:        strings.TrimSpace(os.Getenv("APP_SECRET")),
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		WebClientSecret:  strings.TrimSpace(os.Getenv("WEB_CLIENT_SECRET")),
		CurriculumPath:   strings.TrimSpace(os.Getenv("CURRICULUM_PATH")),
		SessionStore:     envOrDefault("SESSION_STORE", "memory"),
		MongoURI:         envOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:    envOrDefault("MONGODB_DATABASE", "lahja"),
		SpeechLanguage:   envOrDefault("SPEECH_LANGUAGE", "ar-PS"),
		ElevenLabsAPIKey: strings.TrimSpace(os.Getenv("ELEVEN_LABS_API_KEY")),
	}

	required := []struct {
		name  string
		value string
	}{
		{"WHATSAPP_TOKEN", cfg.WhatsAppToken},
		{"PHONE_NUMBER_ID", cfg.PhoneNumberID},
		{"VERIFY_TOKEN", cfg.VerifyToken},
		{"APP_SECRET", cfg.AppSecret},
		{"GEMINI_API_KEY", cfg.GeminiAPIKey},
		{"JWT_SECRET", cfg.JWTSecret},
		{"WEB_CLIENT_SECRET", cfg.WebClientSecret},
	}
	for _, req := range required {
		if req.value == "" {
			return Config{}, fmt.Errorf("%s is not set: %w", req.name, entities.ErrConfigMissing)
		}
	}

	if cfg.SessionStore != "memory" && cfg.SessionStore != "mongo" {
		return Config{}, fmt.Errorf("SESSION_STORE must be memory or mongo, got %q", cfg.SessionStore)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
