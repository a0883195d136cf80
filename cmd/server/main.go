package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/twokeyapp/lahja/adapters/llm"
	"github.com/twokeyapp/lahja/adapters/memory"
	"github.com/twokeyapp/lahja/adapters/mongo"
	"github.com/twokeyapp/lahja/adapters/stt"
	"github.com/twokeyapp/lahja/adapters/tts"
	"github.com/twokeyapp/lahja/adapters/whatsapp"
	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/domain/repositories"
	"github.com/twokeyapp/lahja/internal/api"
	"github.com/twokeyapp/lahja/internal/auth"
	"github.com/twokeyapp/lahja/internal/config"
	"github.com/twokeyapp/lahja/internal/websocket"
	"github.com/twokeyapp/lahja/usecase"
)

func main() {
	// Load .env file if present; real deployments set the environment directly.
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	curriculum, err := loadCurriculum(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load curriculum", zap.Error(err))
	}

	ctx := context.Background()

	// Session and learner storage
	sessions, learners, mongoClient, err := buildStores(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session storage", zap.Error(err))
	}
	if mongoClient != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Close(shutdownCtx)
		}()
	}

	// External collaborators
	chatClient, err := whatsapp.NewClient(whatsapp.Config{
		Token:         cfg.WhatsAppToken,
		PhoneNumberID: cfg.PhoneNumberID,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize WhatsApp client", zap.Error(err))
	}

	evaluator, err := llm.NewGeminiEvaluator(ctx, llm.GeminiConfig{APIKey: cfg.GeminiAPIKey}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize evaluator", zap.Error(err))
	}

	speechToText := &stt.GoogleSpeechToText{}

	// Voice notes arrive as Opus; web and practice uploads are WAV.
	voiceAnalysis := usecase.NewAnalysisService(speechToText, evaluator, repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "OGG_OPUS",
		Language:   cfg.SpeechLanguage,
	}, logger)
	uploadAnalysis := usecase.NewAnalysisService(speechToText, evaluator, repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "LINEAR16",
		Language:   cfg.SpeechLanguage,
	}, logger)

	tutor := usecase.NewTutorService(curriculum, sessions, learners, chatClient, chatClient, voiceAnalysis, logger)

	authService, err := auth.NewService(cfg.JWTSecret, cfg.WebClientSecret)
	if err != nil {
		logger.Fatal("Failed to initialize auth service", zap.Error(err))
	}

	// Feedback speech synthesis is optional.
	var textToSpeech repositories.TextToSpeech
	if cfg.ElevenLabsAPIKey != "" {
		textToSpeech, err = tts.NewElevenLabsTTS(tts.ElevenLabsConfig{APIKey: cfg.ElevenLabsAPIKey}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize TTS client", zap.Error(err))
		}
	} else {
		logger.Info("ELEVEN_LABS_API_KEY not set, feedback speech synthesis disabled")
	}

	// Live practice hub
	hub := websocket.NewHub(curriculum, uploadAnalysis, logger)
	go hub.Run()
	defer hub.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, &api.Handler{
		VerifyToken: cfg.VerifyToken,
		AppSecret:   cfg.AppSecret,
		Tutor:       tutor,
		Analysis:    uploadAnalysis,
		Auth:        authService,
		TTS:         textToSpeech,
		Hub:         hub,
		Logger:      logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.Int("phrases", curriculum.Len()),
		zap.String("sessionStore", cfg.SessionStore))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func loadCurriculum(cfg config.Config, logger *zap.Logger) (*entities.Curriculum, error) {
	if cfg.CurriculumPath == "" {
		return entities.DefaultCurriculum(), nil
	}
	curriculum, err := entities.LoadCurriculum(cfg.CurriculumPath)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded curriculum",
		zap.String("path", cfg.CurriculumPath),
		zap.Int("phrases", curriculum.Len()))
	return curriculum, nil
}

// buildStores selects the session backend. The Mongo client is returned so
// main can close it on shutdown; it is nil for the in-memory backend.
func buildStores(cfg config.Config, logger *zap.Logger) (repositories.SessionStore, repositories.LearnerRepository, *mongo.Client, error) {
	if cfg.SessionStore == "mongo" {
		client, err := mongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return mongo.NewSessionStore(client.Database), mongo.NewLearnerRepository(client.Database), client, nil
	}
	return memory.NewSessionStore(), memory.NewLearnerRepository(), nil, nil
}
