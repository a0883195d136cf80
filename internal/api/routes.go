package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/twokeyapp/lahja/adapters/whatsapp"
	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/domain/repositories"
	"github.com/twokeyapp/lahja/internal/auth"
	"github.com/twokeyapp/lahja/internal/websocket"
	"github.com/twokeyapp/lahja/usecase"
)

const signatureHeader = "X-Hub-Signature-256"

var allowedUploadTypes = map[string]bool{
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/wave":  true,
}

// Handler bundles the dependencies of the HTTP surface.
type Handler struct {
	VerifyToken string
	AppSecret   string
	Tutor       *usecase.TutorService
	Analysis    *usecase.AnalysisService
	Auth        *auth.Service
	TTS         repositories.TextToSpeech // nil when not configured
	Hub         *websocket.Hub
	Logger      *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handler) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "lahja-server",
		})
	})

	// WhatsApp webhook
	e.GET("/webhook", h.webhookVerify)
	e.POST("/webhook", h.webhookReceive)

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.POST("/auth/token", h.issueToken)
	v1.POST("/analyze", h.analyze, h.requireToken)
	v1.POST("/tts", h.synthesizePost)
	v1.GET("/tts", h.synthesizeGet)

	// WebSocket practice endpoint with token validation
	e.GET("/ws", h.practiceSocket)
}

// webhookVerify answers the subscription handshake: the challenge is echoed
// only when the presented verify token matches the configured one.
func (h *Handler) webhookVerify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	challenge := c.QueryParam("hub.challenge")
	if mode != "subscribe" || challenge == "" {
		return c.String(http.StatusOK, "ok")
	}

	if err := whatsapp.VerifyToken(c.QueryParam("hub.verify_token"), h.VerifyToken); err != nil {
		h.Logger.Warn("Webhook verification rejected", zap.Error(err))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "verification_failed",
			Message: "Verification token mismatch",
		})
	}
	return c.String(http.StatusOK, challenge)
}

// webhookReceive authenticates and dispatches one webhook delivery. The
// signature is checked before any session state is touched; event handling
// itself runs in its own goroutine so a slow collaborator call never stalls
// the provider's delivery loop.
func (h *Handler) webhookReceive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to read request body",
		})
	}

	if err := whatsapp.VerifySignature(body, c.Request().Header.Get(signatureHeader), h.AppSecret); err != nil {
		h.Logger.Warn("Webhook signature rejected", zap.Error(err))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_signature",
			Message: "Payload signature verification failed",
		})
	}

	messages, err := whatsapp.ParsePayload(body)
	if err != nil {
		h.Logger.Warn("Webhook payload rejected", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_payload",
			Message: "Payload could not be parsed",
		})
	}

	if len(messages) > 0 {
		// Detached from the request context: the delivery is acknowledged
		// immediately and handling outlives the webhook request.
		go h.Tutor.HandleInbound(context.Background(), messages)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// issueToken exchanges the web client secret for a bearer token.
func (h *Handler) issueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	token, expiresAt, err := h.Auth.Exchange(req.ClientID, req.ClientSecret)
	if err != nil {
		h.Logger.Warn("Token exchange rejected", zap.String("client_id", req.ClientID), zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid client credentials",
		})
	}

	return c.JSON(http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}

// analyze is the stateless upload path: one WAV file plus optional phrase
// context, bypassing session state entirely.
func (h *Handler) analyze(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_file",
			Message: "A WAV audio file is required",
		})
	}

	if contentType := fileHeader.Header.Get("Content-Type"); !allowedUploadTypes[contentType] {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_content_type",
			Message: "File must be a WAV audio",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_file",
			Message: "Failed to open uploaded file",
		})
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_file",
			Message: "Failed to read uploaded file",
		})
	}
	if len(audio) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "empty_audio",
			Message: "Empty audio file received",
		})
	}

	phrase := entities.Phrase{
		SourceText:      c.FormValue("phrase"),
		Transliteration: c.FormValue("transliteration"),
		Hint:            c.FormValue("hint"),
	}

	result, err := h.Analysis.Analyze(c.Request().Context(), entities.AnalysisRequest{
		Audio:  audio,
		Phrase: phrase,
	})
	if err != nil {
		status, code := analyzeFailure(err)
		return c.JSON(status, ErrorResponse{Error: code, Message: "Failed to analyze audio"})
	}

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) synthesizePost(c echo.Context) error {
	var req TTSRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_text",
			Message: "Missing text for TTS",
		})
	}
	return h.synthesize(c, req.Text, "feedback.mp3")
}

func (h *Handler) synthesizeGet(c echo.Context) error {
	text := c.QueryParam("text")
	if strings.TrimSpace(text) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_text",
			Message: "Missing text for TTS",
		})
	}
	return h.synthesize(c, text, "whatsapp-feedback.mp3")
}

func (h *Handler) synthesize(c echo.Context, text, filename string) error {
	if h.TTS == nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "tts_not_configured",
			Message: "Speech synthesis is not configured",
		})
	}

	audioChan, err := h.TTS.ConvertTextToSpeech(c.Request().Context(), text)
	if err != nil {
		h.Logger.Error("TTS request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "tts_failed",
			Message: "Failed to generate audio",
		})
	}

	var audio []byte
	for chunk := range audioChan {
		audio = append(audio, chunk...)
	}
	if len(audio) == 0 {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "tts_failed",
			Message: "Failed to generate audio",
		})
	}

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

// practiceSocket upgrades an authenticated request to a practice channel.
func (h *Handler) practiceSocket(c echo.Context) error {
	claims, err := h.bearerClaims(c)
	if err != nil {
		h.Logger.Warn("WebSocket connection rejected", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "A valid bearer token is required",
		})
	}

	return websocket.Serve(h.Hub, c, claims.ClientID, h.Logger)
}

// requireToken guards API routes with bearer token validation.
func (h *Handler) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := h.bearerClaims(c); err != nil {
			h.Logger.Warn("Request rejected", zap.String("path", c.Path()), zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "A valid bearer token is required",
			})
		}
		return next(c)
	}
}

func (h *Handler) bearerClaims(c echo.Context) (*auth.ClientClaims, error) {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, fmt.Errorf("missing bearer token: %w", entities.ErrAuthFailure)
	}
	return h.Auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
}

// analyzeFailure maps pipeline failures to the upload path's status codes.
func analyzeFailure(err error) (int, string) {
	switch {
	case errors.Is(err, entities.ErrEmptyAudio):
		return http.StatusBadRequest, "empty_audio"
	case errors.Is(err, entities.ErrTranscriptionEmpty):
		return http.StatusUnprocessableEntity, "transcription_empty"
	case errors.Is(err, entities.ErrMalformedScoring):
		return http.StatusBadGateway, "malformed_scoring"
	case errors.Is(err, entities.ErrConfigMissing):
		return http.StatusInternalServerError, "configuration_missing"
	default:
		return http.StatusBadGateway, "upstream_unavailable"
	}
}
