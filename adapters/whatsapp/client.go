package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/domain/repositories"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v18.0"

// Config holds configuration for the WhatsApp Cloud API client.
// Required fields:
// - Token: the WhatsApp Cloud API bearer token
// - PhoneNumberID: the business phone number id messages are sent from
// Optional fields with defaults:
// - GraphBaseURL: the Graph API base URL (default: "https://graph.facebook.com/v18.0")
type Config struct {
	Token         string
	PhoneNumberID string
	GraphBaseURL  string
}

// Client implements the ChatSender and MediaResolver interfaces against the
// WhatsApp Cloud (Graph) API.
type Client struct {
	token         string
	phoneNumberID string
	graphBaseURL  string
	httpClient    *http.Client
	logger        *zap.Logger
}

// Ensure Client implements the consumed collaborator interfaces
var (
	_ repositories.ChatSender    = (*Client)(nil)
	_ repositories.MediaResolver = (*Client)(nil)
)

// NewClient creates a new WhatsApp Cloud API client.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("whatsapp token is required: %w", entities.ErrConfigMissing)
	}
	if config.PhoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp phone number id is required: %w", entities.ErrConfigMissing)
	}

	graphBaseURL := config.GraphBaseURL
	if graphBaseURL == "" {
		graphBaseURL = defaultGraphBaseURL
	}

	return &Client{
		token:         config.Token,
		phoneNumberID: config.PhoneNumberID,
		graphBaseURL:  graphBaseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}, nil
}

type sendTextRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Text             sendText `json:"text"`
}

type sendText struct {
	Body string `json:"body"`
}

// SendText delivers a text message to a WhatsApp user.
func (c *Client) SendText(ctx context.Context, userID string, text string) error {
	payload, err := json.Marshal(sendTextRequest{
		MessagingProduct: "whatsapp",
		To:               userID,
		Text:             sendText{Body: text},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphBaseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", entities.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("WhatsApp send failed",
			zap.String("to", userID),
			zap.Int("statusCode", resp.StatusCode),
			zap.ByteString("response", body))
		return fmt.Errorf("send returned status %d: %w", resp.StatusCode, entities.ErrUpstreamUnavailable)
	}

	c.logger.Info("WhatsApp message sent", zap.String("to", userID), zap.Int("length", len(text)))
	return nil
}

type mediaLookupResponse struct {
	URL string `json:"url"`
}

// Fetch resolves a media id to raw audio bytes. The Cloud API requires two
// calls: the media id resolves to a short-lived download URL, which is then
// fetched with the same bearer token.
func (c *Client) Fetch(ctx context.Context, mediaRef string) ([]byte, error) {
	if mediaRef == "" {
		return nil, fmt.Errorf("empty media reference: %w", entities.ErrMediaNotFound)
	}

	lookupURL := fmt.Sprintf("%s/%s", c.graphBaseURL, mediaRef)
	var lookup mediaLookupResponse
	if err := c.getJSON(ctx, lookupURL, &lookup); err != nil {
		return nil, err
	}
	if lookup.URL == "" {
		c.logger.Error("Media lookup returned no URL", zap.String("mediaRef", mediaRef))
		return nil, fmt.Errorf("media %s has no download url: %w", mediaRef, entities.ErrMediaNotFound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookup.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create media download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media download failed: %w", entities.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if err := statusToFailure(resp.StatusCode); err != nil {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Media download returned error",
			zap.String("mediaRef", mediaRef),
			zap.Int("statusCode", resp.StatusCode),
			zap.ByteString("response", body))
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media body: %w", entities.ErrUpstreamUnavailable)
	}

	c.logger.Info("Media downloaded", zap.String("mediaRef", mediaRef), zap.Int("bytes", len(data)))
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", entities.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if err := statusToFailure(resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", entities.ErrUpstreamUnavailable)
	}
	return nil
}

func statusToFailure(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return entities.ErrMediaNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return entities.ErrMediaUnauthorized
	default:
		return fmt.Errorf("provider returned status %d: %w", status, entities.ErrUpstreamUnavailable)
	}
}
