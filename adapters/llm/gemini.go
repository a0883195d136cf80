package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/twokeyapp/lahja/domain/entities"
	"github.com/twokeyapp/lahja/domain/repositories"
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = 0.3

	systemPrompt = "You are a friendly but strict Levantine Arabic pronunciation and translation coach. " +
		"The student heard a phrase in their own language and spoke their translation into Levantine Arabic. " +
		"Judge translation accuracy against the target reference and give concise, actionable pronunciation " +
		"feedback (focus on Levantine phonemes like the Qaf glottal stop, Haa, and 'Ayn). Be lenient with " +
		"synonyms. Return STRICT JSON with keys transcription, translation_score (0-100), " +
		"pronunciation_score (0-100), overall_score (0-100), and feedback."
)

// GeminiConfig holds configuration for the Gemini evaluator.
// Required fields:
// - APIKey: your Google AI API key
// Optional fields with defaults:
// - Model: the model to use (default: "gemini-2.0-flash")
// - Temperature: sampling temperature between 0 and 1 (default: 0.3)
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GeminiEvaluator implements the Evaluator interface using Google's Gemini API
type GeminiEvaluator struct {
	client      *genai.Client
	logger      *zap.Logger
	model       string
	temperature float32
}

// Ensure GeminiEvaluator implements the Evaluator interface
var _ repositories.Evaluator = (*GeminiEvaluator)(nil)

// NewGeminiEvaluator creates a new Gemini evaluator instance
func NewGeminiEvaluator(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiEvaluator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("google AI API key is required: %w", entities.ErrConfigMissing)
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default model", zap.String("model", model))
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	return &GeminiEvaluator{
		client:      client,
		logger:      logger,
		model:       model,
		temperature: temperature,
	}, nil
}

// Evaluate judges the transcription against the target phrase. The call is
// single shot; transport failures surface as entities.ErrUpstreamUnavailable
// and responses that cannot be parsed as entities.ErrMalformedScoring.
func (g *GeminiEvaluator) Evaluate(ctx context.Context, transcription string, phrase entities.Phrase) (entities.ScoreRecord, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(systemPrompt, genai.RoleUser),
		genai.NewContentFromText(buildUserPrompt(transcription, phrase), genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		g.logger.Error("Gemini evaluation call failed", zap.Error(err))
		return entities.ScoreRecord{}, fmt.Errorf("evaluation call failed: %w", entities.ErrUpstreamUnavailable)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return entities.ScoreRecord{}, fmt.Errorf("evaluation returned no candidates: %w", entities.ErrMalformedScoring)
	}

	var responseText string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			responseText += part.Text
		}
	}

	record, err := ParseEvaluation(responseText)
	if err != nil {
		g.logger.Warn("Gemini returned unparseable evaluation",
			zap.String("response", responseText),
			zap.Error(err))
		return entities.ScoreRecord{}, err
	}

	g.logger.Info("Evaluation completed",
		zap.String("transcription", record.Transcription),
		zap.Int("feedbackLength", len(record.Feedback)))

	return record, nil
}

func buildUserPrompt(transcription string, phrase entities.Phrase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phrase shown to the student: %s\n", phrase.SourceText)
	if phrase.TargetReference != "" {
		fmt.Fprintf(&b, "Target reference (Levantine Arabic): %s\n", phrase.TargetReference)
	}
	if phrase.Transliteration != "" {
		fmt.Fprintf(&b, "Transliteration: %s\n", phrase.Transliteration)
	}
	if phrase.Hint != "" {
		fmt.Fprintf(&b, "Hint given to the student: %s\n", phrase.Hint)
	}
	fmt.Fprintf(&b, "Transcription of what the student said: %s\n", transcription)
	b.WriteString("Return JSON with transcription, translation_score, pronunciation_score, overall_score, feedback.")
	return b.String()
}

// evaluationPayload mirrors the model's JSON output. Score fields stay raw
// so integer parsing failures degrade to an absent field instead of failing
// the whole decode.
type evaluationPayload struct {
	Transcription      string          `json:"transcription"`
	Feedback           string          `json:"feedback"`
	TranslationScore   json.RawMessage `json:"translation_score"`
	PronunciationScore json.RawMessage `json:"pronunciation_score"`
	OverallScore       json.RawMessage `json:"overall_score"`
	// Older prompt revisions asked for a single "score" key.
	Score json.RawMessage `json:"score"`
}

// ParseEvaluation converts the model's JSON text into a tagged ScoreRecord.
// The record still has to pass Normalize before it becomes a result.
func ParseEvaluation(text string) (entities.ScoreRecord, error) {
	cleaned := stripCodeFence(text)

	var payload evaluationPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return entities.ScoreRecord{}, fmt.Errorf("evaluation is not valid JSON: %w", entities.ErrMalformedScoring)
	}

	record := entities.ScoreRecord{
		Transcription: strings.TrimSpace(payload.Transcription),
		Feedback:      strings.TrimSpace(payload.Feedback),
		Translation:   parseScoreField(payload.TranslationScore),
		Pronunciation: parseScoreField(payload.PronunciationScore),
		Overall:       parseScoreField(payload.OverallScore),
	}
	if record.Overall == nil {
		record.Overall = parseScoreField(payload.Score)
	}

	return record, nil
}

// parseScoreField extracts an integer from a raw JSON score value. Accepts
// bare numbers and numeric strings; anything else counts as absent.
func parseScoreField(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}

	text := strings.TrimSpace(string(raw))
	text = strings.Trim(text, `"`)
	if text == "" || text == "null" {
		return nil
	}

	if v, err := strconv.Atoi(text); err == nil {
		return &v
	}

	// Models occasionally emit integral floats like 85.0.
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == float64(int(f)) {
		v := int(f)
		return &v
	}

	return nil
}

// stripCodeFence removes a surrounding markdown code fence if present.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
