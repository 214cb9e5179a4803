// internal/mistral/payloads.go
package mistral

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderrors "rating-engine/internal/common/errors"
)

// chatRequest is the wire format of a chat-completion call.
type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	PresencePenalty  float64       `json:"presence_penalty"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the completion response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// SentimentPayload is the judged sentiment extracted from a completion.
type SentimentPayload struct {
	Sentiment          string   `json:"sentiment"`
	Confidence         float64  `json:"confidence"`
	EmotionalIntensity float64  `json:"emotional_intensity"`
	PositiveIndicators []string `json:"positive_indicators"`
	NegativeIndicators []string `json:"negative_indicators"`
	KeyThemes          []string `json:"key_themes"`
}

// RatingPayload is the judged rating extracted from a completion.
type RatingPayload struct {
	SuggestedRating float64            `json:"suggested_rating"`
	Confidence      float64            `json:"confidence"`
	Justification   string             `json:"justification"`
	RatingFactors   map[string]float64 `json:"rating_factors"`
}

// TitlePayload is a generated review title with alternatives.
type TitlePayload struct {
	SuggestedTitle    string   `json:"suggested_title"`
	AlternativeTitles []string `json:"alternative_titles"`
	MainTheme         string   `json:"main_theme"`
	Confidence        float64  `json:"confidence"`
}

// Schemas for the JSON the model is instructed to return. Validation failures
// map to ErrCodeSchemaInvalid and trigger the local fallback. Only structure
// is validated here: out-of-range numeric values and unknown sentiment labels
// are normalized after decoding instead of rejected.
var sentimentSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"sentiment", "confidence", "emotional_intensity"},
	"properties": map[string]interface{}{
		"sentiment":           map[string]interface{}{"type": "string"},
		"confidence":          map[string]interface{}{"type": "number"},
		"emotional_intensity": map[string]interface{}{"type": "number"},
	},
}

var ratingSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"suggested_rating"},
	"properties": map[string]interface{}{
		"suggested_rating": map[string]interface{}{"type": "number"},
		"confidence":       map[string]interface{}{"type": "number"},
	},
}

var titleSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"suggested_title"},
	"properties": map[string]interface{}{
		"suggested_title": map[string]interface{}{"type": "string"},
	},
}

// normalize clamps the judged values into their documented ranges and maps
// unknown sentiment labels to neutral.
func (p *SentimentPayload) normalize() {
	switch strings.ToLower(strings.TrimSpace(p.Sentiment)) {
	case "positif":
		p.Sentiment = "positif"
	case "negatif", "négatif":
		p.Sentiment = "negatif"
	default:
		p.Sentiment = "neutre"
	}
	p.Confidence = clampUnit(p.Confidence)
	p.EmotionalIntensity = clampUnit(p.EmotionalIntensity)
}

// normalize clamps the rating to the 1-5 scale and the confidence to [0, 1].
func (p *RatingPayload) normalize() {
	if p.SuggestedRating < 1 {
		p.SuggestedRating = 1
	} else if p.SuggestedRating > 5 {
		p.SuggestedRating = 5
	}
	p.Confidence = clampUnit(p.Confidence)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// extractJSON strips markdown fences the model sometimes wraps around its
// JSON answer.
func extractJSON(content string) string {
	cleaned := strings.TrimSpace(content)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// parsePayload decodes the model content into out after schema validation.
func parsePayload(content string, schema map[string]interface{}, out interface{}) error {
	raw := extractJSON(content)

	var document map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &document); err != nil {
		return stderrors.NewMalformedResponseError(fmt.Errorf("response is not JSON: %w", err))
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return stderrors.NewSchemaInvalidError(fmt.Sprintf("validation error: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return stderrors.NewSchemaInvalidError(fmt.Sprintf("payload validation failed: %v", errs))
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return stderrors.NewMalformedResponseError(fmt.Errorf("payload decode failed: %w", err))
	}
	return nil
}
