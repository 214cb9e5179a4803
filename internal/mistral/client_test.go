// internal/mistral/client_test.go
package mistral

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rating-engine/internal/cache"
	"rating-engine/internal/common/config"
	stderrors "rating-engine/internal/common/errors"
	"rating-engine/internal/common/logger"
)

func testConfig(baseURL string) config.MistralConfig {
	return config.MistralConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "mistral-small-latest",
		Temperature: 0.3,
		MaxTokens:   1000,
		TopP:        0.9,
		Timeout:     5000,
		MaxRetries:  3,
	}
}

// completionWith wraps a JSON answer in the chat-completion envelope.
func completionWith(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	})
	require.NoError(t, err)
	return body
}

func TestAssessSentimentSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral-small-latest", req["model"])
		assert.Equal(t, 0.3, req["temperature"])

		w.Write(completionWith(t, `{"sentiment": "positif", "confidence": 0.85, "emotional_intensity": 0.7, "key_themes": ["soins"]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	payload, err := client.AssessSentiment(context.Background(), "Personnel excellent, je recommande")
	require.NoError(t, err)
	assert.Equal(t, "positif", payload.Sentiment)
	assert.Equal(t, 0.85, payload.Confidence)
	assert.Equal(t, []string{"soins"}, payload.KeyThemes)
}

func TestAssessSentimentFencedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionWith(t, "```json\n{\"sentiment\": \"negatif\", \"confidence\": 0.6, \"emotional_intensity\": 0.4}\n```"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	payload, err := client.AssessSentiment(context.Background(), "Très déçu par l'accueil")
	require.NoError(t, err)
	assert.Equal(t, "negatif", payload.Sentiment)
}

func TestAssessSentimentTooShort(t *testing.T) {
	client := NewClient(testConfig("http://unused"), nil, logger.NewTestLogger(t))

	_, err := client.AssessSentiment(context.Background(), "ok")
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeInsufficientInput, stderrors.CodeOf(err))
}

func TestAssessSentimentAuthErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	_, err := client.AssessSentiment(context.Background(), "Personnel excellent")
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeAuthError, stderrors.CodeOf(err))
	assert.Equal(t, 1, calls)
}

func TestAssessSentimentRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(completionWith(t, `{"sentiment": "neutre", "confidence": 0.5, "emotional_intensity": 0.2}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	payload, err := client.AssessSentiment(context.Background(), "Séjour sans histoire")
	require.NoError(t, err)
	assert.Equal(t, "neutre", payload.Sentiment)
	assert.Equal(t, 3, calls)
}

func TestAssessSentimentExhaustsRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	_, err := client.AssessSentiment(context.Background(), "Personnel excellent")
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeRemoteUnavailable, stderrors.CodeOf(err))
	assert.Equal(t, 4, calls) // initial attempt plus three retries
}

func TestAssessSentimentHonorsRetryAfter(t *testing.T) {
	calls := 0
	var firstRetryDelay time.Duration
	var firstCall time.Time

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch calls {
		case 1:
			firstCall = time.Now()
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			firstRetryDelay = time.Since(firstCall)
			w.Write(completionWith(t, `{"sentiment": "positif", "confidence": 0.8, "emotional_intensity": 0.5}`))
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	_, err := client.AssessSentiment(context.Background(), "Personnel excellent")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, firstRetryDelay, time.Second)
}

func TestAssessSentimentMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionWith(t, "Je ne peux pas répondre en JSON"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	_, err := client.AssessSentiment(context.Background(), "Personnel excellent")
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeMalformedResponse, stderrors.CodeOf(err))
}

func TestAssessSentimentSchemaInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Valid JSON but sentiment is missing
		w.Write(completionWith(t, `{"confidence": 0.8, "emotional_intensity": 0.5}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	_, err := client.AssessSentiment(context.Background(), "Personnel excellent")
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeSchemaInvalid, stderrors.CodeOf(err))
}

func TestCompleteUsesCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write(completionWith(t, `{"sentiment": "positif", "confidence": 0.9, "emotional_intensity": 0.8}`))
	}))
	defer server.Close()

	store := cache.NewMemoryStore(5*time.Minute, 100)
	client := NewClient(testConfig(server.URL), store, logger.NewTestLogger(t))

	_, err := client.AssessSentiment(context.Background(), "Personnel excellent et attentif")
	require.NoError(t, err)
	_, err = client.AssessSentiment(context.Background(), "Personnel excellent et attentif")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestComputeRating(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionWith(t, `{"suggested_rating": 4.5, "confidence": 0.9, "justification": "Expérience très positive", "rating_factors": {"sentiment_impact": 0.7}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	payload, err := client.ComputeRating(context.Background(), &SentimentPayload{
		Sentiment: "positif", Confidence: 0.9, EmotionalIntensity: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, 4.5, payload.SuggestedRating)
	assert.Equal(t, "Expérience très positive", payload.Justification)
}

func TestComputeRatingClampsOutOfRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionWith(t, `{"suggested_rating": 5.6, "confidence": 1.4}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	payload, err := client.ComputeRating(context.Background(), &SentimentPayload{Sentiment: "positif"})
	require.NoError(t, err)
	assert.Equal(t, 5.0, payload.SuggestedRating)
	assert.Equal(t, 1.0, payload.Confidence)
}

func TestComputeRatingClampsLowRating(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionWith(t, `{"suggested_rating": 0.2, "confidence": -0.1}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	payload, err := client.ComputeRating(context.Background(), &SentimentPayload{Sentiment: "negatif"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, payload.SuggestedRating)
	assert.Equal(t, 0.0, payload.Confidence)
}

func TestAssessSentimentNormalizesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionWith(t, `{"sentiment": "mitigé", "confidence": 1.2, "emotional_intensity": -0.3}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	payload, err := client.AssessSentiment(context.Background(), "Personnel excellent")
	require.NoError(t, err)
	assert.Equal(t, "neutre", payload.Sentiment)
	assert.Equal(t, 1.0, payload.Confidence)
	assert.Equal(t, 0.0, payload.EmotionalIntensity)
}

func TestAssessSentimentNormalizesAccentedLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionWith(t, `{"sentiment": "Négatif", "confidence": 0.8, "emotional_intensity": 0.6}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	payload, err := client.AssessSentiment(context.Background(), "Attente inadmissible")
	require.NoError(t, err)
	assert.Equal(t, "negatif", payload.Sentiment)
}

func TestComputeHybridRatingValidatesScore(t *testing.T) {
	client := NewClient(testConfig("http://unused"), nil, logger.NewTestLogger(t))

	_, err := client.ComputeHybridRating(context.Background(), 6.0, &SentimentPayload{})
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeInvalidInput, stderrors.CodeOf(err))
}

func TestComputeHybridRating(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionWith(t, `{"suggested_rating": 4.2, "confidence": 0.85, "justification": "Questionnaire et texte cohérents"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	payload, err := client.ComputeHybridRating(context.Background(), 4.0, &SentimentPayload{
		Sentiment: "positif", Confidence: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, 4.2, payload.SuggestedRating)
}

func TestGenerateTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionWith(t, `{"suggested_title": "Excellent suivi médical", "alternative_titles": ["Personnel à l'écoute"], "main_theme": "soins", "confidence": 0.8}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil, logger.NewTestLogger(t))

	payload, err := client.GenerateTitle(context.Background(), &SentimentPayload{Sentiment: "positif"}, 4.5, "Très bon séjour")
	require.NoError(t, err)
	assert.Equal(t, "Excellent suivi médical", payload.SuggestedTitle)
	assert.Equal(t, "soins", payload.MainTheme)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"padded", "  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.content))
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("garbage"))

	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	assert.Greater(t, parseRetryAfter(future), 5*time.Second)
}

func TestSamplingParamsInCacheKey(t *testing.T) {
	cfg := testConfig("http://unused")
	client := NewClient(cfg, nil, logger.NewTestLogger(t))

	params := client.samplingParams()
	for _, key := range []string{"model", "temperature", "max_tokens", "top_p", "presence_penalty", "frequency_penalty"} {
		_, ok := params[key]
		assert.True(t, ok, fmt.Sprintf("missing sampling param %s", key))
	}
}
