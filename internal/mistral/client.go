// internal/mistral/client.go

// Package mistral calls the Mistral chat-completion endpoint to obtain
// sentiment judgments, rating suggestions and review titles. Responses are
// JSON embedded in the completion text; the client validates them against a
// schema and caches successful results by prompt and sampling parameters.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rating-engine/internal/cache"
	"rating-engine/internal/common/config"
	stderrors "rating-engine/internal/common/errors"
	"rating-engine/internal/common/logger"
	"rating-engine/internal/common/metrics"
)

const userAgent = "hospitalidee-rating-engine/1.0"

// Client is a Mistral chat-completion client. Safe for concurrent use.
type Client struct {
	cfg        config.MistralConfig
	httpClient *http.Client
	store      cache.Store
	logger     logger.Logger
}

// NewClient creates a Mistral client. The cache store may be nil to disable
// response caching.
func NewClient(cfg config.MistralConfig, store cache.Store, log logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "mistral-client"}),
	}
}

// samplingParams returns the generation parameters that identify a request
// for caching.
func (c *Client) samplingParams() map[string]interface{} {
	return map[string]interface{}{
		"model":             c.cfg.Model,
		"temperature":       c.cfg.Temperature,
		"max_tokens":        c.cfg.MaxTokens,
		"top_p":             c.cfg.TopP,
		"presence_penalty":  c.cfg.PresencePenalty,
		"frequency_penalty": c.cfg.FrequencyPenalty,
	}
}

// complete sends a prompt and returns the raw completion text. Cached
// responses are served without a remote call; transient failures are retried
// with exponential backoff, honoring Retry-After on rate limits.
func (c *Client) complete(ctx context.Context, operation, prompt string) (string, error) {
	cacheKey := cache.Key(prompt, c.samplingParams())

	if c.store != nil {
		if content, ok, err := c.store.Get(ctx, cacheKey); err != nil {
			c.logger.WithError(err).Warn("cache lookup failed, calling remote", nil)
		} else if ok {
			c.logger.Debug("completion served from cache",
				map[string]interface{}{"operation": operation})
			return content, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoffFor(lastErr, attempt)
			c.logger.Warn("retrying remote call", map[string]interface{}{
				"operation": operation,
				"attempt":   attempt,
				"backoff":   backoff.String(),
			})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", stderrors.NewRemoteUnavailableError(ctx.Err())
			}
		}

		content, err := c.doRequest(ctx, prompt)
		if err == nil {
			metrics.RemoteCallsTotal.WithLabelValues(operation, "success").Inc()
			if c.store != nil {
				if putErr := c.store.Put(ctx, cacheKey, content); putErr != nil {
					c.logger.WithError(putErr).Warn("cache write failed", nil)
				}
			}
			return content, nil
		}

		lastErr = err
		code := stderrors.CodeOf(err)
		metrics.RemoteCallErrors.WithLabelValues(operation, string(code)).Inc()

		if stdErr := stderrors.AsStandard(err); stdErr != nil && !stdErr.Retryable {
			metrics.RemoteCallsTotal.WithLabelValues(operation, "error").Inc()
			return "", err
		}
	}

	metrics.RemoteCallsTotal.WithLabelValues(operation, "error").Inc()
	return "", lastErr
}

// backoffFor picks the wait before the given retry attempt. Rate-limit
// responses carry their own Retry-After delay.
func (c *Client) backoffFor(err error, attempt int) time.Duration {
	if stdErr := stderrors.AsStandard(err); stdErr != nil {
		if retryAfter, ok := stdErr.Metadata["retryAfter"].(time.Duration); ok && retryAfter > 0 {
			return retryAfter
		}
	}
	return time.Duration(100*(1<<(attempt-1))) * time.Millisecond
}

// doRequest performs a single chat-completion call and maps failures to
// domain error codes.
func (c *Client) doRequest(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:            c.cfg.Model,
		Messages:         []chatMessage{{Role: "user", Content: prompt}},
		Temperature:      c.cfg.Temperature,
		MaxTokens:        c.cfg.MaxTokens,
		TopP:             c.cfg.TopP,
		PresencePenalty:  c.cfg.PresencePenalty,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", stderrors.NewRemoteUnavailableError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("remote call completed", map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})

	switch {
	case resp.StatusCode == http.StatusOK:
		// handled below
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", stderrors.NewAuthError(fmt.Sprintf("endpoint returned %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", stderrors.NewRateLimitedError(parseRetryAfter(resp.Header.Get("Retry-After")))
	default:
		return "", stderrors.NewRemoteUnavailableError(
			fmt.Errorf("endpoint returned status %d", resp.StatusCode))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", stderrors.NewRemoteUnavailableError(fmt.Errorf("failed to read response: %w", err))
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", stderrors.NewMalformedResponseError(fmt.Errorf("completion decode failed: %w", err))
	}
	if len(completion.Choices) == 0 {
		return "", stderrors.NewMalformedResponseError(fmt.Errorf("completion has no choices"))
	}

	return completion.Choices[0].Message.Content, nil
}

// parseRetryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form. Zero means no usable value.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// AssessSentiment judges the sentiment of a review text. Texts shorter than
// five characters cannot be judged and fail fast.
func (c *Client) AssessSentiment(ctx context.Context, text string) (*SentimentPayload, error) {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 5 {
		return nil, stderrors.NewInsufficientInputError("text too short for sentiment assessment")
	}

	content, err := c.complete(ctx, "sentiment", buildSentimentPrompt(trimmed))
	if err != nil {
		return nil, err
	}

	var payload SentimentPayload
	if err := parsePayload(content, sentimentSchema, &payload); err != nil {
		return nil, err
	}
	payload.normalize()
	return &payload, nil
}

// ComputeRating asks the model for a 1-5 rating from a sentiment assessment.
func (c *Client) ComputeRating(ctx context.Context, sentiment *SentimentPayload) (*RatingPayload, error) {
	sentimentJSON, err := json.Marshal(sentiment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sentiment: %w", err)
	}

	content, err := c.complete(ctx, "rating", buildRatingPrompt(string(sentimentJSON)))
	if err != nil {
		return nil, err
	}

	var payload RatingPayload
	if err := parsePayload(content, ratingSchema, &payload); err != nil {
		return nil, err
	}
	payload.normalize()
	return &payload, nil
}

// ComputeHybridRating asks the model for a rating that blends a questionnaire
// score with the text assessment.
func (c *Client) ComputeHybridRating(ctx context.Context, questionnaireScore float64, sentiment *SentimentPayload) (*RatingPayload, error) {
	if questionnaireScore < 1 || questionnaireScore > 5 {
		return nil, stderrors.NewInvalidInputError(
			"invalid questionnaire score",
			fmt.Sprintf("score %.2f outside [1, 5]", questionnaireScore))
	}

	sentimentJSON, err := json.Marshal(sentiment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sentiment: %w", err)
	}

	content, err := c.complete(ctx, "hybrid_rating",
		buildHybridRatingPrompt(questionnaireScore, string(sentimentJSON)))
	if err != nil {
		return nil, err
	}

	var payload RatingPayload
	if err := parsePayload(content, ratingSchema, &payload); err != nil {
		return nil, err
	}
	payload.normalize()
	return &payload, nil
}

// GenerateTitle asks the model for a short review title.
func (c *Client) GenerateTitle(ctx context.Context, sentiment *SentimentPayload, rating float64, text string) (*TitlePayload, error) {
	sentimentJSON, err := json.Marshal(sentiment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sentiment: %w", err)
	}

	content, err := c.complete(ctx, "title", buildTitlePrompt(string(sentimentJSON), rating, text))
	if err != nil {
		return nil, err
	}

	var payload TitlePayload
	if err := parsePayload(content, titleSchema, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
