// internal/rating/service_test.go
package rating

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	stderrors "rating-engine/internal/common/errors"
	"rating-engine/internal/common/logger"
	"rating-engine/internal/heuristic"
	"rating-engine/internal/mistral"
)

type fakeJudge struct {
	sentiment    *mistral.SentimentPayload
	sentimentErr error
	rating       *mistral.RatingPayload
	ratingErr    error
	hybridCalled bool
	ratingCalled bool
	seenText     string
}

func (f *fakeJudge) AssessSentiment(ctx context.Context, text string) (*mistral.SentimentPayload, error) {
	f.seenText = text
	return f.sentiment, f.sentimentErr
}

func (f *fakeJudge) ComputeRating(ctx context.Context, sentiment *mistral.SentimentPayload) (*mistral.RatingPayload, error) {
	f.ratingCalled = true
	return f.rating, f.ratingErr
}

func (f *fakeJudge) ComputeHybridRating(ctx context.Context, score float64, sentiment *mistral.SentimentPayload) (*mistral.RatingPayload, error) {
	f.hybridCalled = true
	return f.rating, f.ratingErr
}

func newTestService(t *testing.T, judge RemoteJudge) *Service {
	return NewService(judge, heuristic.NewEstimator(), nil, logger.NewTestLogger(t))
}

func TestEvaluateRemoteTier(t *testing.T) {
	judge := &fakeJudge{
		sentiment: &mistral.SentimentPayload{Sentiment: "positif", Confidence: 0.9, EmotionalIntensity: 0.7},
		rating:    &mistral.RatingPayload{SuggestedRating: 4.5, Confidence: 0.9, Justification: "Très positif"},
	}
	service := newTestService(t, judge)

	result := service.Evaluate(context.Background(), "Personnel excellent et attentif", nil)

	assert.Equal(t, TierRemote, result.FallbackTier)
	assert.Equal(t, 4.5, result.SuggestedRating)
	assert.True(t, judge.ratingCalled)
	assert.False(t, judge.hybridCalled)
	assert.Empty(t, result.Error)
}

func TestEvaluateHybridUsesHybridJudgment(t *testing.T) {
	judge := &fakeJudge{
		sentiment: &mistral.SentimentPayload{Sentiment: "positif", Confidence: 0.8, EmotionalIntensity: 0.5},
		rating:    &mistral.RatingPayload{SuggestedRating: 4.0, Confidence: 0.8},
	}
	service := newTestService(t, judge)
	questionnaire := 4.2

	result := service.Evaluate(context.Background(), "Bon séjour dans l'ensemble", &questionnaire)

	assert.True(t, judge.hybridCalled)
	assert.False(t, judge.ratingCalled)
	assert.True(t, result.HybridMode)
	assert.Equal(t, TierRemote, result.FallbackTier)
}

func TestEvaluateRemoteDivergenceReconciled(t *testing.T) {
	// Remote says 4.8 with high confidence but judges the text negative,
	// so the local comparison lands far away and triggers a blend.
	judge := &fakeJudge{
		sentiment: &mistral.SentimentPayload{Sentiment: "negatif", Confidence: 0.9, EmotionalIntensity: 0.9},
		rating:    &mistral.RatingPayload{SuggestedRating: 4.8, Confidence: 0.9},
	}
	service := newTestService(t, judge)

	result := service.Evaluate(context.Background(), "Très déçu par cet établissement", nil)

	// Local comparison: negatif, intensity 0.9 -> 1.0; blend 0.8*4.8 + 0.2*1.0
	assert.Equal(t, 4.0, result.SuggestedRating)
	assert.True(t, result.ReconciliationApplied)
}

func TestEvaluateFallsBackToLocalTier(t *testing.T) {
	judge := &fakeJudge{
		sentimentErr: stderrors.NewRemoteUnavailableError(assert.AnError),
	}
	service := newTestService(t, judge)

	result := service.Evaluate(context.Background(), "Personnel excellent, je recommande vivement", nil)

	assert.Equal(t, TierLocal, result.FallbackTier)
	assert.Equal(t, MethodFallback, result.CalculationMethod)
	assert.NotEmpty(t, result.Error)
	assert.Contains(t, result.Justification, "Mode dégradé")
	// Local confidence is halved on the fallback tier
	assert.LessOrEqual(t, result.Confidence, 0.35)
	assert.Greater(t, result.SuggestedRating, 3.0)
}

func TestEvaluateRatingFailureFallsBack(t *testing.T) {
	judge := &fakeJudge{
		sentiment: &mistral.SentimentPayload{Sentiment: "positif", Confidence: 0.9, EmotionalIntensity: 0.5},
		ratingErr: stderrors.NewSchemaInvalidError("missing suggested_rating"),
	}
	service := newTestService(t, judge)

	result := service.Evaluate(context.Background(), "Personnel excellent et attentif", nil)

	assert.Equal(t, TierLocal, result.FallbackTier)
	assert.NotEmpty(t, result.Error)
}

func TestEvaluateAuthErrorFallsBackToLocal(t *testing.T) {
	judge := &fakeJudge{
		sentimentErr: stderrors.NewAuthError("endpoint returned 401"),
	}
	service := newTestService(t, judge)

	result := service.Evaluate(context.Background(), "Séjour correct sans plus", nil)

	assert.Equal(t, TierLocal, result.FallbackTier)
}

func TestEvaluateShortTextDefaultTier(t *testing.T) {
	judge := &fakeJudge{}
	service := newTestService(t, judge)

	result := service.Evaluate(context.Background(), "ok", nil)

	assert.Equal(t, TierDefault, result.FallbackTier)
	assert.Equal(t, 3.0, result.SuggestedRating)
	assert.Equal(t, 0.0, result.Confidence)
	assert.NotEmpty(t, result.Error)
}

func TestEvaluateWhitespaceOnlyDefaultTier(t *testing.T) {
	service := newTestService(t, &fakeJudge{})

	result := service.Evaluate(context.Background(), "    \n\t ", nil)

	assert.Equal(t, TierDefault, result.FallbackTier)
	assert.Equal(t, 3.0, result.SuggestedRating)
}

func TestEvaluateCleansTextBeforeJudgment(t *testing.T) {
	judge := &fakeJudge{
		sentiment: &mistral.SentimentPayload{Sentiment: "positif", Confidence: 0.9, EmotionalIntensity: 0.6},
		rating:    &mistral.RatingPayload{SuggestedRating: 4.5, Confidence: 0.9},
	}
	service := newTestService(t, judge)

	result := service.Evaluate(context.Background(), "  Personnel\x00\x07 excellent   et\n\n  attentif  ", nil)

	assert.Equal(t, TierRemote, result.FallbackTier)
	assert.Equal(t, "Personnel excellent et attentif", judge.seenText)
}

func TestEvaluateTruncatesLongText(t *testing.T) {
	judge := &fakeJudge{
		sentiment: &mistral.SentimentPayload{Sentiment: "positif", Confidence: 0.9, EmotionalIntensity: 0.6},
		rating:    &mistral.RatingPayload{SuggestedRating: 4.0, Confidence: 0.8},
	}
	service := newTestService(t, judge)
	long := strings.Repeat("Personnel excellent. ", 150)

	service.Evaluate(context.Background(), long, nil)

	assert.LessOrEqual(t, len([]rune(judge.seenText)), 2000)
	assert.NotEmpty(t, judge.seenText)
}

func TestEvaluateHybridFallbackKeepsQuestionnaire(t *testing.T) {
	judge := &fakeJudge{
		sentimentErr: stderrors.NewRateLimitedError(0),
	}
	service := newTestService(t, judge)
	questionnaire := 5.0

	result := service.Evaluate(context.Background(), "Personnel excellent et très attentif", &questionnaire)

	assert.Equal(t, TierLocal, result.FallbackTier)
	assert.True(t, result.HybridMode)
	// The questionnaire still pulls the blended rating upward
	assert.GreaterOrEqual(t, result.SuggestedRating, 4.0)
}
