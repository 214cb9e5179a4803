// internal/rating/service.go
package rating

import (
	"context"
	"fmt"
	"strconv"
	"time"

	stderrors "rating-engine/internal/common/errors"
	"rating-engine/internal/common/logger"
	"rating-engine/internal/common/metrics"
	"rating-engine/internal/common/observability"
	"rating-engine/internal/heuristic"
	"rating-engine/internal/mistral"
	"rating-engine/internal/sentiment"
)

// RemoteJudge is the remote judgment surface the service depends on.
type RemoteJudge interface {
	AssessSentiment(ctx context.Context, text string) (*mistral.SentimentPayload, error)
	ComputeRating(ctx context.Context, sentiment *mistral.SentimentPayload) (*mistral.RatingPayload, error)
	ComputeHybridRating(ctx context.Context, questionnaireScore float64, sentiment *mistral.SentimentPayload) (*mistral.RatingPayload, error)
}

// Service orchestrates the three evaluation tiers: remote judgment first,
// local estimation when the remote judge fails, and a neutral default when
// the input is unusable.
type Service struct {
	judge     RemoteJudge
	estimator *heuristic.Estimator
	engine    *Engine
	obs       *observability.Observability
	logger    logger.Logger
}

func NewService(judge RemoteJudge, estimator *heuristic.Estimator, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		judge:     judge,
		estimator: estimator,
		engine:    NewEngine(),
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "rating-service"}),
	}
}

// Evaluate produces a rating for a review text, optionally blended with a
// questionnaire score. It never returns an error: degraded tiers carry the
// triggering error in the result instead.
func (s *Service) Evaluate(ctx context.Context, text string, questionnaireScore *float64) Result {
	start := time.Now()
	hybrid := questionnaireScore != nil

	result := s.evaluate(ctx, text, questionnaireScore)

	duration := time.Since(start)
	tier := string(result.FallbackTier)
	metrics.EvaluationsTotal.WithLabelValues(tier, strconv.FormatBool(hybrid)).Inc()
	metrics.EvaluationDuration.WithLabelValues(tier).Observe(duration.Seconds())
	if s.obs != nil {
		s.obs.RecordEvaluation(ctx, tier)
		s.obs.RecordEvaluationDuration(ctx, duration, tier)
	}

	s.logger.Info("evaluation completed", map[string]interface{}{
		"tier":     tier,
		"rating":   result.SuggestedRating,
		"hybrid":   hybrid,
		"duration": duration.String(),
	})
	return result
}

func (s *Service) evaluate(ctx context.Context, text string, questionnaireScore *float64) Result {
	cleaned := sentiment.CleanText(text)
	if len([]rune(cleaned)) < 5 {
		s.logger.Warn("text too short, returning default rating", nil)
		return DefaultResult(questionnaireScore != nil, "Données insuffisantes")
	}

	judged, err := s.judge.AssessSentiment(ctx, cleaned)
	if err != nil {
		return s.localFallback(cleaned, questionnaireScore, err)
	}

	var payload *mistral.RatingPayload
	if questionnaireScore != nil {
		payload, err = s.judge.ComputeHybridRating(ctx, *questionnaireScore, judged)
	} else {
		payload, err = s.judge.ComputeRating(ctx, judged)
	}
	if err != nil {
		return s.localFallback(cleaned, questionnaireScore, err)
	}

	remote := s.engine.FromRemote(payload, questionnaireScore != nil)

	// The comparison rating applies the local formula to the remote
	// sentiment judgment
	local := s.engine.LocalRating(estimateFromPayload(judged), questionnaireScore)

	return s.engine.Reconcile(remote, local)
}

// localFallback answers from the heuristic estimator alone. Confidence is
// halved because no remote judgment backs the result.
func (s *Service) localFallback(text string, questionnaireScore *float64, cause error) Result {
	code := stderrors.CodeOf(cause)
	if !stderrors.TriggersLocalFallback(code) {
		s.logger.WithError(cause).Warn("non-degradable error, returning default rating", nil)
		return DefaultResult(questionnaireScore != nil, cause.Error())
	}

	s.logger.WithError(cause).Warn("remote judgment failed, using local estimator",
		map[string]interface{}{"error_code": string(code)})

	estimate := s.estimator.Estimate(text)
	result := s.engine.LocalRating(estimate, questionnaireScore)
	result.Confidence = clampConfidence(result.Confidence * 0.5)
	result.FallbackTier = TierLocal
	result.CalculationMethod = MethodFallback
	result.Justification = fmt.Sprintf("Mode dégradé: %s", result.Justification)
	result.Error = cause.Error()
	return result
}

// estimateFromPayload adapts a remote sentiment judgment to the local rating
// formula's input.
func estimateFromPayload(p *mistral.SentimentPayload) heuristic.Estimate {
	return heuristic.Estimate{
		Sentiment:          p.Sentiment,
		Confidence:         p.Confidence,
		EmotionalIntensity: p.EmotionalIntensity,
		PositiveIndicators: p.PositiveIndicators,
		NegativeIndicators: p.NegativeIndicators,
		KeyThemes:          p.KeyThemes,
	}
}
