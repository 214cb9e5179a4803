// internal/rating/engine.go
package rating

import (
	"fmt"
	"math"
	"strings"

	"rating-engine/internal/heuristic"
	"rating-engine/internal/mistral"
)

// Engine computes local ratings and reconciles them with remote judgments.
// It holds no state and is safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Base ratings per sentiment label. Intensity and confidence adjust around
// these anchors.
var sentimentBaseRatings = map[string]float64{
	heuristic.SentimentPositive: 4.0,
	heuristic.SentimentNeutral:  3.0,
	heuristic.SentimentNegative: 2.0,
}

// LocalRating derives a rating from a sentiment estimate without calling the
// remote judge. A questionnaire score, when present, is blended 40/60 with
// the text-derived rating.
func (e *Engine) LocalRating(estimate heuristic.Estimate, questionnaireScore *float64) Result {
	base, ok := sentimentBaseRatings[estimate.Sentiment]
	if !ok {
		base = 3.0
	}

	intensity := estimate.EmotionalIntensity
	confidence := estimate.Confidence

	switch {
	case estimate.Sentiment == heuristic.SentimentPositive && intensity > 0.8:
		base = math.Min(5.0, base+1.0)
	case estimate.Sentiment == heuristic.SentimentPositive && intensity > 0.6:
		base = math.Min(5.0, base+0.5)
	case estimate.Sentiment == heuristic.SentimentNegative && intensity > 0.8:
		base = math.Max(1.0, base-1.0)
	case estimate.Sentiment == heuristic.SentimentNegative && intensity > 0.6:
		base = math.Max(1.0, base-0.5)
	}

	// Low confidence pulls the rating toward neutral
	if confidence < 0.3 {
		base = base*0.7 + 3.0*0.3
	}

	var final float64
	var factors map[string]float64
	hybrid := questionnaireScore != nil

	if hybrid {
		final = 0.4**questionnaireScore + 0.6*base
		factors = map[string]float64{
			"questionnaire_weight": 0.4,
			"sentiment_weight":     0.4,
			"intensity_weight":     0.15,
			"content_weight":       0.05,
		}
	} else {
		final = base
		factors = map[string]float64{
			"sentiment_weight": 0.6,
			"intensity_weight": 0.3,
			"content_weight":   0.1,
		}
	}

	final = clampRating(final)

	return Result{
		SuggestedRating:   round1(final),
		Confidence:        clampConfidence(confidence),
		Justification:     localJustification(estimate.Sentiment, intensity, confidence, questionnaireScore, final),
		Factors:           factors,
		HybridMode:        hybrid,
		FallbackTier:      TierLocal,
		CalculationMethod: MethodLocal,
	}
}

// FromRemote converts a remote rating payload into a Result on the remote
// tier, clamping values the schema could not fully constrain.
func (e *Engine) FromRemote(payload *mistral.RatingPayload, hybrid bool) Result {
	method := MethodRemoteText
	if hybrid {
		method = MethodRemoteHybrid
	}

	factors := payload.RatingFactors
	if factors == nil {
		factors = map[string]float64{}
	}

	return Result{
		SuggestedRating:   round1(clampRating(payload.SuggestedRating)),
		Confidence:        clampConfidence(payload.Confidence),
		Justification:     payload.Justification,
		Factors:           factors,
		HybridMode:        hybrid,
		FallbackTier:      TierRemote,
		CalculationMethod: method,
	}
}

// Reconcile compares the remote rating with the local one. Divergence under
// one point keeps the remote rating; larger divergence blends the two with a
// weight driven by the remote confidence.
func (e *Engine) Reconcile(remote, local Result) Result {
	difference := math.Abs(remote.SuggestedRating - local.SuggestedRating)

	if difference < 1.0 {
		result := remote
		result.LocalComparison = &LocalComparison{
			LocalRating: local.SuggestedRating,
			Difference:  round1(difference),
			Coherence:   "good",
		}
		return result
	}

	var weightRemote float64
	switch {
	case remote.Confidence > 0.7:
		weightRemote = 0.8
	case remote.Confidence > 0.4:
		weightRemote = 0.6
	default:
		weightRemote = 0.4
	}

	blended := weightRemote*remote.SuggestedRating + (1.0-weightRemote)*local.SuggestedRating

	result := remote
	result.SuggestedRating = round1(clampRating(blended))
	result.ReconciliationApplied = true
	result.LocalComparison = &LocalComparison{
		LocalRating:  local.SuggestedRating,
		Difference:   round1(difference),
		Coherence:    "poor",
		WeightRemote: weightRemote,
		WeightLocal:  round1(1.0 - weightRemote),
	}
	result.Justification += fmt.Sprintf(
		" (Ajusté par réconciliation locale: écart de %.1f)", difference)
	return result
}

func localJustification(sentiment string, intensity, confidence float64, questionnaireScore *float64, finalRating float64) string {
	var parts []string

	switch sentiment {
	case heuristic.SentimentPositive:
		parts = append(parts, "Le sentiment exprimé est positif")
	case heuristic.SentimentNegative:
		parts = append(parts, "Le sentiment exprimé est négatif")
	case heuristic.SentimentNeutral:
		parts = append(parts, "Le sentiment exprimé est neutre")
	default:
		parts = append(parts, "Sentiment indéterminé")
	}

	switch {
	case intensity > 0.8:
		parts = append(parts, "avec une forte intensité émotionnelle")
	case intensity > 0.5:
		parts = append(parts, "avec une intensité émotionnelle modérée")
	default:
		parts = append(parts, "avec une faible intensité émotionnelle")
	}

	if questionnaireScore != nil {
		parts = append(parts, fmt.Sprintf(
			"La note questionnaire (%.1f/5) a été intégrée dans le calcul hybride", *questionnaireScore))
	}

	if confidence < 0.4 {
		parts = append(parts, "La confiance de l'analyse étant faible, la note a été modérée")
	}

	switch {
	case finalRating >= 4.5:
		parts = append(parts, "indiquant une expérience excellente")
	case finalRating >= 3.5:
		parts = append(parts, "indiquant une expérience satisfaisante")
	case finalRating >= 2.5:
		parts = append(parts, "indiquant une expérience mitigée")
	default:
		parts = append(parts, "indiquant une expérience décevante")
	}

	return strings.Join(parts, ". ") + "."
}
