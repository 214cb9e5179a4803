// internal/rating/types.go

// Package rating turns sentiment judgments and questionnaire scores into a
// final 1-5 rating. Remote and local estimates are reconciled, and a
// three-tier degradation path keeps the engine answering when the remote
// judge is unavailable.
package rating

import "math"

// FallbackTier records which tier produced a result.
type FallbackTier string

const (
	TierRemote  FallbackTier = "remote"
	TierLocal   FallbackTier = "local"
	TierDefault FallbackTier = "default"
)

// Calculation methods carried in results for observability.
const (
	MethodRemoteText   = "mistral_text_only"
	MethodRemoteHybrid = "mistral_hybrid"
	MethodLocal        = "local_algorithm"
	MethodFallback     = "fallback_local"
	MethodDefault      = "default"
)

// LocalComparison reports how the remote rating compared to the local one.
type LocalComparison struct {
	LocalRating  float64 `json:"local_rating"`
	Difference   float64 `json:"difference"`
	Coherence    string  `json:"coherence"`
	WeightRemote float64 `json:"weight_remote,omitempty"`
	WeightLocal  float64 `json:"weight_local,omitempty"`
}

// Result is the outcome of a rating evaluation. SuggestedRating is clamped to
// [1, 5] and rounded to one decimal; Confidence stays in [0, 1].
type Result struct {
	SuggestedRating       float64            `json:"suggested_rating"`
	Confidence            float64            `json:"confidence"`
	Justification         string             `json:"justification"`
	Factors               map[string]float64 `json:"factors"`
	HybridMode            bool               `json:"hybrid_mode"`
	FallbackTier          FallbackTier       `json:"fallback_tier"`
	CalculationMethod     string             `json:"calculation_method"`
	ReconciliationApplied bool               `json:"reconciliation_applied"`
	LocalComparison       *LocalComparison   `json:"local_comparison,omitempty"`
	Error                 string             `json:"error,omitempty"`
}

// DefaultResult is the last-resort answer when neither the remote judge nor
// the local estimator can produce anything.
func DefaultResult(hybrid bool, reason string) Result {
	return Result{
		SuggestedRating: 3.0,
		Confidence:      0.0,
		Justification:   "Note par défaut en l'absence de données suffisantes",
		Factors: map[string]float64{
			"sentiment_weight": 0.0,
			"intensity_weight": 0.0,
			"content_weight":   0.0,
		},
		HybridMode:        hybrid,
		FallbackTier:      TierDefault,
		CalculationMethod: MethodDefault,
		Error:             reason,
	}
}

func clampRating(v float64) float64 {
	return math.Max(1.0, math.Min(5.0, v))
}

func clampConfidence(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
