// internal/sentiment/analyzer.go

// Package sentiment runs full sentiment analyses on review texts, combining
// the remote judgment with local lexicon metadata. When the remote judge
// fails the analyzer answers from the local estimator alone.
package sentiment

import (
	"context"
	"regexp"
	"strings"

	stderrors "rating-engine/internal/common/errors"
	"rating-engine/internal/common/logger"
	"rating-engine/internal/heuristic"
	"rating-engine/internal/mistral"
)

const maxTextLength = 2000

var (
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// RemoteJudge is the remote surface the analyzer depends on.
type RemoteJudge interface {
	AssessSentiment(ctx context.Context, text string) (*mistral.SentimentPayload, error)
}

// Analysis is a sentiment verdict enriched with local lexicon metadata and
// text statistics.
type Analysis struct {
	Sentiment          string   `json:"sentiment"`
	Confidence         float64  `json:"confidence"`
	EmotionalIntensity float64  `json:"emotional_intensity"`
	PositiveIndicators []string `json:"positive_indicators"`
	NegativeIndicators []string `json:"negative_indicators"`
	KeyThemes          []string `json:"key_themes"`

	LocalPositiveCount int      `json:"local_positive_count"`
	LocalNegativeCount int      `json:"local_negative_count"`
	LocalPositiveHits  []string `json:"local_positive_phrases"`
	LocalNegativeHits  []string `json:"local_negative_phrases"`
	LocalScore         float64  `json:"local_sentiment_score"`
	LocalIndicators    int      `json:"local_indicators_total"`

	TextLength   int    `json:"text_length"`
	WordCount    int    `json:"word_count"`
	FallbackMode bool   `json:"fallback_mode"`
	Error        string `json:"error,omitempty"`
}

// Analyzer orchestrates remote and local sentiment analysis.
type Analyzer struct {
	judge     RemoteJudge
	estimator *heuristic.Estimator
	logger    logger.Logger
}

func NewAnalyzer(judge RemoteJudge, estimator *heuristic.Estimator, log logger.Logger) *Analyzer {
	return &Analyzer{
		judge:     judge,
		estimator: estimator,
		logger:    log.WithFields(map[string]interface{}{"component": "sentiment-analyzer"}),
	}
}

// CleanText strips control characters, collapses whitespace and bounds the
// text length.
func CleanText(text string) string {
	cleaned := controlChars.ReplaceAllString(text, "")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if runes := []rune(cleaned); len(runes) > maxTextLength {
		cleaned = string(runes[:maxTextLength])
	}
	return cleaned
}

// Analyze judges the sentiment of a review text. Remote failures degrade to
// the local estimator with the triggering error recorded in the result.
func (a *Analyzer) Analyze(ctx context.Context, text string) Analysis {
	cleaned := CleanText(text)
	if len([]rune(cleaned)) < 5 {
		a.logger.Warn("text too short for sentiment analysis", nil)
		return Analysis{
			Sentiment:    heuristic.SentimentNeutral,
			Confidence:   0.0,
			FallbackMode: true,
			Error:        "Texte vide ou trop court",
		}
	}

	estimate := a.estimator.Estimate(cleaned)

	payload, err := a.judge.AssessSentiment(ctx, cleaned)
	if err != nil {
		a.logger.WithError(err).Warn("remote sentiment judgment failed, using local estimator",
			map[string]interface{}{"error_code": string(stderrors.CodeOf(err))})
		return a.fromEstimate(estimate, cleaned, err.Error())
	}

	return Analysis{
		Sentiment:          payload.Sentiment,
		Confidence:         payload.Confidence,
		EmotionalIntensity: payload.EmotionalIntensity,
		PositiveIndicators: payload.PositiveIndicators,
		NegativeIndicators: payload.NegativeIndicators,
		KeyThemes:          payload.KeyThemes,
		LocalPositiveCount: estimate.PositiveCount,
		LocalNegativeCount: estimate.NegativeCount,
		LocalPositiveHits:  estimate.PositivePhrases,
		LocalNegativeHits:  estimate.NegativePhrases,
		LocalScore:         estimate.Score,
		LocalIndicators:    estimate.TotalIndicators,
		TextLength:         len([]rune(cleaned)),
		WordCount:          len(strings.Fields(cleaned)),
	}
}

func (a *Analyzer) fromEstimate(estimate heuristic.Estimate, cleaned, errMsg string) Analysis {
	return Analysis{
		Sentiment:          estimate.Sentiment,
		Confidence:         estimate.Confidence,
		EmotionalIntensity: estimate.EmotionalIntensity,
		PositiveIndicators: estimate.PositiveIndicators,
		NegativeIndicators: estimate.NegativeIndicators,
		KeyThemes:          estimate.KeyThemes,
		LocalPositiveCount: estimate.PositiveCount,
		LocalNegativeCount: estimate.NegativeCount,
		LocalPositiveHits:  estimate.PositivePhrases,
		LocalNegativeHits:  estimate.NegativePhrases,
		LocalScore:         estimate.Score,
		LocalIndicators:    estimate.TotalIndicators,
		TextLength:         len([]rune(cleaned)),
		WordCount:          len(strings.Fields(cleaned)),
		FallbackMode:       true,
		Error:              errMsg,
	}
}
