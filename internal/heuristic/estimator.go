// internal/heuristic/estimator.go

// Package heuristic provides a deterministic, lexicon-based sentiment
// estimator for French patient reviews. It backs the local fallback tier and
// enriches remote judgments with indicator counts.
package heuristic

import (
	"fmt"
	"regexp"
	"strings"
)

// Sentiment labels match the remote judgment vocabulary.
const (
	SentimentPositive = "positif"
	SentimentNeutral  = "neutre"
	SentimentNegative = "negatif"
)

// Estimate is the output of a local sentiment pass.
type Estimate struct {
	Sentiment          string   `json:"sentiment"`
	Confidence         float64  `json:"confidence"`
	EmotionalIntensity float64  `json:"emotional_intensity"`
	Score              float64  `json:"local_sentiment_score"`
	PositiveCount      int      `json:"local_positive_count"`
	NegativeCount      int      `json:"local_negative_count"`
	PositivePhrases    []string `json:"local_positive_phrases"`
	NegativePhrases    []string `json:"local_negative_phrases"`
	TotalIndicators    int      `json:"local_indicators_total"`
	PositiveIndicators []string `json:"positive_indicators"`
	NegativeIndicators []string `json:"negative_indicators"`
	KeyThemes          []string `json:"key_themes"`
}

// Domain keyword lexicon for patient reviews.
var positiveKeywords = []string{
	"excellent", "parfait", "recommande", "professionnel", "attentif",
	"efficace", "rassurant", "compétent", "satisfait", "merci",
	"formidable", "super", "génial", "content", "heureux",
	"bienveillant", "à l'écoute", "disponible", "souriant",
}

var negativeKeywords = []string{
	"déçu", "problème", "inadmissible", "négligent", "froid",
	"débordé", "sale", "bruyant", "incompétent", "insatisfait",
	"catastrophe", "horrible", "décevant", "inadéquat", "insuffisant",
	"indisponible", "désagréable", "impoli", "stressant",
}

// Multi-word expressions weigh double in the score.
var positiveExpressions = []*regexp.Regexp{
	regexp.MustCompile(`très (bon|bien|satisfait|content)`),
	regexp.MustCompile(`(excellent|parfait) (service|accueil|soins)`),
	regexp.MustCompile(`(recommande|conseille) vivement`),
	regexp.MustCompile(`personnel (attentif|professionnel|compétent)`),
	regexp.MustCompile(`(médecin|docteur) (excellent|formidable|compétent)`),
}

var negativeExpressions = []*regexp.Regexp{
	regexp.MustCompile(`très (déçu|mécontent|insatisfait)`),
	regexp.MustCompile(`(mauvais|horrible|catastrophique) (service|accueil|soins)`),
	regexp.MustCompile(`(personnel|médecin) (froid|désagréable|incompétent)`),
	regexp.MustCompile(`attente (trop longue|interminable)`),
	regexp.MustCompile(`(problème|difficulté) (majeur|important)`),
}

var themeKeywords = map[string][]string{
	"accueil":       {"accueil", "réception", "entrée", "arrivée"},
	"soins":         {"soins", "traitement", "médical", "thérapie", "soin"},
	"personnel":     {"personnel", "équipe", "staff", "employé"},
	"médecin":       {"médecin", "docteur", "praticien", "chirurgien"},
	"confort":       {"chambre", "lit", "repas", "confort", "propreté"},
	"organisation":  {"organisation", "rendez-vous", "planning", "attente"},
	"communication": {"explication", "information", "communication", "écoute"},
	"établissement": {"hôpital", "clinique", "établissement", "structure"},
}

// Theme extraction order is fixed so results are deterministic.
var themeOrder = []string{
	"accueil", "soins", "personnel", "médecin",
	"confort", "organisation", "communication", "établissement",
}

// Estimator runs lexicon-based sentiment estimation. It holds no state and
// is safe for concurrent use.
type Estimator struct{}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate scores text against the domain lexicon. Keyword hits count once,
// expression hits count double. The score is normalized to [-1, 1] and mapped
// to a sentiment label with a ±0.3 neutral band.
func (e *Estimator) Estimate(text string) Estimate {
	lower := strings.ToLower(text)

	positiveCount := 0
	for _, word := range positiveKeywords {
		if strings.Contains(lower, word) {
			positiveCount++
		}
	}
	negativeCount := 0
	for _, word := range negativeKeywords {
		if strings.Contains(lower, word) {
			negativeCount++
		}
	}

	var positivePhrases, negativePhrases []string
	for _, expr := range positiveExpressions {
		positivePhrases = append(positivePhrases, expr.FindAllString(lower, -1)...)
	}
	for _, expr := range negativeExpressions {
		negativePhrases = append(negativePhrases, expr.FindAllString(lower, -1)...)
	}

	totalIndicators := positiveCount + negativeCount + len(positivePhrases) + len(negativePhrases)

	score := 0.0
	if totalIndicators > 0 {
		positiveScore := float64(positiveCount + len(positivePhrases)*2)
		negativeScore := float64(negativeCount + len(negativePhrases)*2)
		score = (positiveScore - negativeScore) / (positiveScore + negativeScore + 1)
	}

	sentiment := SentimentNeutral
	confidence := 0.5
	switch {
	case score > 0.3:
		sentiment = SentimentPositive
		confidence = confidenceFromScore(score)
	case score < -0.3:
		sentiment = SentimentNegative
		confidence = confidenceFromScore(score)
	}

	intensity := float64(totalIndicators) * 0.2
	if intensity > 1.0 {
		intensity = 1.0
	}

	var positiveIndicators, negativeIndicators []string
	if positiveCount > 0 {
		positiveIndicators = append(positiveIndicators,
			fmt.Sprintf("%d mots positifs détectés", positiveCount))
	}
	if negativeCount > 0 {
		negativeIndicators = append(negativeIndicators,
			fmt.Sprintf("%d mots négatifs détectés", negativeCount))
	}

	return Estimate{
		Sentiment:          sentiment,
		Confidence:         confidence,
		EmotionalIntensity: intensity,
		Score:              score,
		PositiveCount:      positiveCount,
		NegativeCount:      negativeCount,
		PositivePhrases:    positivePhrases,
		NegativePhrases:    negativePhrases,
		TotalIndicators:    totalIndicators,
		PositiveIndicators: positiveIndicators,
		NegativeIndicators: negativeIndicators,
		KeyThemes:          ExtractThemes(text),
	}
}

// confidenceFromScore grows with the score magnitude, capped at 0.7 so the
// local tier never claims more certainty than the remote judge.
func confidenceFromScore(score float64) float64 {
	abs := score
	if abs < 0 {
		abs = -abs
	}
	c := 0.5 + abs*0.3
	if c > 0.7 {
		c = 0.7
	}
	return c
}

// ExtractThemes returns up to five themes mentioned in the text.
func ExtractThemes(text string) []string {
	lower := strings.ToLower(text)
	var themes []string

	for _, theme := range themeOrder {
		for _, keyword := range themeKeywords[theme] {
			if strings.Contains(lower, keyword) {
				themes = append(themes, theme)
				break
			}
		}
		if len(themes) == 5 {
			break
		}
	}
	return themes
}
