// internal/api/title.go
package api

import (
	"fmt"
	"strings"

	"rating-engine/internal/heuristic"
)

// localTitle derives a short review title without the remote judge. Used
// when title generation fails or the remote tier is already degraded.
func localTitle(sentiment string, rating float64, evaluationType, text string) string {
	lower := strings.ToLower(text)

	switch {
	case sentiment == heuristic.SentimentPositive && rating >= 4.5:
		if strings.Contains(lower, "excellent") || strings.Contains(lower, "parfait") {
			return fmt.Sprintf("Expérience exceptionnelle - %s recommandé", evaluationType)
		}
		return fmt.Sprintf("Très satisfait de cet %s", evaluationType)

	case sentiment == heuristic.SentimentPositive && rating >= 3.5:
		if strings.Contains(lower, "satisfait") {
			return fmt.Sprintf("Expérience satisfaisante dans cet %s", evaluationType)
		}
		return fmt.Sprintf("Bon %s - expérience positive", evaluationType)

	case sentiment == heuristic.SentimentNegative && rating <= 2:
		if strings.Contains(lower, "déçu") || strings.Contains(lower, "problème") {
			return fmt.Sprintf("Expérience décevante - %s à éviter", evaluationType)
		}
		return fmt.Sprintf("Nombreux points d'amélioration pour cet %s", evaluationType)

	case sentiment == heuristic.SentimentNegative:
		return fmt.Sprintf("Avis mitigé sur cet %s", evaluationType)

	default:
		if strings.Contains(lower, "correct") || strings.Contains(lower, "bien") {
			return fmt.Sprintf("Avis nuancé sur cet %s", evaluationType)
		}
		return fmt.Sprintf("Retour d'expérience sur cet %s", evaluationType)
	}
}
