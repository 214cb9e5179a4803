// internal/questionnaire/questionnaire.go

// Package questionnaire converts structured patient questionnaires into a
// single score on the 1-5 scale used by the rating engine.
package questionnaire

import (
	"fmt"
	"math"
)

// Kind selects the questionnaire scoring scheme.
type Kind string

const (
	KindEstablishment Kind = "etablissement"
	KindPhysician     Kind = "medecin"
)

// Establishment aspects, scored 1-5 each.
var establishmentAspects = []string{
	"medecins", "personnel", "accueil", "prise_en_charge", "confort",
}

// Physician criteria, answered with French labels.
var physicianCriteria = []string{
	"explications", "confiance", "motivation", "respect",
}

// labelRatings maps the closed-question answer labels to scores.
var labelRatings = map[string]int{
	// Explications
	"Très insuffisantes": 1, "Insuffisantes": 2, "Correctes": 3, "Bonnes": 4, "Excellentes": 5,
	// Confiance
	"Aucune confiance": 1, "Peu de confiance": 2, "Confiance modérée": 3,
	"Bonne confiance": 4, "Confiance totale": 5,
	// Motivation
	"Aucune motivation": 1, "Peu motivé": 2, "Moyennement motivé": 3,
	"Bien motivé": 4, "Très motivé": 5,
	// Respect
	"Pas du tout": 1, "Peu respectueux": 2, "Modérément respectueux": 3,
	"Respectueux": 4, "Très respectueux": 5,
}

// EstablishmentScore holds the per-aspect detail behind an overall score.
type EstablishmentScore struct {
	Overall float64        `json:"note_globale"`
	Details map[string]int `json:"details"`
}

// PhysicianDetail records how one criterion answer was scored.
type PhysicianDetail struct {
	Evaluation string `json:"evaluation"`
	Rating     int    `json:"note"`
}

// PhysicianScore holds the per-criterion detail behind an overall score.
type PhysicianScore struct {
	Overall float64                    `json:"note_globale"`
	Details map[string]PhysicianDetail `json:"details"`
}

// ScoreEstablishment averages the five aspect scores. Missing or out-of-range
// aspects count as the neutral 3.
func ScoreEstablishment(scores map[string]int) EstablishmentScore {
	details := make(map[string]int, len(establishmentAspects))
	sum := 0

	for _, aspect := range establishmentAspects {
		score, ok := scores[aspect]
		if !ok || score < 1 || score > 5 {
			score = 3
		}
		details[aspect] = score
		sum += score
	}

	overall := float64(sum) / float64(len(establishmentAspects))
	return EstablishmentScore{
		Overall: round1(overall),
		Details: details,
	}
}

// ScorePhysician maps the four criterion answers to scores and averages
// them. Unknown labels count as the neutral 3.
func ScorePhysician(evaluations map[string]string) PhysicianScore {
	details := make(map[string]PhysicianDetail, len(physicianCriteria))
	sum := 0

	for _, criterion := range physicianCriteria {
		evaluation, ok := evaluations[criterion]
		if !ok {
			evaluation = "Correctes"
		}
		rating, known := labelRatings[evaluation]
		if !known {
			rating = 3
		}
		details[criterion] = PhysicianDetail{Evaluation: evaluation, Rating: rating}
		sum += rating
	}

	overall := float64(sum) / float64(len(physicianCriteria))
	return PhysicianScore{
		Overall: round1(overall),
		Details: details,
	}
}

// Score dispatches on kind. Establishment questionnaires carry integer aspect
// scores, physician questionnaires carry label answers.
func Score(kind Kind, aspectScores map[string]int, labelAnswers map[string]string) (float64, error) {
	switch kind {
	case KindEstablishment:
		return ScoreEstablishment(aspectScores).Overall, nil
	case KindPhysician:
		return ScorePhysician(labelAnswers).Overall, nil
	default:
		return 0, fmt.Errorf("unknown questionnaire kind: %q", kind)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
