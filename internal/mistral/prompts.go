// internal/mistral/prompts.go
package mistral

import "fmt"

// Prompts instruct the model to answer with strict JSON only. The response
// parser still tolerates markdown fences around the JSON.

const sentimentAnalysisPrompt = `
Tu es un expert en analyse de sentiment spécialisé dans les avis patients d'établissements de santé français.

Analyse le texte suivant et détermine:
1. Le sentiment global (positif/neutre/négatif)
2. L'intensité émotionnelle (0.0 à 1.0)
3. Les indicateurs positifs et négatifs
4. Le niveau de confiance de ton analyse

Critères spécifiques pour les établissements de santé:
- Mots-clés positifs : "excellent", "parfait", "recommande", "professionnel", "attentif", "efficace", "rassurant"
- Mots-clés négatifs : "déçu", "attente", "problème", "inadmissible", "négligent", "froid", "débordé"
- Intensificateurs : "très", "extrêmement", "vraiment", "absolument"
- Négations : "ne...pas", "aucun", "jamais", "plus"

Réponds UNIQUEMENT au format JSON strict:
{
    "sentiment": "positif|neutre|negatif",
    "confidence": 0.85,
    "emotional_intensity": 0.7,
    "positive_indicators": ["excellent service", "personnel attentif"],
    "negative_indicators": ["attente longue", "chambre bruyante"],
    "key_themes": ["accueil", "soins", "confort"]
}

Texte à analyser: %s
`

const ratingCalculationPrompt = `
Tu es un expert en évaluation d'expériences patients dans les établissements de santé français.

Basé sur cette analyse de sentiment, calcule une note sur 5 qui reflète fidèlement l'expérience décrite:

Analyse de sentiment disponible:
%s

Critères de notation stricts:
- 5/5: Expérience exceptionnelle, très positif, recommandation forte
- 4/5: Bonne expérience, majoritairement positif avec quelques réserves mineures
- 3/5: Expérience correcte, neutre ou mitigé, satisfaction modérée
- 2/5: Expérience décevante, majoritairement négatif avec quelques points positifs
- 1/5: Expérience très mauvaise, très négatif, déception totale

Pondération:
- Sentiment (50%%) : Positif/Négatif/Neutre
- Intensité émotionnelle (30%%) : Force des émotions exprimées
- Richesse du contenu (20%%) : Détail et précision des commentaires

Réponds UNIQUEMENT au format JSON:
{
    "suggested_rating": 4,
    "confidence": 0.9,
    "justification": "Le patient exprime une satisfaction globale malgré quelques points d'amélioration",
    "rating_factors": {
        "sentiment_impact": 0.7,
        "intensity_impact": 0.6,
        "content_richness": 0.8
    }
}
`

const hybridRatingCalculationPrompt = `
Tu es un expert en évaluation d'expériences patients dans les établissements de santé français.

Calcule une note hybride sur 5 en combinant la note du questionnaire structuré et l'analyse du commentaire libre:

Note questionnaire: %.1f/5
Analyse de sentiment du commentaire:
%s

Pondération:
- Note questionnaire (40%%) : réponses structurées du patient
- Analyse textuelle (60%%) : sentiment, intensité et contenu du commentaire

Règles:
- Si le commentaire contredit fortement le questionnaire, privilégie le commentaire
- La note finale doit rester entre 1 et 5
- Justifie l'écart éventuel avec la note questionnaire

Réponds UNIQUEMENT au format JSON:
{
    "suggested_rating": 4.2,
    "confidence": 0.85,
    "justification": "La note combine le questionnaire et un commentaire globalement positif",
    "rating_factors": {
        "questionnaire_impact": 0.4,
        "sentiment_impact": 0.4,
        "intensity_impact": 0.15,
        "content_richness": 0.05
    }
}
`

const titleGenerationPrompt = `
Tu es un expert en communication pour les avis patients d'établissements de santé.

Basé sur cette analyse complète, génère un titre accrocheur et représentatif:

Analyse sentiment: %s
Note calculée: %.1f/5
Verbatim: "%s"

Critères pour le titre:
- Maximum 60 caractères
- Refléter le sentiment général
- Être respectueux et professionnel
- Éviter les superlatifs excessifs
- Mentionner l'aspect principal (soins, accueil, organisation, etc.)

Exemples de bons titres:
- "Excellent suivi médical, personnel à l'écoute"
- "Séjour correct mais attente aux urgences"
- "Déçu par l'organisation, bons soins"

Réponds UNIQUEMENT au format JSON:
{
    "suggested_title": "Titre suggéré ici",
    "alternative_titles": ["Titre alternatif 1", "Titre alternatif 2"],
    "main_theme": "soins|accueil|organisation|hotellerie",
    "confidence": 0.8
}
`

func buildSentimentPrompt(text string) string {
	return fmt.Sprintf(sentimentAnalysisPrompt, text)
}

func buildRatingPrompt(sentimentJSON string) string {
	return fmt.Sprintf(ratingCalculationPrompt, sentimentJSON)
}

func buildHybridRatingPrompt(questionnaireScore float64, sentimentJSON string) string {
	return fmt.Sprintf(hybridRatingCalculationPrompt, questionnaireScore, sentimentJSON)
}

func buildTitlePrompt(sentimentJSON string, rating float64, text string) string {
	// Long verbatims are truncated to keep the prompt bounded
	if runes := []rune(text); len(runes) > 500 {
		text = string(runes[:500])
	}
	return fmt.Sprintf(titleGenerationPrompt, sentimentJSON, rating, text)
}
