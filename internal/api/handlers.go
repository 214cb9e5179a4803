// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"rating-engine/internal/mistral"
	"rating-engine/internal/questionnaire"
	"rating-engine/internal/rating"
	"rating-engine/internal/sentiment"
)

// Evaluator produces final ratings.
type Evaluator interface {
	Evaluate(ctx context.Context, text string, questionnaireScore *float64) rating.Result
}

// Analyzer produces sentiment analyses.
type Analyzer interface {
	Analyze(ctx context.Context, text string) sentiment.Analysis
}

// TitleGenerator asks the remote judge for a review title.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, s *mistral.SentimentPayload, ratingValue float64, text string) (*mistral.TitlePayload, error)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, requestID string) {
	writeJSON(w, status, errorResponse{Error: message, RequestID: requestID})
}

// handleEvaluate runs the full pipeline: questionnaire scoring, sentiment
// analysis, hybrid rating and optional title generation.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := requestIDFrom(r.Context())

	var req EvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide", requestID)
		return
	}

	if req.TypeEvaluation != string(questionnaire.KindEstablishment) &&
		req.TypeEvaluation != string(questionnaire.KindPhysician) {
		writeError(w, http.StatusBadRequest,
			"type_evaluation doit être 'etablissement' ou 'medecin'", requestID)
		return
	}
	if len([]rune(req.AvisText)) < 20 {
		writeError(w, http.StatusBadRequest,
			"avis_text doit contenir au moins 20 caractères", requestID)
		return
	}

	// Questionnaire score
	var questionnaireScore float64
	var questionnaireDetails interface{}
	switch questionnaire.Kind(req.TypeEvaluation) {
	case questionnaire.KindEstablishment:
		if req.QuestionnaireEtablissement == nil {
			writeError(w, http.StatusBadRequest,
				"questionnaire_etablissement requis pour type_evaluation='etablissement'", requestID)
			return
		}
		q := req.QuestionnaireEtablissement
		score := questionnaire.ScoreEstablishment(map[string]int{
			"medecins":        q.Medecins,
			"personnel":       q.Personnel,
			"accueil":         q.Accueil,
			"prise_en_charge": q.PriseEnCharge,
			"confort":         q.Confort,
		})
		questionnaireScore = score.Overall
		questionnaireDetails = score.Details
	case questionnaire.KindPhysician:
		if req.QuestionnaireMedecin == nil {
			writeError(w, http.StatusBadRequest,
				"questionnaire_medecin requis pour type_evaluation='medecin'", requestID)
			return
		}
		q := req.QuestionnaireMedecin
		score := questionnaire.ScorePhysician(map[string]string{
			"explications": q.Explications,
			"confiance":    q.Confiance,
			"motivation":   q.Motivation,
			"respect":      q.Respect,
		})
		questionnaireScore = score.Overall
		questionnaireDetails = score.Details
	}

	s.logger.Info("evaluation requested", map[string]interface{}{
		"request_id":          requestID,
		"type":                req.TypeEvaluation,
		"text_length":         len(req.AvisText),
		"questionnaire_score": questionnaireScore,
	})

	analysis := s.analyzer.Analyze(r.Context(), req.AvisText)
	result := s.evaluator.Evaluate(r.Context(), req.AvisText, &questionnaireScore)

	var title string
	if req.GenererTitre == nil || *req.GenererTitre {
		title = s.generateTitle(r.Context(), analysis, result, req.TypeEvaluation, req.AvisText)
	}

	degraded := analysis.FallbackMode || result.FallbackTier != rating.TierRemote

	response := EvaluationResponse{
		NoteFinale:            result.SuggestedRating,
		Confiance:             result.Confidence,
		Sentiment:             analysis.Sentiment,
		IntensiteEmotionnelle: analysis.EmotionalIntensity,
		TitreSuggere:          title,
		Timestamp:             time.Now().UTC().Format(time.RFC3339),
		TypeEvaluation:        req.TypeEvaluation,
		DureeTraitementMs:     time.Since(start).Milliseconds(),
		ModeDegrade:           degraded,
		RequestID:             requestID,
	}

	if req.AnalyseDetaillee == nil || *req.AnalyseDetaillee {
		response.AnalyseDetaillee = map[string]interface{}{
			"questionnaire": map[string]interface{}{
				"note":    questionnaireScore,
				"details": questionnaireDetails,
			},
			"sentiment":      analysis,
			"calcul_hybride": result,
			"performance": map[string]interface{}{
				"duree_traitement_ms": time.Since(start).Milliseconds(),
				"modele_mistral":      s.modelName,
			},
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) generateTitle(ctx context.Context, analysis sentiment.Analysis, result rating.Result, evaluationType, text string) string {
	if s.titles != nil && !analysis.FallbackMode {
		payload, err := s.titles.GenerateTitle(ctx, &mistral.SentimentPayload{
			Sentiment:          analysis.Sentiment,
			Confidence:         analysis.Confidence,
			EmotionalIntensity: analysis.EmotionalIntensity,
			KeyThemes:          analysis.KeyThemes,
		}, result.SuggestedRating, text)
		if err == nil && payload != nil && payload.SuggestedTitle != "" {
			return payload.SuggestedTitle
		}
		s.logger.WithError(err).Warn("remote title generation failed, using local title", nil)
	}
	return localTitle(analysis.Sentiment, result.SuggestedRating, evaluationType, text)
}

// handleSentiment runs the sentiment analysis alone.
func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	var req SentimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide", requestID)
		return
	}
	if len([]rune(req.Text)) < 10 {
		writeError(w, http.StatusBadRequest,
			"text doit contenir au moins 10 caractères", requestID)
		return
	}

	analysis := s.analyzer.Analyze(r.Context(), req.Text)

	status := "success"
	if analysis.FallbackMode {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"data":       analysis,
		"request_id": requestID,
	})
}

// handleHealth reports service status and cache statistics.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": map[string]string{
			"mistral_api":      "configured",
			"rating_engine":    "ok",
			"local_estimator":  "ok",
			"title_generation": "ok",
		},
		"config": map[string]string{
			"modele_mistral": s.modelName,
			"version":        s.version,
		},
	}

	if s.store != nil {
		stats, err := s.store.Stats(r.Context())
		if err != nil {
			health["status"] = "degraded"
			health["cache"] = map[string]string{"error": err.Error()}
		} else {
			health["cache"] = stats
		}
	}

	// A degraded cache never blocks traffic, health stays 200
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":            "API de notation des avis patients",
		"endpoint_principal": "/evaluate",
		"health_check":       "/health",
		"version":            s.version,
	})
}
