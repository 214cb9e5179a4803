// internal/api/models.go
package api

// EstablishmentQuestionnaire carries the five structured aspect scores for a
// hospital or clinic stay.
type EstablishmentQuestionnaire struct {
	Medecins      int `json:"medecins"`
	Personnel     int `json:"personnel"`
	Accueil       int `json:"accueil"`
	PriseEnCharge int `json:"prise_en_charge"`
	Confort       int `json:"confort"`
}

// PhysicianQuestionnaire carries the four categorical answers for a
// physician review.
type PhysicianQuestionnaire struct {
	Explications string `json:"explications"`
	Confiance    string `json:"confiance"`
	Motivation   string `json:"motivation"`
	Respect      string `json:"respect"`
}

// EvaluationRequest is the body of POST /evaluate. Options default to true
// when omitted.
type EvaluationRequest struct {
	TypeEvaluation             string                      `json:"type_evaluation"`
	AvisText                   string                      `json:"avis_text"`
	QuestionnaireEtablissement *EstablishmentQuestionnaire `json:"questionnaire_etablissement,omitempty"`
	QuestionnaireMedecin       *PhysicianQuestionnaire     `json:"questionnaire_medecin,omitempty"`
	GenererTitre               *bool                       `json:"generer_titre,omitempty"`
	AnalyseDetaillee           *bool                       `json:"analyse_detaillee,omitempty"`
}

// EvaluationResponse is the body of a successful POST /evaluate.
type EvaluationResponse struct {
	NoteFinale            float64                `json:"note_finale"`
	Confiance             float64                `json:"confiance"`
	Sentiment             string                 `json:"sentiment"`
	IntensiteEmotionnelle float64                `json:"intensite_emotionnelle"`
	TitreSuggere          string                 `json:"titre_suggere,omitempty"`
	AnalyseDetaillee      map[string]interface{} `json:"analyse_detaillee,omitempty"`
	Timestamp             string                 `json:"timestamp"`
	TypeEvaluation        string                 `json:"type_evaluation"`
	DureeTraitementMs     int64                  `json:"duree_traitement_ms"`
	ModeDegrade           bool                   `json:"mode_degrade"`
	RequestID             string                 `json:"request_id"`
}

// SentimentRequest is the body of POST /sentiment.
type SentimentRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
