package domain

// RecommendState is the terminal state a recommendation request ended in.
type RecommendState string

const (
	StateRetrievalFailed RecommendState = "retrieval_failed"
	StateNoResults       RecommendState = "no_results"
	StateFallback        RecommendState = "fallback"
	StateRanked          RecommendState = "ranked"
)

// Recommendation is one ranked assessment with the model's explanation.
// Item fields are filled only when the name matched a retrieved document.
type Recommendation struct {
	AssessmentName  string   `json:"assessment_name"`
	RelevanceScore  float64  `json:"relevance_score"`
	Reasoning       string   `json:"reasoning"`
	ItemID          string   `json:"item_id,omitempty"`
	URL             string   `json:"url,omitempty"`
	TestType        string   `json:"test_type,omitempty"`
	Category        string   `json:"category,omitempty"`
	Description     string   `json:"description,omitempty"`
	TargetRoles     []string `json:"target_roles,omitempty"`
	SkillsAssessed  []string `json:"skills_assessed,omitempty"`
	Duration        string   `json:"duration,omitempty"`
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
}

// Enrich copies item metadata from a retrieved document.
func (r *Recommendation) Enrich(doc RetrievedDocument) {
	score := doc.SimilarityScore
	r.ItemID = doc.Item.ID
	r.URL = doc.Item.URL
	r.TestType = doc.Item.TestType
	r.Category = doc.Item.Category
	r.Description = doc.Item.Description
	r.TargetRoles = doc.Item.TargetRoles
	r.SkillsAssessed = doc.Item.SkillsAssessed
	r.Duration = doc.Item.Duration
	r.SimilarityScore = &score
}

// RecommendationResult is the well-formed answer to one query.
type RecommendationResult struct {
	Query           string           `json:"query"`
	State           RecommendState   `json:"state"`
	Recommendations []Recommendation `json:"recommendations"`
	RetrievedCount  int              `json:"retrieved_count"`
	ProcessingTime  float64          `json:"processing_time"`
	RawResponse     string           `json:"raw_response,omitempty"`
	ParseAnomaly    bool             `json:"parse_anomaly,omitempty"`
	Message         string           `json:"message,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// Degraded reports whether the result was produced without the ranking service.
func (r *RecommendationResult) Degraded() bool {
	return r.State == StateFallback
}
