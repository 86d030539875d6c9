package models

// FeedbackItem is one titled strength or improvement area.
type FeedbackItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FeedbackResult is regenerated from the transcript on demand and is not
// stored.
type FeedbackResult struct {
	Score               float64        `json:"score"` // 1-5
	Summary             string         `json:"summary"`
	Strengths           []FeedbackItem `json:"strengths"`
	AreasForImprovement []FeedbackItem `json:"areas_for_improvement"`
}
