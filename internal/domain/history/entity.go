package history

import "time"

// RecordID identifier type
type RecordID string

// Record is a saved analysis, kept for the history views.
type Record struct {
	ID           RecordID  `json:"id" bson:"_id"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
	Agent        string    `json:"agent" bson:"agent"`
	AnalysisType string    `json:"analysis_type" bson:"analysis_type"`
	Language     string    `json:"language,omitempty" bson:"language,omitempty"`
	PageTitle    string    `json:"page_title" bson:"page_title"`
	PageURL      string    `json:"page_url" bson:"page_url"`
	ResultText   string    `json:"result_text" bson:"result_text"`
	PageContent  string    `json:"page_content,omitempty" bson:"page_content,omitempty"`
	UserID       string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	Limit        int
	Agent        string
	AnalysisType string
	UserID       string
}
