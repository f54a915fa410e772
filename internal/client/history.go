package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bryanwahyu/clausecode/internal/domain/history"
)

// SaveRequest is the POST /save body.
type SaveRequest struct {
	Timestamp    string `json:"timestamp"`
	Agent        string `json:"agent"`
	AnalysisType string `json:"analysisType"`
	Language     string `json:"language"`
	PageTitle    string `json:"pageTitle"`
	PageURL      string `json:"pageUrl"`
	ResultText   string `json:"resultText"`
	PageContent  string `json:"pageContent"`
}

// SaveResult reports where the backend stored the analysis.
type SaveResult struct {
	ID      history.RecordID `json:"id,omitempty"`
	SavedTo []string         `json:"saved_to"`
}

// Save calls POST /save.
func (c *Client) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	var out SaveResult
	if err := c.postJSON(ctx, "/save", req, &out); err != nil {
		return SaveResult{}, err
	}
	return out, nil
}

// ListAnalyses calls GET /analyses with the filter as query parameters.
func (c *Client) ListAnalyses(ctx context.Context, f history.Filter) ([]*history.Record, error) {
	q := url.Values{}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Agent != "" {
		q.Set("agent", f.Agent)
	}
	if f.AnalysisType != "" {
		q.Set("analysis_type", f.AnalysisType)
	}
	if f.UserID != "" {
		q.Set("user_id", f.UserID)
	}
	path := "/analyses"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Analyses []*history.Record `json:"analyses"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Analyses, nil
}

// GetAnalysis calls GET /analyses/{id}.
func (c *Client) GetAnalysis(ctx context.Context, id history.RecordID) (*history.Record, error) {
	var out struct {
		Analysis *history.Record `json:"analysis"`
	}
	if err := c.get(ctx, "/analyses/"+url.PathEscape(string(id)), &out); err != nil {
		return nil, err
	}
	if out.Analysis == nil {
		return nil, &Error{Status: http.StatusNotFound, Message: "Analysis not found"}
	}
	return out.Analysis, nil
}

// DeleteAnalysis calls DELETE /analyses/{id}.
func (c *Client) DeleteAnalysis(ctx context.Context, id history.RecordID) error {
	return c.do(ctx, http.MethodDelete, "/analyses/"+url.PathEscape(string(id)), "", nil, nil)
}
