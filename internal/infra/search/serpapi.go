// Package search finds competing services through SerpAPI's Google engine.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bryanwahyu/clausecode/internal/domain/analysis"
)

const (
	DefaultEndpoint = "https://serpapi.com/search.json"
	maxResults      = 5
)

// SerpAPI implements analysis.AlternativeFinder.
type SerpAPI struct {
	APIKey   string
	Endpoint string
	HTTP     *http.Client
}

func NewSerpAPI(apiKey string) *SerpAPI {
	return &SerpAPI{
		APIKey:   apiKey,
		Endpoint: DefaultEndpoint,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Search returns up to five organic results for "alternatives to <serviceName>".
func (s *SerpAPI) Search(ctx context.Context, serviceName string) ([]analysis.Alternative, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("serpapi: %w", analysis.ErrNotConfigured)
	}
	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", "alternatives to "+serviceName)
	q.Set("api_key", s.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &analysis.ProviderError{Status: resp.StatusCode, Message: "SerpAPI error"}
	}

	var body struct {
		OrganicResults []analysis.Alternative `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}
	out := body.OrganicResults
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	if out == nil {
		out = []analysis.Alternative{}
	}
	return out, nil
}
