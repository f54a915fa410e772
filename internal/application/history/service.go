// Package history implements saving and browsing analyses.
package history

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/clausecode/internal/application"
	domain "github.com/bryanwahyu/clausecode/internal/domain/history"
)

// Service is safe for concurrent use. A nil Repo means no storage driver is configured:
// saves still succeed with nothing recorded, reads fail with ErrUnavailable.
type Service struct {
	Repo   domain.Repository
	Driver string
	Clock  application.Clock
	Logger *slog.Logger
}

func NewService(repo domain.Repository, driver string, clock application.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Repo: repo, Driver: driver, Clock: clock, Logger: logger}
}

// SaveCommand is the POST /save body.
type SaveCommand struct {
	Timestamp    string `json:"timestamp"`
	Agent        string `json:"agent"`
	AnalysisType string `json:"analysisType"`
	Language     string `json:"language"`
	PageTitle    string `json:"pageTitle"`
	PageURL      string `json:"pageUrl"`
	ResultText   string `json:"resultText"`
	PageContent  string `json:"pageContent"`
}

// SaveResult is the POST /save response body.
type SaveResult struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	SavedTo []string        `json:"saved_to"`
	ID      domain.RecordID `json:"id,omitempty"`
}

// Save records an analysis for userID, which is empty for anonymous callers.
func (s *Service) Save(ctx context.Context, cmd SaveCommand, userID string) (SaveResult, error) {
	out := SaveResult{Status: "ok", Message: "Data processed successfully", SavedTo: []string{}}
	if s.Repo == nil {
		return out, nil
	}

	now := s.Clock.Now()
	rec := &domain.Record{
		ID:           domain.RecordID(uuid.NewString()),
		Timestamp:    parseTimestamp(cmd.Timestamp, now),
		Agent:        cmd.Agent,
		AnalysisType: cmd.AnalysisType,
		Language:     cmd.Language,
		PageTitle:    cmd.PageTitle,
		PageURL:      cmd.PageURL,
		ResultText:   cmd.ResultText,
		PageContent:  cmd.PageContent,
		UserID:       userID,
		CreatedAt:    now,
	}
	if err := s.Repo.Save(ctx, rec); err != nil {
		return SaveResult{}, err
	}
	s.Logger.Info("analysis saved", "id", rec.ID, "driver", s.Driver, "agent", rec.Agent, "analysis_type", rec.AnalysisType)
	out.SavedTo = append(out.SavedTo, s.Driver)
	out.ID = rec.ID
	return out, nil
}

func (s *Service) List(ctx context.Context, f domain.Filter) ([]*domain.Record, error) {
	if s.Repo == nil {
		return nil, domain.ErrUnavailable
	}
	f.Limit = domain.ClampLimit(f.Limit)
	return s.Repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	if s.Repo == nil {
		return nil, domain.ErrUnavailable
	}
	return s.Repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id domain.RecordID) error {
	if s.Repo == nil {
		return domain.ErrUnavailable
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("analysis deleted", "id", id)
	return nil
}

// parseTimestamp accepts RFC 3339 and the browser's ISO form without a zone; anything else
// becomes now.
func parseTimestamp(v string, now time.Time) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return now
}
