// Package documents turns uploads and web pages into analyzable text.
package documents

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"

	"github.com/bryanwahyu/clausecode/internal/domain/document"
	"github.com/bryanwahyu/clausecode/internal/infra/extract"
	"github.com/bryanwahyu/clausecode/internal/infra/storage"
)

// MaxUploadBytes bounds the multipart body accepted for an upload.
const MaxUploadBytes = 20 << 20

// Service uses Store, when set, to keep a copy of every uploaded original.
type Service struct {
	Store   document.ObjectStore
	Scraper document.Scraper
	Logger  *slog.Logger
}

func NewService(store document.ObjectStore, scraper document.Scraper, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Store: store, Scraper: scraper, Logger: logger}
}

// UploadResult is the POST /upload response body.
type UploadResult struct {
	Status    string `json:"status"`
	Text      string `json:"text"`
	Filename  string `json:"filename"`
	ObjectURL string `json:"objectUrl,omitempty"`
}

// Upload extracts the text of a PDF or Word file. Failing to archive the original is logged,
// not returned.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	filename = filepath.Base(filename)
	if !extract.Supported(filename) {
		return UploadResult{}, extract.ErrUnsupported
	}
	text, err := extract.Text(filename, data)
	if err != nil {
		return UploadResult{}, err
	}

	out := UploadResult{Status: "ok", Text: text, Filename: filename}
	if s.Store != nil {
		key := storage.UploadKey(filename)
		url, err := s.Store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.ContentType(filename))
		if err != nil {
			s.Logger.Warn("archiving upload failed", "key", key, "error", err)
		} else {
			out.ObjectURL = url
		}
	}
	s.Logger.Info("document uploaded", "filename", filename, "bytes", len(data), "chars", len([]rune(text)))
	return out, nil
}

// ScrapeResult is the POST /scrape-url response body.
type ScrapeResult struct {
	Status string `json:"status"`
	Text   string `json:"text"`
	URL    string `json:"url"`
	Title  string `json:"title"`
}

// Scrape fetches an already validated absolute URL.
func (s *Service) Scrape(ctx context.Context, pageURL string) (ScrapeResult, error) {
	doc, err := s.Scraper.Scrape(ctx, pageURL)
	if err != nil {
		s.Logger.Warn("scrape failed", "url", pageURL, "error", err)
		return ScrapeResult{}, err
	}
	return ScrapeResult{Status: "ok", Text: doc.Text, URL: doc.URL, Title: doc.Title}, nil
}
