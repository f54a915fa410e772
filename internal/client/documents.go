package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/bryanwahyu/clausecode/internal/domain/document"
)

// Upload posts a PDF or Word file to POST /upload and returns the extracted document.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (document.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return document.Document{}, &Error{Message: GenericMessage, Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return document.Document{}, &Error{Message: fmt.Sprintf("could not read %s", filepath.Base(filename)), Err: err}
	}
	if err := mw.Close(); err != nil {
		return document.Document{}, &Error{Message: GenericMessage, Err: err}
	}

	var out struct {
		Text      string `json:"text"`
		Filename  string `json:"filename"`
		ObjectURL string `json:"objectUrl"`
	}
	if err := c.do(ctx, http.MethodPost, "/upload", mw.FormDataContentType(), &buf, &out); err != nil {
		return document.Document{}, err
	}
	return document.Document{
		Text:   out.Text,
		Title:  out.Filename,
		URL:    out.ObjectURL,
		Source: document.SourceUpload,
	}, nil
}

// ScrapeURL asks the backend to fetch rawURL through POST /scrape-url.
func (c *Client) ScrapeURL(ctx context.Context, rawURL string) (document.Document, error) {
	var out struct {
		Text  string `json:"text"`
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	if err := c.postJSON(ctx, "/scrape-url", map[string]string{"url": rawURL}, &out); err != nil {
		return document.Document{}, err
	}
	if out.URL == "" {
		out.URL = rawURL
	}
	return document.Document{
		Text:   out.Text,
		Title:  out.Title,
		URL:    out.URL,
		Source: document.SourceScrape,
	}, nil
}
