package document

import (
	"context"
	"io"
)

// ObjectStore keeps the raw bytes of uploaded files.
type ObjectStore interface {
	// Put stores r under key and returns a URL for the object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// Scraper turns a page URL into a Document.
type Scraper interface {
	Scrape(ctx context.Context, pageURL string) (Document, error)
}
