// Package document holds the text blob a wizard analyzes.
package document

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// Source records how a document was acquired.
type Source string

const (
	SourceUpload Source = "upload"
	SourceScrape Source = "scrape"
	SourcePaste  Source = "paste"
)

// DefaultMaxChars is the wizard-side cap on transmitted text.
const DefaultMaxChars = 8000

// Document is replaced wholesale by every acquisition; it is never merged.
type Document struct {
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url,omitempty"`
	Source Source `json:"source,omitempty"`
}

// Empty reports whether there is no text to analyze.
func (d Document) Empty() bool {
	return strings.TrimSpace(d.Text) == ""
}

// Len is the length in characters.
func (d Document) Len() int {
	return utf8.RuneCountInString(d.Text)
}

// Truncate returns at most max characters of the text. max <= 0 disables the cap.
func (d Document) Truncate(max int) string {
	return Truncate(d.Text, max)
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// ServiceName guesses the name of the service the document belongs to: the first label of the
// host name ("www." dropped, capitalised), else the leading part of the title, else "Service".
func (d Document) ServiceName() string {
	if u, err := url.Parse(d.URL); err == nil && u.Hostname() != "" {
		host := strings.TrimPrefix(u.Hostname(), "www.")
		label := strings.Split(host, ".")[0]
		if label != "" {
			return strings.ToUpper(label[:1]) + label[1:]
		}
	}
	title := strings.Split(d.Title, " - ")[0]
	title = strings.TrimSpace(strings.Split(title, " | ")[0])
	if title != "" {
		return title
	}
	return "Service"
}

// FetchError is a failure to acquire a document, with a message meant for the user.
type FetchError struct {
	Message string
	Err     error
}

func (e *FetchError) Error() string { return e.Message }

func (e *FetchError) Unwrap() error { return e.Err }
