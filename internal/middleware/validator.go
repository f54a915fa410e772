package middleware

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/bryanwahyu/clausecode/internal/domain/history"
)

// Input validation and sanitization utilities

// ValidationError is a rejected input; its message is safe to show the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var hostLike = regexp.MustCompile(`^[\w\-.]+\.[a-zA-Z]{2,}`)

// NormalizeScrapeURL turns what a user typed into an absolute URL, rejecting pasted page
// content, malformed addresses and internal hosts.
func NormalizeScrapeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid("URL is required")
	}
	if len(raw) > 200 || strings.Contains(raw, "\n") || strings.Count(raw, " ") > 10 {
		return "", invalid(`It looks like you pasted content instead of a URL. Please paste only the website address (e.g., united.com/terms), or use the "Paste Text" option instead.`)
	}
	hasScheme := strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
	if !hasScheme && !hostLike.MatchString(raw) {
		return "", invalid("Invalid URL format. Please enter a valid website address (e.g., example.com or https://example.com)")
	}
	if !hasScheme {
		raw = "https://" + raw
	}
	if err := ValidateURL(raw); err != nil {
		return "", err
	}
	return raw, nil
}

// ValidateURL validates and sanitizes URLs
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return invalid("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return invalid("Invalid URL format. Please enter a valid website address (e.g., example.com or https://example.com)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}

	// SSRF protection: only literal addresses and localhost names are checked here
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return invalid("URL has no host")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return invalid("localhost/internal IPs are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsUnspecified() {
			return invalid("localhost/internal IPs are not allowed")
		}
		if ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return invalid("private IP ranges are not allowed")
		}
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

var recordIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateRecordID checks the shape of a saved analysis id
func ValidateRecordID(id string) error {
	if id == "" {
		return invalid("analysis ID cannot be empty")
	}
	if !recordIDPattern.MatchString(id) {
		return invalid("invalid analysis ID format")
	}
	return nil
}

// ValidateLimit parses the limit query parameter; anything unparsable is the default.
func ValidateLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return history.DefaultLimit
	}
	return history.ClampLimit(n)
}
