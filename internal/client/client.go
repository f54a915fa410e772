// Package client talks to the ClauseCode backend over its HTTP contract.
//
// Every method returns either a value or a *Error; nothing here touches wizard state, callers
// commit results themselves.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// GenericMessage is shown when neither the body nor the status explain a failure.
const GenericMessage = "Something went wrong. Try again!"

// DefaultTimeout bounds a single request when the caller's context has no deadline.
const DefaultTimeout = 90 * time.Second

// Error is the only error type returned by Client methods.
type Error struct {
	// Status is the HTTP status, 0 when the request never got a response.
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient gets a default one with a cookie jar so
// the session cookie set by /auth/google is sent back.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Timeout: DefaultTimeout, Jar: jar}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetAPIKey sends key as a bearer token on every request. The backend only asks for it on
// deletion.
func (c *Client) SetAPIKey(key string) { c.apiKey = strings.TrimSpace(key) }

// BaseURL is the backend root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &Error{Message: GenericMessage, Err: fmt.Errorf("encode %s request: %w", path, err)}
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Message: GenericMessage, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		msg := GenericMessage
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "The request timed out. Try again!"
		}
		return &Error{Message: msg, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: GenericMessage, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: GenericMessage, Err: fmt.Errorf("decode %s response: %w", path, err)}
	}
	return nil
}

// newError prefers the backend's own message, then the status text.
func newError(status int, body []byte) *Error {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := errorText(payload.Error); msg != "" {
			return &Error{Status: status, Message: msg}
		}
		if strings.TrimSpace(payload.Message) != "" {
			return &Error{Status: status, Message: payload.Message}
		}
	}
	if text := http.StatusText(status); text != "" {
		return &Error{Status: status, Message: text}
	}
	return &Error{Status: status, Message: GenericMessage}
}

// errorText accepts both {"error":"..."} and the provider style {"error":{"message":"..."}}.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
