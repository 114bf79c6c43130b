package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies the bearer token for the current session, or "".
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client is a typed wrapper over the marketplace REST API. It never
// retries; every failure is returned as one of the error types in this
// package.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource

	// OnUnauthorized runs after any 401 on an authenticated call.
	OnUnauthorized func()
}

// NewClient returns a client for baseURL. A nil httpClient gets a 15 second
// timeout; a nil tokens sends no Authorization header.
func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}
}

// SetTokenSource replaces the token source.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// credentialPaths exchange credentials for a token. They never carry the
// session's bearer token, so a rejected password cannot end a live session.
var credentialPaths = map[string]bool{
	"/auth/register":        true,
	"/auth/login":           true,
	"/auth/google-login":    true,
	"/auth/google-register": true,
	"/admin/login":          true,
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.token(); tok != "" && !credentialPaths[path] {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	op := req.Method + " " + req.URL.Path
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	apiErr := errorFor(resp.StatusCode, data)
	if resp.StatusCode == http.StatusUnauthorized && req.Header.Get("Authorization") != "" && c.OnUnauthorized != nil {
		c.OnUnauthorized()
	}
	return apiErr
}

// errorFor maps a non-2xx response to a typed error. The body's "detail"
// may be a string, a {"message","fields"} object, or a list of
// {"loc","msg"} entries.
func errorFor(status int, body []byte) error {
	message, fields := parseDetail(body)
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized:
		return &AuthError{Detail: message}
	case status == http.StatusForbidden:
		return &ForbiddenError{Detail: message}
	case status == http.StatusNotFound:
		return &NotFoundError{Detail: message}
	case status == http.StatusConflict:
		return &ConflictError{Detail: message}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &ValidationError{Message: message, Fields: fields}
	default:
		return &ServerError{Status: status, Detail: message}
	}
}

type fieldIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func parseDetail(body []byte) (string, map[string]string) {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(body)), nil
	}

	var s string
	if json.Unmarshal(envelope.Detail, &s) == nil {
		return s, nil
	}

	var obj struct {
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	if json.Unmarshal(envelope.Detail, &obj) == nil && (obj.Message != "" || len(obj.Fields) > 0) {
		return obj.Message, obj.Fields
	}

	var issues []fieldIssue
	if json.Unmarshal(envelope.Detail, &issues) == nil && len(issues) > 0 {
		fields := make(map[string]string, len(issues))
		msgs := make([]string, 0, len(issues))
		for _, is := range issues {
			name := "body"
			if n := len(is.Loc); n > 0 {
				name = fmt.Sprint(is.Loc[n-1])
			}
			if _, seen := fields[name]; !seen {
				fields[name] = is.Msg
			}
			msgs = append(msgs, is.Msg)
		}
		return strings.Join(msgs, "; "), fields
	}

	return string(envelope.Detail), nil
}
