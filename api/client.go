// Package api talks to the posting server over HTTP.
//
// Every call is a single request with no retry and no client-side timeout;
// the context is the only way to abandon it. Any JSON response body counts as
// an acknowledgment, whatever its status code.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/puyokura/cmppfeed/model"
)

const (
	PostsPath    = "/api/posts"
	RegisterPath = "/api/register"
)

var errNotJSON = errors.New("body is not valid JSON")

// Client posts JSON payloads to the server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. A nil httpClient means a
// fresh http.Client with no timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: NormalizeBaseURL(baseURL),
		http:    httpClient,
	}
}

// NormalizeBaseURL adds a scheme when missing and drops trailing slashes.
func NormalizeBaseURL(base string) string {
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/")
}

func (c *Client) BaseURL() string { return c.baseURL }

// SubmitPost sends payload to POST /api/posts.
func (c *Client) SubmitPost(ctx context.Context, payload model.PostPayload) (model.SubmissionResult, error) {
	return c.postJSON(ctx, "submit post", PostsPath, payload)
}

// Register sends an arbitrary JSON body to the registration endpoint.
func (c *Client) Register(ctx context.Context, body any) (model.SubmissionResult, error) {
	return c.postJSON(ctx, "register", RegisterPath, body)
}

func (c *Client) postJSON(ctx context.Context, op, path string, body any) (model.SubmissionResult, error) {
	data, err := encodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode body: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if !json.Valid(raw) {
		return nil, &ResponseParseError{Op: op, StatusCode: resp.StatusCode, Err: errNotJSON}
	}
	return model.SubmissionResult(raw), nil
}

// encodeJSON marshals v without HTML escaping, so the text the user typed
// reaches the wire as-is.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
