package avito

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// UnauthorizedError is returned for 401/403, usually an expired or revoked token.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Message)
}

// NotFoundError is returned for 404, e.g. a listing that does not belong to the account.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found (404): %s", e.Message)
}

// ConflictError is returned for 409, e.g. dates already blocked on the listing.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict (409): %s", e.Message)
}

// RateLimitError is returned when the server responds with HTTP 429.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration // from Retry-After, if present
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded; retry after %s", e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded: %s", e.Message)
}

// APIError covers every other non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("avito api error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to the Avito REST API. Calls are attempted exactly once.
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
}

const DefaultBaseURL = "https://api.avito.ru"

// NewClient builds a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	return &Client{
		BaseURL:    parsed,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// doRequest performs a single bearer-authenticated JSON request.
func (c *Client) doRequest(ctx context.Context, accessToken, method, reqPath string, query url.Values, body any, out any) error {
	u := *c.BaseURL
	u.Path = path.Join(c.BaseURL.Path, reqPath)
	// path.Join drops the trailing slash some endpoints require
	if strings.HasSuffix(reqPath, "/") {
		u.Path += "/"
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleHTTPError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// handleHTTPError parses Avito's error envelope and returns a typed error.
func (c *Client) handleHTTPError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiErr ErrorResponse
	msg := ""
	if err := json.Unmarshal(bodyBytes, &apiErr); err == nil {
		msg = apiErr.Message()
	}
	if msg == "" {
		msg = strings.TrimSpace(string(bodyBytes))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &UnauthorizedError{Message: msg}
	case http.StatusNotFound:
		return &NotFoundError{Message: msg}
	case http.StatusConflict:
		return &ConflictError{Message: msg}
	case http.StatusTooManyRequests:
		var retry time.Duration
		if s := resp.Header.Get("Retry-After"); s != "" {
			if sec, err := strconv.Atoi(s); err == nil {
				retry = time.Duration(sec) * time.Second
			}
		}
		return &RateLimitError{Message: msg, RetryAfter: retry}
	default:
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
}
